package vm

import (
	"testing"

	"github.com/nginx/njs-go/internal/value"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) value.Value {
	t.Helper()
	v := New(Options{})
	lambda, err := v.Compile("t.js", src)
	require.NoError(t, err)
	res, rerr := v.Start(lambda)
	require.NoError(t, rerr)
	return res
}

func runErr(t *testing.T, src string) *Thrown {
	t.Helper()
	v := New(Options{})
	lambda, err := v.Compile("t.js", src)
	require.NoError(t, err)
	_, rerr := v.Start(lambda)
	require.Error(t, rerr)
	thrown, ok := rerr.(*Thrown)
	require.True(t, ok)
	return thrown
}

func TestFibonacciRecursion(t *testing.T) {
	res := run(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`)
	require.Equal(t, value.Number, res.Type())
	require.Equal(t, float64(55), res.NumberValue())
}

func TestPropertyOrderSurvivesDeleteAndReinsert(t *testing.T) {
	res := run(t, `
		var o = {};
		o.a = 1;
		o.b = 2;
		o.c = 3;
		delete o.b;
		o.b = 4;
		Object.keys(o).join(",");
	`)
	require.Equal(t, "a,c,b", res.Str().Bytes())
}

func TestTryCatchFinallyPropagation(t *testing.T) {
	res := run(t, `
		var log = [];
		function f() {
			try {
				throw new Error("boom");
			} catch (e) {
				log.push("caught:" + e.message);
				return "from-catch";
			} finally {
				log.push("finally");
			}
		}
		var r = f();
		log.push(r);
		log.join("|");
	`)
	require.Equal(t, "caught:boom|finally|from-catch", res.Str().Bytes())
}

func TestUncaughtThrowPropagatesAsThrown(t *testing.T) {
	thrown := runErr(t, `throw new TypeError("nope");`)
	require.Equal(t, "TypeError: nope", ErrorToString(thrown.Value))
}

func TestClosureCaptureSurvivesReturn(t *testing.T) {
	res := run(t, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		var next = makeCounter();
		next();
		next();
		next();
	`)
	require.Equal(t, float64(3), res.NumberValue())
}

func TestTaggedTemplateLiteral(t *testing.T) {
	res := run(t, `
		function tag(strings, a, b) {
			return strings.join("|") + ":" + a + "," + b;
		}
		tag` + "`x${1}y${2}z`" + `;
	`)
	require.Equal(t, "x|y|z:1,2", res.Str().Bytes())
}

func TestTypedArraySetAndSlice(t *testing.T) {
	res := run(t, `
		var a = new Uint8Array([1, 2, 3, 4, 5]);
		a.set([9, 9], 1);
		var b = a.slice(1, 4);
		b.join(",");
	`)
	require.Equal(t, "9,9,4", res.Str().Bytes())
}

func TestTypedArraySetOutOfBoundsThrowsRangeError(t *testing.T) {
	thrown := runErr(t, `
		var a = new Uint8Array(2);
		a.set([1, 2, 3], 0);
	`)
	require.Contains(t, ErrorToString(thrown.Value), "RangeError")
}

func TestDataViewReadsBigEndianByDefault(t *testing.T) {
	res := run(t, `
		var buf = new ArrayBuffer(4);
		var view = new DataView(buf);
		view.setUint32(0, 1);
		view.getUint8(3);
	`)
	require.Equal(t, float64(1), res.NumberValue())
}

func TestDataViewLittleEndianFlag(t *testing.T) {
	res := run(t, `
		var buf = new ArrayBuffer(4);
		var view = new DataView(buf);
		view.setUint32(0, 1, true);
		view.getUint8(0);
	`)
	require.Equal(t, float64(1), res.NumberValue())
}

func TestPromiseThenChainResolvesSynchronouslyAfterRunJobs(t *testing.T) {
	v := New(Options{})
	lambda, err := v.Compile("t.js", `
		var out = [];
		Promise.resolve(1).then(function(x) {
			out.push(x);
			return x + 1;
		}).then(function(x) {
			out.push(x);
		});
		out;
	`)
	require.NoError(t, err)
	res, rerr := v.Start(lambda)
	require.NoError(t, rerr)
	require.Equal(t, 0, res.Obj().Array.Length())

	v.RunJobs()

	require.Equal(t, []value.Value{value.Num(1), value.Num(2)}, res.Obj().Array.Values)
}

func TestAwaitUnwrapsFulfilledPromise(t *testing.T) {
	res := run(t, `
		function f() {
			var x = await Promise.resolve(41);
			return x + 1;
		}
		f();
	`)
	require.Equal(t, value.Number, res.Type())
	require.Equal(t, float64(42), res.NumberValue())
}

func TestAwaitOnNonPromisePassesValueThrough(t *testing.T) {
	res := run(t, `
		function f() {
			return await 7;
		}
		f();
	`)
	require.Equal(t, float64(7), res.NumberValue())
}

func TestRequireLoadsAndCachesModule(t *testing.T) {
	loads := 0
	v := New(Options{ModuleLoader: func(name string) ([]byte, error) {
		loads++
		return []byte(`({ greeting: "hi " + "` + name + `" })`), nil
	}})
	lambda, err := v.Compile("t.js", `
		var a = require("greeter");
		var b = require("greeter");
		a.greeting + "|" + b.greeting;
	`)
	require.NoError(t, err)
	res, rerr := v.Start(lambda)
	require.NoError(t, rerr)
	require.Equal(t, "hi greeter|hi greeter", res.Str().Bytes())
	require.Equal(t, 1, loads)
}

func TestJSONRoundTrip(t *testing.T) {
	res := run(t, `
		var o = { a: 1, b: [1, 2, 3], c: "x" };
		var s = JSON.stringify(o);
		var o2 = JSON.parse(s);
		o2.a + o2.b.length + o2.c;
	`)
	require.Equal(t, "4x", res.Str().Bytes())
}
