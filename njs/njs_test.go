package njs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileAndStartReturnsValue(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	s, err := v.Compile("t.js", "1 + 2;")
	require.NoError(t, err)

	res, err := v.Start(s)
	require.NoError(t, err)
	require.Equal(t, float64(3), res.NumberValue())
}

func TestStartReturnsExceptionOnUncaughtThrow(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	s, err := v.Compile("t.js", `throw new RangeError("out of bounds");`)
	require.NoError(t, err)

	_, err = v.Start(s)
	require.Error(t, err)
	exc, ok := err.(*Exception)
	require.True(t, ok)
	require.Contains(t, exc.Error(), "RangeError")
	require.Contains(t, exc.Error(), "out of bounds")
}

func TestBindExposesHostValueToScript(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	v.Bind("greeting", String("hello from host"), false)

	s, err := v.Compile("t.js", "greeting;")
	require.NoError(t, err)
	res, err := v.Start(s)
	require.NoError(t, err)
	require.Equal(t, "hello from host", res.Str().Bytes())
}

func TestInvokeCallsGlobalFunctionWithArgs(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	s, err := v.Compile("t.js", `function add(a, b) { return a + b; }`)
	require.NoError(t, err)
	_, err = v.Start(s)
	require.NoError(t, err)

	add, err := v.Value("add")
	require.NoError(t, err)

	res, err := v.Invoke(add, []Value{Number(2), Number(40)})
	require.NoError(t, err)
	require.Equal(t, float64(42), res.NumberValue())
}

func TestValueResolvesDottedPath(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	s, err := v.Compile("t.js", `var config = { server: { port: 8080 } };`)
	require.NoError(t, err)
	_, err = v.Start(s)
	require.NoError(t, err)

	port, err := v.Value("config.server.port")
	require.NoError(t, err)
	require.Equal(t, float64(8080), port.NumberValue())
}

func TestSetModuleLoaderWiresRequire(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	v.SetModuleLoader(func(name string) ([]byte, error) {
		return []byte(`(21 * 2)`), nil
	})

	s, err := v.Compile("t.js", `require("answer");`)
	require.NoError(t, err)
	res, err := v.Start(s)
	require.NoError(t, err)
	require.Equal(t, float64(42), res.NumberValue())
}

func TestSetRejectionTrackerNotifiedOnUnhandledRejection(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	var reason Value
	notified := false
	v.SetRejectionTracker(func(r Value) {
		notified = true
		reason = r
	})

	s, err := v.Compile("t.js", `Promise.reject("nope");`)
	require.NoError(t, err)
	_, err = v.Start(s)
	require.NoError(t, err)

	require.True(t, notified)
	require.Equal(t, "nope", reason.Str().Bytes())
}

func TestCloneSharesBuiltinsButNotGlobals(t *testing.T) {
	v := New(Options{})
	defer v.Destroy()

	v.Bind("onlyOnParent", Number(1), false)

	child := v.Clone()
	defer child.Destroy()

	s, err := child.Compile("t.js", `typeof onlyOnParent;`)
	require.NoError(t, err)
	res, err := child.Start(s)
	require.NoError(t, err)
	require.Equal(t, "undefined", res.Str().Bytes())
}
