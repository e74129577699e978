// Promise (spec §1 "out of scope: Promise job queue shape... treat as
// libraries implementing the property protocol of §4.4", §5
// "Suspension" / §6.1 vm_enqueue_job): settlement state lives on the
// object itself (value.PromiseData), reactions are dispatched as
// microtask.go jobs rather than run synchronously, matching "the
// interpreter returns to its host when the queue is empty; the host
// re-enters via execute_pending_job". Grounded on the teacher's
// panic-free, explicit-state-machine style (core/vm never blocks a
// goroutine waiting on another; every suspension point is an explicit
// return to the caller) rather than on any promise implementation in
// the example pack, since none of the examples embed a JS engine of
// their own.
package vm

import "github.com/nginx/njs-go/internal/value"

func (vm *VM) setupPromiseBuiltins() {
	proto := vm.protos.Promise

	vm.newConstructor("Promise", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		executor := a.Arg(0)
		if executor.Type() != value.Function {
			return value.Value{}, vm.ThrowError(TypeError, "Promise resolver is not a function")
		}
		p := vm.newPromise()
		resolve := vm.promiseSettler(p, value.PromiseFulfilled)
		reject := vm.promiseSettler(p, value.PromiseRejected)
		if _, err := vm.CallValue(executor, value.Undefined_(), []value.Value{resolve, reject}, nil); err != nil {
			vm.settlePromise(p, value.PromiseRejected, err.Value)
		}
		return value.FromObject(value.Promise, p), nil
	})

	vm.nativeMethod(proto, "then", 2, func(a value.NativeArgs) (value.Value, error) {
		p := a.This.Obj()
		if p == nil || p.Promise == nil {
			return value.Value{}, vm.ThrowError(TypeError, "not a promise")
		}
		result := vm.newPromise()
		reaction := value.PromiseReaction{OnFulfilled: a.Arg(0), OnRejected: a.Arg(1), Result: result}
		vm.addReaction(p, reaction)
		return value.FromObject(value.Promise, result), nil
	})

	vm.nativeMethod(proto, "catch", 1, func(a value.NativeArgs) (value.Value, error) {
		then, err := vm.GetPropertyByName(a.This, "then")
		if err != nil {
			return value.Value{}, err
		}
		return vm.CallValue(then, a.This, []value.Value{value.Undefined_(), a.Arg(0)}, nil)
	})

	vm.nativeMethod(proto, "finally", 1, func(a value.NativeArgs) (value.Value, error) {
		cb := a.Arg(0)
		wrap := value.NewNativeFunction("", 1, func(inner value.NativeArgs) (value.Value, error) {
			if cb.Type() == value.Function {
				if _, err := vm.CallValue(cb, value.Undefined_(), nil, nil); err != nil {
					return value.Value{}, err
				}
			}
			return inner.Arg(0), nil
		})
		wrap.Proto = vm.protos.Function
		wrapV := value.FromObject(value.Function, wrap)
		then, err := vm.GetPropertyByName(a.This, "then")
		if err != nil {
			return value.Value{}, err
		}
		return vm.CallValue(then, a.This, []value.Value{wrapV, wrapV}, nil)
	})

	ctorObj, _ := vm.GetPropertyByName(value.FromObject(value.Object, vm.Global), "Promise")
	promiseCtor := ctorObj.Obj()

	vm.nativeMethod(promiseCtor, "resolve", 1, func(a value.NativeArgs) (value.Value, error) {
		if a.Arg(0).Type() == value.Promise {
			return a.Arg(0), nil
		}
		p := vm.newPromise()
		vm.settlePromise(p, value.PromiseFulfilled, a.Arg(0))
		return value.FromObject(value.Promise, p), nil
	})

	vm.nativeMethod(promiseCtor, "reject", 1, func(a value.NativeArgs) (value.Value, error) {
		p := vm.newPromise()
		vm.settlePromise(p, value.PromiseRejected, a.Arg(0))
		return value.FromObject(value.Promise, p), nil
	})

	vm.nativeMethod(promiseCtor, "all", 1, func(a value.NativeArgs) (value.Value, error) {
		return vm.promiseCombinator(a.Arg(0), true)
	})

	vm.nativeMethod(promiseCtor, "race", 1, func(a value.NativeArgs) (value.Value, error) {
		return vm.promiseCombinator(a.Arg(0), false)
	})
}

func (vm *VM) newPromise() *value.Object {
	p := value.NewObject(value.Promise)
	p.Proto = vm.protos.Promise
	p.Promise = &value.PromiseData{State: value.PromisePending}
	return p
}

// promiseSettler returns the native resolve/reject function passed to a
// Promise executor. Resolving with another Promise adopts its state
// rather than nesting a Promise inside a Promise; any other value,
// including a non-Promise object with a `then` method, fulfills p as-is.
func (vm *VM) promiseSettler(p *value.Object, state value.PromiseState) value.Value {
	f := value.NewNativeFunction("", 1, func(a value.NativeArgs) (value.Value, error) {
		if p.Promise.State != value.PromisePending {
			return value.Undefined_(), nil
		}
		v := a.Arg(0)
		if state == value.PromiseFulfilled && v.Type() == value.Promise {
			inner := v.Obj()
			vm.addReaction(inner, value.PromiseReaction{
				OnFulfilled: vm.adoptFunc(p, value.PromiseFulfilled),
				OnRejected:  vm.adoptFunc(p, value.PromiseRejected),
				Result:      vm.newPromise(),
			})
			return value.Undefined_(), nil
		}
		vm.settlePromise(p, state, v)
		return value.Undefined_(), nil
	})
	f.Proto = vm.protos.Function
	return value.FromObject(value.Function, f)
}

func (vm *VM) adoptFunc(p *value.Object, state value.PromiseState) value.Value {
	f := value.NewNativeFunction("", 1, func(a value.NativeArgs) (value.Value, error) {
		vm.settlePromise(p, state, a.Arg(0))
		return value.Undefined_(), nil
	})
	f.Proto = vm.protos.Function
	return value.FromObject(value.Function, f)
}

// settlePromise fixes p's final state/value and enqueues a microtask
// per pending reaction (spec §5 "Microtasks run with a fresh frame...
// there is no preemption" — reactions never run synchronously inside
// the call that settles the promise).
func (vm *VM) settlePromise(p *value.Object, state value.PromiseState, v value.Value) {
	if p.Promise.State != value.PromisePending {
		return
	}
	p.Promise.State = state
	p.Promise.Value = v
	reactions := p.Promise.Reactions
	p.Promise.Reactions = nil
	if state == value.PromiseRejected && len(reactions) == 0 && !p.Promise.Handled && vm.rejectionTracker != nil {
		vm.rejectionTracker(v)
	}
	for _, r := range reactions {
		vm.scheduleReaction(p, r)
	}
}

func (vm *VM) addReaction(p *value.Object, r value.PromiseReaction) {
	p.Promise.Handled = true
	if p.Promise.State == value.PromisePending {
		p.Promise.Reactions = append(p.Promise.Reactions, r)
		return
	}
	vm.scheduleReaction(p, r)
}

func (vm *VM) scheduleReaction(p *value.Object, r value.PromiseReaction) {
	dispatcher := value.NewNativeFunction("", 0, func(value.NativeArgs) (value.Value, error) {
		cb := r.OnFulfilled
		settleAs := value.PromiseFulfilled
		if p.Promise.State == value.PromiseRejected {
			cb = r.OnRejected
			settleAs = value.PromiseRejected
		}
		if cb.Type() != value.Function {
			vm.settlePromise(r.Result, settleAs, p.Promise.Value)
			return value.Undefined_(), nil
		}
		res, err := vm.CallValue(cb, value.Undefined_(), []value.Value{p.Promise.Value}, nil)
		if err != nil {
			vm.settlePromise(r.Result, value.PromiseRejected, err.Value)
			return value.Undefined_(), nil
		}
		vm.settlePromise(r.Result, value.PromiseFulfilled, res)
		return value.Undefined_(), nil
	})
	dispatcher.Proto = vm.protos.Function
	vm.EnqueueJob(value.FromObject(value.Function, dispatcher), nil)
}

// promiseCombinator implements Promise.all (waitAll=true) and
// Promise.race (waitAll=false) over an array-like of promises/values.
func (vm *VM) promiseCombinator(iterable value.Value, waitAll bool) (value.Value, error) {
	items, err := vm.iterableToSlice(iterable)
	if err != nil {
		return value.Value{}, err
	}
	result := vm.newPromise()
	if len(items) == 0 {
		if waitAll {
			vm.settlePromise(result, value.PromiseFulfilled, value.FromObject(value.Array, value.NewFastArray(nil)))
		}
		return value.FromObject(value.Promise, result), nil
	}
	values := make([]value.Value, len(items))
	remaining := len(items)
	for i, item := range items {
		i := i
		onFulfilled := value.NewNativeFunction("", 1, func(a value.NativeArgs) (value.Value, error) {
			if !waitAll {
				vm.settlePromise(result, value.PromiseFulfilled, a.Arg(0))
				return value.Undefined_(), nil
			}
			values[i] = a.Arg(0)
			remaining--
			if remaining == 0 {
				vm.settlePromise(result, value.PromiseFulfilled, value.FromObject(value.Array, value.NewFastArray(values)))
			}
			return value.Undefined_(), nil
		})
		onFulfilled.Proto = vm.protos.Function
		onRejected := value.NewNativeFunction("", 1, func(a value.NativeArgs) (value.Value, error) {
			vm.settlePromise(result, value.PromiseRejected, a.Arg(0))
			return value.Undefined_(), nil
		})
		onRejected.Proto = vm.protos.Function

		if item.Type() == value.Promise {
			vm.addReaction(item.Obj(), value.PromiseReaction{
				OnFulfilled: value.FromObject(value.Function, onFulfilled),
				OnRejected:  value.FromObject(value.Function, onRejected),
				Result:      vm.newPromise(),
			})
		} else {
			vm.CallValue(value.FromObject(value.Function, onFulfilled), value.Undefined_(), []value.Value{item}, nil)
		}
	}
	return value.FromObject(value.Promise, result), nil
}

func (vm *VM) iterableToSlice(v value.Value) ([]value.Value, *Thrown) {
	if v.Type() != value.Array {
		return nil, vm.ThrowError(TypeError, "argument is not iterable")
	}
	return append([]value.Value(nil), v.Obj().Array.Values...), nil
}
