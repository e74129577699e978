// Object.defineProperty's ValidateAndApplyPropertyDescriptor (spec
// §4.4), grounded on original_source/njs/src/njs_object_property.c's
// njs_define_property step ordering: read the partial descriptor off a
// plain user object, reject a data/accessor mix, merge unset attributes
// against any existing property (defaulting to false/undefined when
// there is none), and enforce the standard non-configurable guards.
package vm

import (
	"github.com/nginx/njs-go/internal/atom"
	"github.com/nginx/njs-go/internal/value"
)

// defineProperty implements Object.defineProperty/defineProperties'
// shared body (spec §4.4).
func (vm *VM) defineProperty(obj *value.Object, id atom.ID, key value.Value, desc *value.Object) *Thrown {
	if obj.FastArray {
		// Defining any descriptor directly on an index or on "length"
		// needs per-property attributes a flat Values vector cannot
		// carry, so the array demotes first (spec §4.4 "Fast-array
		// promotion").
		if _, ok := arrayIndexOf(key); ok || id == vm.atom("length") {
			vm.demoteFastArray(obj)
		}
	}

	hasValue, hasWritable, hasGet, hasSet, hasEnumerable, hasConfigurable := false, false, false, false, false, false
	var val value.Value
	var writable, enumerable, configurable bool
	var getter, setter *value.Object

	if p, ok := desc.Hash.Get(vm.atom("value")); ok {
		hasValue = true
		val = p.Value
	}
	if p, ok := desc.Hash.Get(vm.atom("writable")); ok {
		hasWritable = true
		writable = ToBoolean(p.Value)
	}
	if p, ok := desc.Hash.Get(vm.atom("get")); ok {
		hasGet = true
		if p.Value.Type() == value.Function {
			getter = p.Value.Obj()
		}
	}
	if p, ok := desc.Hash.Get(vm.atom("set")); ok {
		hasSet = true
		if p.Value.Type() == value.Function {
			setter = p.Value.Obj()
		}
	}
	if p, ok := desc.Hash.Get(vm.atom("enumerable")); ok {
		hasEnumerable = true
		enumerable = ToBoolean(p.Value)
	}
	if p, ok := desc.Hash.Get(vm.atom("configurable")); ok {
		hasConfigurable = true
		configurable = ToBoolean(p.Value)
	}
	if (hasValue || hasWritable) && (hasGet || hasSet) {
		return vm.ThrowError(TypeError, "Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}

	obj.PrivateCopy()
	existing, exists := obj.Hash.GetWithWhiteout(id)
	isWhiteout := exists && existing.Kind == value.PropWhiteout
	if !exists || isWhiteout {
		if !obj.Extensible {
			return vm.ThrowError(TypeError, "Cannot define property, object is not extensible")
		}
		np := value.Property{NameAtom: id, Name: key, Configurable: value.AttrFalse, Enumerable: value.AttrFalse}
		if hasGet || hasSet {
			np.Kind = value.PropAccessor
			np.Accessor = value.Accessor{Getter: getter, Setter: setter}
		} else {
			np.Kind = value.PropData
			np.Writable = value.AttrOf(hasWritable && writable)
			np.Value = val
		}
		np.Enumerable = value.AttrOf(hasEnumerable && enumerable)
		np.Configurable = value.AttrOf(hasConfigurable && configurable)
		obj.Hash.Put(np, false)
		return nil
	}

	if existing.Configurable == value.AttrFalse {
		if hasConfigurable && configurable {
			return vm.ThrowError(TypeError, "Cannot redefine property")
		}
		if hasEnumerable && enumerable != (existing.Enumerable == value.AttrTrue) {
			return vm.ThrowError(TypeError, "Cannot redefine property")
		}
		wasAccessor := existing.Kind == value.PropAccessor
		nowAccessor := hasGet || hasSet
		if (hasValue || hasWritable || hasGet || hasSet) && wasAccessor != nowAccessor && (hasValue || hasGet || hasSet) {
			return vm.ThrowError(TypeError, "Cannot redefine property")
		}
		if !wasAccessor && existing.Writable == value.AttrFalse {
			if hasWritable && writable {
				return vm.ThrowError(TypeError, "Cannot redefine property")
			}
			if hasValue && !value.Equal(val, existing.Value) {
				return vm.ThrowError(TypeError, "Cannot redefine property")
			}
		}
	}

	updated := *existing
	if hasGet || hasSet {
		updated.Kind = value.PropAccessor
		if hasGet {
			updated.Accessor.Getter = getter
		}
		if hasSet {
			updated.Accessor.Setter = setter
		}
	} else if hasValue {
		updated.Kind = value.PropData
		updated.Value = val
	}
	if hasWritable {
		updated.Writable = value.AttrOf(writable)
	}
	if hasEnumerable {
		updated.Enumerable = value.AttrOf(enumerable)
	}
	if hasConfigurable {
		updated.Configurable = value.AttrOf(configurable)
	}
	obj.Hash.Put(updated, false)
	return nil
}

// descriptorToObject builds the plain object Object.getOwnPropertyDescriptor
// returns for a live property.
func (vm *VM) descriptorToObject(p *value.Property) value.Value {
	o := value.NewObject(value.Object)
	o.Proto = vm.protos.Object
	o.Extensible = true
	if p.Kind == value.PropAccessor {
		getVal := value.Undefined_()
		if p.Accessor.Getter != nil {
			getVal = value.FromObject(value.Function, p.Accessor.Getter)
		}
		setVal := value.Undefined_()
		if p.Accessor.Setter != nil {
			setVal = value.FromObject(value.Function, p.Accessor.Setter)
		}
		vm.setOwn(o, "get", getVal, true, true, true)
		vm.setOwn(o, "set", setVal, true, true, true)
	} else {
		vm.setOwn(o, "value", p.Value, true, true, true)
		vm.setOwn(o, "writable", value.Bool(p.Writable == value.AttrTrue), true, true, true)
	}
	vm.setOwn(o, "enumerable", value.Bool(p.Enumerable == value.AttrTrue), true, true, true)
	vm.setOwn(o, "configurable", value.Bool(p.Configurable == value.AttrTrue), true, true, true)
	return value.FromObject(value.Object, o)
}
