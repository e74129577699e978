// JSON.parse/JSON.stringify (spec §8.2 law "JSON.parse(JSON.stringify(v))
// ≅ v for JSON-compatible values"), grounded on
// original_source/njs/src/njs_json.c's recursive-descent parser/
// serializer pair, reimplemented directly over value.Value rather than
// routing through Go's encoding/json (which has no notion of the
// engine's own object/array value shapes).
package vm

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupJSONBuiltins() {
	j := value.NewObject(value.Object)
	j.Proto = vm.protos.Object
	j.Extensible = true

	vm.nativeMethod(j, "stringify", 3, func(a value.NativeArgs) (value.Value, error) {
		var b strings.Builder
		ok, err := vm.jsonStringify(&b, a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Undefined_(), nil
		}
		return value.FromString(value.NewStr(b.String())), nil
	})

	vm.nativeMethod(j, "parse", 2, func(a value.NativeArgs) (value.Value, error) {
		s, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		p := &jsonParser{vm: vm, src: s.Str().Bytes()}
		v, perr := p.parseValue()
		if perr != nil {
			return value.Value{}, perr
		}
		p.skipSpace()
		if p.pos != len(p.src) {
			return value.Value{}, vm.ThrowError(SyntaxError, "Unexpected token in JSON")
		}
		return v, nil
	})

	vm.setOwn(vm.Global, "JSON", value.FromObject(value.Object, j), true, false, true)
}

// jsonStringify writes v's JSON text to b and reports whether v has a
// JSON representation at all (functions/undefined/symbols do not, per
// ECMAScript JSON.stringify, and are simply omitted by their container
// or turn a bare top-level call into `undefined`).
func (vm *VM) jsonStringify(b *strings.Builder, v value.Value) (bool, *Thrown) {
	if v.IsObject() {
		if toJSON, err := vm.GetPropertyByName(v, "toJSON"); err == nil && toJSON.Type() == value.Function {
			r, cerr := vm.CallValue(toJSON, v, nil, nil)
			if cerr != nil {
				return false, cerr
			}
			v = r
		}
	}
	switch v.Type() {
	case value.Undefined, value.Function, value.Symbol:
		return false, nil
	case value.Null:
		b.WriteString("null")
		return true, nil
	case value.Boolean:
		if v.BoolValue() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case value.Number:
		n := v.NumberValue()
		if n != n || n > 1.7e308 || n < -1.7e308 {
			b.WriteString("null")
		} else {
			b.WriteString(value.NumberToString(n))
		}
		return true, nil
	case value.String:
		writeJSONString(b, v.Str().Bytes())
		return true, nil
	case value.Array, value.TypedArray:
		b.WriteByte('[')
		arr := v.Obj().Array
		for i := 0; i < arr.Length(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			var elem value.Value
			if arr.Values != nil {
				elem = arr.Values[i]
			} else {
				elem, _ = readTypedElement(arr, i)
			}
			ok, err := vm.jsonStringify(b, elem)
			if err != nil {
				return false, err
			}
			if !ok {
				b.WriteString("null")
			}
		}
		b.WriteByte(']')
		return true, nil
	default:
		if !v.IsObject() {
			return false, nil
		}
		b.WriteByte('{')
		first := true
		for _, k := range OwnKeys(v.Obj(), true) {
			if k.Type() == value.Symbol {
				continue
			}
			fv, err := vm.GetElem(v, k)
			if err != nil {
				return false, err
			}
			var sub strings.Builder
			ok, serr := vm.jsonStringify(&sub, fv)
			if serr != nil {
				return false, serr
			}
			if !ok {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			writeJSONString(b, ToStringNoThrow(k))
			b.WriteByte(':')
			b.WriteString(sub.String())
		}
		b.WriteByte('}')
		return true, nil
	}
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				b.WriteString(strings.Repeat("0", 4-len(strconv.FormatInt(int64(r), 16))))
				b.WriteString(strconv.FormatInt(int64(r), 16))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// jsonParser is a minimal recursive-descent JSON reader over a Go
// string, producing value.Value results directly (no intermediate
// encoding/json tree).
type jsonParser struct {
	vm  *VM
	src string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) fail(msg string) *Thrown {
	return p.vm.ThrowError(SyntaxError, "%s", msg)
}

func (p *jsonParser) parseValue() (value.Value, *Thrown) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return value.Value{}, p.fail("Unexpected end of JSON input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		return value.FromString(value.NewStr(s)), nil
	case c == 't':
		return p.literal("true", value.Bool(true))
	case c == 'f':
		return p.literal("false", value.Bool(false))
	case c == 'n':
		return p.literal("null", value.Null_())
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) literal(lit string, v value.Value) (value.Value, *Thrown) {
	if p.pos+len(lit) > len(p.src) || p.src[p.pos:p.pos+len(lit)] != lit {
		return value.Value{}, p.fail("Unexpected token in JSON")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (value.Value, *Thrown) {
	start := p.pos
	for p.pos < len(p.src) && strings.ContainsRune("+-0123456789.eE", rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return value.Value{}, p.fail("Unexpected token in JSON")
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return value.Value{}, p.fail("Unexpected number in JSON")
	}
	return value.Num(n), nil
}

func (p *jsonParser) parseString() (string, *Thrown) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				break
			}
			switch p.src[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.src) {
					return "", p.fail("Invalid \\u escape in JSON")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", p.fail("Invalid \\u escape in JSON")
				}
				r := rune(n)
				p.pos += 4
				if utf16.IsSurrogate(r) && p.pos+6 < len(p.src) && p.src[p.pos+1] == '\\' && p.src[p.pos+2] == 'u' {
					n2, err2 := strconv.ParseUint(p.src[p.pos+3:p.pos+7], 16, 32)
					if err2 == nil {
						r2 := utf16.DecodeRune(r, rune(n2))
						if r2 != '�' {
							b.WriteRune(r2)
							p.pos += 6
							p.pos++
							continue
						}
					}
				}
				b.WriteRune(r)
			default:
				return "", p.fail("Invalid escape in JSON")
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.fail("Unterminated string in JSON")
}

func (p *jsonParser) parseArray() (value.Value, *Thrown) {
	p.pos++ // [
	var items []value.Value
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return value.FromObject(value.Array, value.NewFastArray(nil)), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return value.Value{}, p.fail("Unexpected end of JSON input")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == ']' {
			p.pos++
			break
		}
		return value.Value{}, p.fail("Unexpected token in JSON")
	}
	return value.FromObject(value.Array, value.NewFastArray(items)), nil
}

func (p *jsonParser) parseObject() (value.Value, *Thrown) {
	p.pos++ // {
	o := value.NewObject(value.Object)
	o.Proto = p.vm.protos.Object
	o.Extensible = true
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return value.FromObject(value.Object, o), nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return value.Value{}, p.fail("Expected property name in JSON")
		}
		key, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return value.Value{}, p.fail("Expected ':' in JSON")
		}
		p.pos++
		v, verr := p.parseValue()
		if verr != nil {
			return value.Value{}, verr
		}
		p.vm.setOwn(o, key, v, true, true, true)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return value.Value{}, p.fail("Unexpected end of JSON input")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == '}' {
			p.pos++
			break
		}
		return value.Value{}, p.fail("Unexpected token in JSON")
	}
	return value.FromObject(value.Object, o), nil
}
