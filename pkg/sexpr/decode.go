package sexpr

import (
	"reflect"
	"strconv"
)

// Unmarshal parses text and stores the top-level record in v, returning the
// record's tag. v must be a non-nil pointer to a struct.
//
// Fields missing from the input leave the target untouched, so optional
// values should be pointers; an empty "()" also decodes to a nil pointer.
// A field tagged "required" that is missing is a *DecodeError. Fields
// present in the input but unknown to the target are ignored.
func Unmarshal(text string, v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return "", &DecodeError{Msg: "target must be a non-nil pointer"}
	}
	if rv.Elem().Kind() != reflect.Struct {
		return "", &DecodeError{Msg: "target must point to a struct, got " + rv.Elem().Type().String()}
	}

	doc, err := Parse(text)
	if err != nil {
		return "", err
	}

	if err := decodeStruct(doc.Body, rv.Elem(), ""); err != nil {
		return "", err
	}
	return doc.Tag, nil
}

// decodeStruct fills rv from the record n. An empty "()" is a record
// without fields.
func decodeStruct(n *Node, rv reflect.Value, path string) error {
	if n.Kind != KindRecord && !n.IsEmpty() {
		return &DecodeError{Field: path, Msg: "expected record, found atom " + strconv.Quote(n.Value)}
	}

	for _, fi := range structFields(rv.Type()) {
		child, ok := n.Lookup(fi.name)
		if !ok {
			if fi.required {
				return &DecodeError{Field: joinPath(path, fi.name), Msg: "missing required field"}
			}
			continue
		}
		if err := decodeValue(child, rv.Field(fi.index), joinPath(path, fi.name)); err != nil {
			return err
		}
	}
	return nil
}

func decodeValue(n *Node, rv reflect.Value, path string) error {
	if rv.Kind() == reflect.Pointer {
		// An empty "()" leaves an optional field absent.
		if n.IsEmpty() {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeValue(n, rv.Elem(), path)
	}

	if rv.Kind() == reflect.Struct {
		return decodeStruct(n, rv, path)
	}

	if n.Kind != KindAtom {
		return &DecodeError{Field: path, Msg: "expected value, found record"}
	}

	switch rv.Kind() {
	case reflect.String:
		rv.SetString(n.Value)
	case reflect.Bool:
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return &DecodeError{Field: path, Msg: "invalid boolean " + strconv.Quote(n.Value)}
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(n.Value, 10, rv.Type().Bits())
		if err != nil {
			return &DecodeError{Field: path, Msg: "invalid integer " + strconv.Quote(n.Value)}
		}
		rv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(n.Value, 10, rv.Type().Bits())
		if err != nil {
			return &DecodeError{Field: path, Msg: "invalid integer " + strconv.Quote(n.Value)}
		}
		rv.SetUint(u)
	default:
		return &DecodeError{Field: path, Msg: "unsupported type " + rv.Type().String()}
	}
	return nil
}

// Codec adapts Marshal and Unmarshal to a value that can be passed around as
// an encoder/decoder pair.
type Codec struct{}

// Encode implements the encoder half of a codec.
func (Codec) Encode(tag string, v any) (string, error) {
	return Marshal(tag, v)
}

// Decode implements the decoder half of a codec.
func (Codec) Decode(text string, v any) (string, error) {
	return Unmarshal(text, v)
}
