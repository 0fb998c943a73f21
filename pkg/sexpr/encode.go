package sexpr

import (
	"reflect"
	"strconv"
	"strings"
)

// Marshal encodes v as a document labelled with tag.
//
// v must be a struct or a pointer to one. Exported fields are written in
// declaration order under the name given by their `sexpr` tag, or the Go
// field name when untagged. A tag of "-" skips the field and the
// "omitempty" option skips zero values. Nil pointers are always omitted,
// which is how optional fields are expressed. The "required" option only
// affects decoding.
func Marshal(tag string, v any) (string, error) {
	if tag == "" || needsQuoting(tag) {
		return "", &EncodeError{Field: "<tag>", Type: reflect.TypeOf(tag)}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", &EncodeError{Type: rv.Type()}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", &EncodeError{Type: rv.Type()}
	}

	body, err := encodeStruct(rv, "")
	if err != nil {
		return "", err
	}

	doc := &Document{Tag: tag, Body: body}
	return doc.String(), nil
}

func encodeStruct(rv reflect.Value, path string) (*Node, error) {
	rec := Record()
	for _, fi := range structFields(rv.Type()) {
		fv := rv.Field(fi.index)
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		if fi.omitEmpty && fv.IsZero() {
			continue
		}

		n, err := encodeValue(fv, joinPath(path, fi.name))
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, Field{Name: fi.name, Value: n})
	}
	return rec, nil
}

func encodeValue(rv reflect.Value, path string) (*Node, error) {
	switch rv.Kind() {
	case reflect.Pointer:
		return encodeValue(rv.Elem(), path)
	case reflect.Struct:
		return encodeStruct(rv, path)
	case reflect.String:
		return Atom(rv.String()), nil
	case reflect.Bool:
		return Atom(strconv.FormatBool(rv.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Atom(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Atom(strconv.FormatUint(rv.Uint(), 10)), nil
	default:
		return nil, &EncodeError{Field: path, Type: rv.Type()}
	}
}

type fieldInfo struct {
	index     int
	name      string
	omitEmpty bool
	required  bool
}

func structFields(t reflect.Type) []fieldInfo {
	fields := make([]fieldInfo, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(sf.Tag.Get("sexpr"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		fi := fieldInfo{index: i, name: name}
		for opt := range strings.SplitSeq(opts, ",") {
			switch opt {
			case "omitempty":
				fi.omitEmpty = true
			case "required":
				fi.required = true
			}
		}
		fields = append(fields, fi)
	}
	return fields
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
