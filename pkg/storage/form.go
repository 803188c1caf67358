package storage

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// encodeForm flattens a struct into form values for the API's
// application/x-www-form-urlencoded endpoints.
//
// The key is taken from the form tag, or the lowerCamel field name when the
// tag is absent. Slices are sent as repeated "key[]" entries and booleans as
// 1 or 0. The omitempty option skips zero values and nil pointers are always
// skipped.
func encodeForm(v any) url.Values {
	values := url.Values{}
	encodeFormInto(values, reflect.ValueOf(v))
	return values
}

func encodeFormInto(values url.Values, rv reflect.Value) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		fv := rv.Field(i)
		name, omitEmpty, skip := formKey(field)
		if skip {
			continue
		}

		// Embedded option structs contribute their own fields.
		if field.Anonymous && indirectType(field.Type).Kind() == reflect.Struct {
			encodeFormInto(values, fv)
			continue
		}

		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		} else if omitEmpty && fv.IsZero() {
			continue
		}

		switch fv.Kind() {
		case reflect.Slice, reflect.Array:
			for j := 0; j < fv.Len(); j++ {
				values.Add(name+"[]", formScalar(fv.Index(j)))
			}
		default:
			values.Set(name, formScalar(fv))
		}
	}
}

func formKey(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("form")
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strcase.ToLowerCamel(field.Name)
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func formScalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprint(v.Interface())
	}
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
