package kv

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// normalizeMetadata returns the JSON round-trip of v as a plain tree of
// nil, bool, float64, string, []any and map[string]any.
//
// Values JSON cannot carry are handled the way a JSON serializer does:
// NaN and infinities become null, funcs, chans and complex numbers are
// dropped from objects and become null in arrays, and a reference back
// to an enclosing value is cut to null.
func normalizeMetadata(v any) any {
	if v == nil {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		clean, _ := sanitize(reflect.ValueOf(v), make(map[uintptr]bool))
		if b, err = json.Marshal(clean); err != nil {
			return nil
		}
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// sanitize rewrites v into something encoding/json accepts. The bool is
// false when v has no JSON form and should be omitted by its container.
// seen holds the maps, slices and pointers on the current path.
func sanitize(v reflect.Value, seen map[uintptr]bool) (any, bool) {
	if !v.IsValid() {
		return nil, true
	}

	if v.Type().Implements(marshalerType) && v.CanInterface() {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, true
		}
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, true
		}
		return json.RawMessage(b), true
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, true
		}
		return sanitize(v.Elem(), seen)

	case reflect.Pointer:
		if v.IsNil() {
			return nil, true
		}
		if !enter(v.Pointer(), seen) {
			return nil, true
		}
		defer delete(seen, v.Pointer())
		return sanitize(v.Elem(), seen)

	case reflect.Map:
		if v.IsNil() {
			return nil, true
		}
		if !enter(v.Pointer(), seen) {
			return nil, true
		}
		defer delete(seen, v.Pointer())

		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			if val, ok := sanitize(iter.Value(), seen); ok {
				out[mapKey(iter.Key())] = val
			}
		}
		return out, true

	case reflect.Slice:
		if v.IsNil() {
			return nil, true
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), true
		}
		if v.Len() > 0 {
			if !enter(v.Pointer(), seen) {
				return nil, true
			}
			defer delete(seen, v.Pointer())
		}
		return sanitizeList(v, seen), true

	case reflect.Array:
		return sanitizeList(v, seen), true

	case reflect.Struct:
		return sanitizeStruct(v, seen), true

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true
		}
		if v.Kind() == reflect.Float32 {
			// keep the shortest float32 spelling, as the encoder does
			f, _ = strconv.ParseFloat(strconv.FormatFloat(f, 'g', -1, 32), 64)
		}
		return f, true

	case reflect.Bool:
		return v.Bool(), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true

	case reflect.String:
		return v.String(), true

	default:
		// funcs, chans, complex numbers and unsafe pointers
		return nil, false
	}
}

func sanitizeList(v reflect.Value, seen map[uintptr]bool) []any {
	out := make([]any, v.Len())
	for i := range out {
		// unrepresentable elements keep their slot as null
		out[i], _ = sanitize(v.Index(i), seen)
	}
	return out
}

// sanitizeStruct follows the encoder's field rules: exported fields only,
// tag names and options honoured, and fields of embedded structs promoted
// into the parent unless a shallower field already has that name.
func sanitizeStruct(v reflect.Value, seen map[uintptr]bool) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	var promoted []map[string]any

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := parseTag(field)
		if tag.skip {
			continue
		}
		fv := v.Field(i)

		if field.Anonymous && tag.name == "" && isStructType(field.Type) {
			if inner, ok := sanitize(fv, seen); ok {
				if m, isMap := inner.(map[string]any); isMap {
					promoted = append(promoted, m)
					continue
				}
				if inner == nil {
					// nil embedded pointer or a cycle contributes nothing
					continue
				}
				if field.IsExported() {
					out[field.Name] = inner
				}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		name := tag.name
		if name == "" {
			name = field.Name
		}
		if tag.omitEmpty && isEmptyValue(fv) {
			continue
		}
		val, ok := sanitize(fv, seen)
		if !ok {
			continue
		}
		if tag.quoted {
			val = quoteScalar(fv.Type(), val)
		}
		out[name] = val
	}

	for _, m := range promoted {
		for k, val := range m {
			if _, taken := out[k]; !taken {
				out[k] = val
			}
		}
	}
	return out
}

type fieldTag struct {
	name      string
	omitEmpty bool
	quoted    bool
	skip      bool
}

func parseTag(field reflect.StructField) fieldTag {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return fieldTag{skip: true}
	}
	name, opts, _ := strings.Cut(tag, ",")
	ft := fieldTag{name: name}
	for _, opt := range strings.Split(opts, ",") {
		switch opt {
		case "omitempty":
			ft.omitEmpty = true
		case "string":
			ft.quoted = true
		}
	}
	return ft
}

func isStructType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// isEmptyValue mirrors the omitempty test: structs are never empty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// quoteScalar applies the ",string" option: scalars are written as the
// JSON text of their value, wrapped in a string.
func quoteScalar(t reflect.Type, val any) any {
	if val == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		b, err := json.Marshal(val)
		if err != nil {
			return val
		}
		return string(b)
	}
	return val
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return ""
}

// enter marks p as on the current path. It reports false if p is already
// there, which means the value refers back to one of its ancestors.
func enter(p uintptr, seen map[uintptr]bool) bool {
	if seen[p] {
		return false
	}
	seen[p] = true
	return true
}
