package review

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// number converts Go numeric values, including named numeric types.
// Booleans are not numbers here.
func number(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// elements splits a summary source into its items. single is true when v is
// one value rather than a collection. Any slice or array is a collection, as
// is any func with the shape of an iter.Seq. A []Bucket is one histogram.
func elements(v any) (items []any, single bool, err error) {
	switch s := v.(type) {
	case nil:
		return nil, false, fmt.Errorf("%w: nil source", ErrType)
	case []any:
		return s, false, nil
	case []Bucket:
		return nil, true, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, false, nil
	case reflect.Func:
		if !isSeq(rv.Type()) {
			break
		}
		if rv.IsNil() {
			return nil, false, fmt.Errorf("%w: nil iterator", ErrType)
		}
		return drain(rv), false, nil
	}
	return nil, true, nil
}

var boolType = reflect.TypeFor[bool]()

// isSeq reports whether t looks like func(yield func(E) bool).
func isSeq(t reflect.Type) bool {
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	y := t.In(0)
	return y.Kind() == reflect.Func && y.NumIn() == 1 && y.NumOut() == 1 && y.Out(0) == boolType
}

func drain(seq reflect.Value) []any {
	var out []any
	yield := reflect.MakeFunc(seq.Type().In(0), func(args []reflect.Value) []reflect.Value {
		out = append(out, args[0].Interface())
		return []reflect.Value{reflect.ValueOf(true)}
	})
	seq.Call([]reflect.Value{yield})
	return out
}
