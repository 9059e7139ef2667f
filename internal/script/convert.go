package script

import (
	"fmt"

	"go.starlark.net/starlark"
)

// fromStarlark converts a script value to a plain Go value. Only None,
// bools, numbers, strings and lists or tuples of those cross.
func fromStarlark(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return float64(v.Float()), nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case *starlark.List:
		return fromIterable(v, v.Len())
	case starlark.Tuple:
		return fromIterable(v, v.Len())
	}
	return nil, fmt.Errorf("%w: %s", ErrValue, v.Type())
}

func fromIterable(it starlark.Indexable, n int) ([]any, error) {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := fromStarlark(it.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toStarlark(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case string:
		return starlark.String(v), nil
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrValue, v)
}
