package model

import (
	"encoding/json"
	"strconv"
)

// Lookup walks a decoded JSON tree. A string step indexes an object and an
// int step indexes an array. Any shape mismatch yields (nil, false).
func Lookup(v any, path ...any) (any, bool) {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			next, ok := obj[key]
			if !ok {
				return nil, false
			}
			cur = next

		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil, false
			}
			cur = arr[key]

		default:
			return nil, false
		}
	}
	return cur, true
}

// LookupString returns the value at path as a string. Numbers are formatted
// in their decimal form; empty strings and other types are "not found".
func LookupString(v any, path ...any) (string, bool) {
	found, ok := Lookup(v, path...)
	if !ok {
		return "", false
	}

	switch val := found.(type) {
	case string:
		return val, val != ""
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}
