// Package assert panics on constructor misuse that no caller can recover
// from.
package assert

import (
	"fmt"
	"reflect"
)

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil panics if value is nil, including a nil pointer inside an interface.
func NotNil(value any, name string) {
	if isNil(value) {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
}

// Digits panics unless value is a non-empty run of ASCII digits, the shape
// of every EAMS id.
func Digits(value string, name string) {
	if value == "" {
		panic(fmt.Sprintf("%s must not be empty", name))
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			panic(fmt.Sprintf("%s must only contain digits, got %q", name, value))
		}
	}
}
