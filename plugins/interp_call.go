package plugins

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// exportedFunc checks that a symbol pulled out of an interpreted mod file is
// actually callable. Hook and manifest files are arbitrary user content, so
// every shape assumption is verified before reflect.Call can panic on it.
func exportedFunc(value reflect.Value, name string) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Value{}, fmt.Errorf("missing %s function", name)
	}
	if value.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%s is not a function", name)
	}
	return value, nil
}

// errorFromValue converts an interpreted function's return value into an
// error without assuming its kind is nilable.
func errorFromValue(v reflect.Value, name string) error {
	if !v.Type().Implements(errorType) {
		return fmt.Errorf("%s must return an error, not %s", name, v.Type())
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if v.IsNil() {
			return nil
		}
	}
	err, ok := v.Interface().(error)
	if !ok {
		return fmt.Errorf("%s returned a non-error value", name)
	}
	return err
}
