// Package value defines the value shapes vardump understands beyond Go's
// built-in types.
//
// Go has a single nil, while the dump tree distinguishes an explicit
// "no value" from an "unset" one. [Undefined] is the sentinel for the
// latter; nil keeps meaning the former.
//
// Go maps do not remember insertion order. Decoders that want a document's
// key order preserved produce an [Object] instead of a map.
package value

import "reflect"

// undefined is the type of the Undefined sentinel.
type undefined struct{}

// String returns "undefined".
func (undefined) String() string { return "undefined" }

// Undefined marks a value that was never set, as opposed to nil.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Member is one keyed entry of a container.
type Member struct {
	Key   string
	Value any
}

// Object is a mapping that keeps its members in insertion order.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// maxIndirections bounds pointer chasing for self-referential pointer types.
const maxIndirections = 64

// Indirect follows non-nil pointers and interfaces and returns the value
// they refer to. A nil pointer is returned unchanged, so it still carries
// its static type.
func Indirect(v any) any {
	rv := reflect.ValueOf(v)
	for range maxIndirections {
		if !rv.IsValid() {
			return nil
		}
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return v
			}
			rv = rv.Elem()
			if !rv.CanInterface() {
				return v
			}
			v = rv.Interface()
		default:
			return v
		}
	}
	return v
}
