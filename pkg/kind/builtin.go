package kind

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/value"
)

// Built-in kind names.
const (
	NameSequence  = "sequence"
	NameMapping   = "mapping"
	NameCallable  = "callable"
	NameText      = "text"
	NameNumber    = "number"
	NameBoolean   = "boolean"
	NameTemporal  = "temporal"
	NamePattern   = "pattern"
	NameNull      = "null"
	NameUndefined = "undefined"
	NameOpaque    = "opaque"
	NameUUID      = "uuid"
)

// Builtins returns the built-in kinds in priority order.
// Each call returns fresh descriptors.
func Builtins() []Kind {
	return []Kind{
		Sequence,
		Mapping,
		Callable,
		Text,
		Number,
		Boolean,
		Temporal,
		Pattern,
		Null,
		Undefined,
		Opaque,
	}
}

// Sequence matches slices and arrays, except value.Object, which is a
// mapping.
var Sequence = Kind{
	Name: NameSequence,
	Check: func(v any) bool {
		if _, ok := v.(value.Object); ok {
			return false
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Slice, reflect.Array:
			return true
		}
		return false
	},
	Header: func(v any) string {
		return fmt.Sprintf("Sequence[%d]", reflect.ValueOf(v).Len())
	},
	Container: true,
	Children: func(v any) []value.Member {
		rv := reflect.ValueOf(v)
		members := make([]value.Member, rv.Len())
		for i := range members {
			members[i] = value.Member{Key: strconv.Itoa(i), Value: rv.Index(i).Interface()}
		}
		return members
	},
}

// opaqueStructs are struct types that belong to a later, non-container kind.
var opaqueStructs = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}):     true,
	reflect.TypeOf(regexp.Regexp{}): true,
	reflect.TypeOf(value.Undefined): true,
}

// Mapping matches maps, structs and value.Object.
// Structs claimed by temporal, pattern or undefined are left to those kinds.
var Mapping = Kind{
	Name: NameMapping,
	Check: func(v any) bool {
		if _, ok := v.(value.Object); ok {
			return true
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map:
			return true
		case reflect.Struct:
			return !opaqueStructs[rv.Type()]
		}
		return false
	},
	Header: func(any) string {
		return "Object"
	},
	Container: true,
	Children:  mappingChildren,
}

// mappingChildren lists own members only. For structs that means fields
// declared on the struct itself: an embedded field is one member and its
// promoted fields are not repeated. Map keys have no natural order in Go
// and are sorted by their formatted form.
func mappingChildren(v any) []value.Member {
	if o, ok := v.(value.Object); ok {
		return slices.Clone(o)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		members := make([]value.Member, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			members = append(members, value.Member{
				Key:   fmt.Sprint(iter.Key().Interface()),
				Value: iter.Value().Interface(),
			})
		}
		slices.SortStableFunc(members, func(a, b value.Member) int {
			return cmp.Compare(a.Key, b.Key)
		})
		return members

	case reflect.Struct:
		rt := rv.Type()
		members := make([]value.Member, 0, rt.NumField())
		for i := range rt.NumField() {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			members = append(members, value.Member{Key: f.Name, Value: rv.Field(i).Interface()})
		}
		return members
	}
	return nil
}

// Callable matches non-nil funcs. Funcs are never expanded.
var Callable = Kind{
	Name: NameCallable,
	Check: func(v any) bool {
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Func && !rv.IsNil()
	},
	Header: func(any) string {
		return "[function]"
	},
}

// Text matches strings other than json.Number. The header adds
// surrounding double quotes and leaves embedded quotes as they are.
var Text = Kind{
	Name: NameText,
	Check: func(v any) bool {
		if _, ok := v.(json.Number); ok {
			return false
		}
		return reflect.ValueOf(v).Kind() == reflect.String
	},
	Header: func(v any) string {
		return `"` + reflect.ValueOf(v).String() + `"`
	},
}

// Number matches every integer, float and complex type, and json.Number.
var Number = Kind{
	Name: NameNumber,
	Check: func(v any) bool {
		if _, ok := v.(json.Number); ok {
			return true
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
			reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
			return true
		}
		return false
	},
	Header: func(v any) string {
		return fmt.Sprint(v)
	},
}

// Boolean matches bools.
var Boolean = Kind{
	Name: NameBoolean,
	Check: func(v any) bool {
		return reflect.ValueOf(v).Kind() == reflect.Bool
	},
	Header: func(v any) string {
		return strconv.FormatBool(reflect.ValueOf(v).Bool())
	},
}

// Temporal matches time.Time.
var Temporal = Kind{
	Name: NameTemporal,
	Check: func(v any) bool {
		_, ok := v.(time.Time)
		return ok
	},
	Header: func(v any) string {
		return v.(time.Time).String()
	},
}

// Pattern matches compiled regular expressions.
var Pattern = Kind{
	Name: NamePattern,
	Check: func(v any) bool {
		switch re := v.(type) {
		case regexp.Regexp:
			return true
		case *regexp.Regexp:
			return re != nil
		}
		return false
	},
	Header: func(v any) string {
		switch re := v.(type) {
		case regexp.Regexp:
			return re.String()
		case *regexp.Regexp:
			return re.String()
		}
		return ""
	},
}

// Null matches nil and nil references.
var Null = Kind{
	Name: NameNull,
	Check: func(v any) bool {
		if v == nil {
			return true
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan,
			reflect.Map, reflect.Slice, reflect.UnsafePointer:
			return rv.IsNil()
		}
		return false
	},
	Header: func(any) string {
		return "null"
	},
}

// Undefined matches the value.Undefined sentinel.
var Undefined = Kind{
	Name:  NameUndefined,
	Check: value.IsUndefined,
	Header: func(any) string {
		return "undefined"
	},
}

// Opaque matches the remaining Go values that have no inspectable
// structure: non-nil channels and unsafe pointers.
var Opaque = Kind{
	Name: NameOpaque,
	Check: func(v any) bool {
		switch reflect.ValueOf(v).Kind() {
		case reflect.Chan, reflect.UnsafePointer:
			return true
		}
		return false
	},
	Header: func(v any) string {
		return fmt.Sprintf("%T", v)
	},
}

// UUID renders uuid.UUID values in canonical form instead of as a
// 16-element sequence. It is not a built-in; insert it before sequence.
var UUID = Kind{
	Name: NameUUID,
	Check: func(v any) bool {
		_, ok := v.(uuid.UUID)
		return ok
	},
	Header: func(v any) string {
		return v.(uuid.UUID).String()
	},
}
