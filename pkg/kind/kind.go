// Package kind classifies arbitrary Go values into display kinds.
//
// A [Kind] is a descriptor with a membership predicate and a header
// renderer. Container kinds (sequence, mapping) also enumerate their
// children. Kinds live in an ordered [Registry]; registration order is the
// classification priority, and the first kind whose predicate matches a
// value wins.
//
// # Built-in Kinds
//
// [Builtins] returns, in priority order:
//
//	sequence   slices and arrays              Sequence[3]
//	mapping    maps, structs, value.Object    Object
//	callable   non-nil funcs                  [function]
//	text       strings                        "hello"
//	number     numbers and json.Number        42
//	boolean    bools                          true
//	temporal   time.Time                      2024-01-02 03:04:05 +0000 UTC
//	pattern    regexp.Regexp                  ^a+$
//	null       nil and nil references         null
//	undefined  value.Undefined                undefined
//	opaque     channels, unsafe pointers      chan int
//
// Together they cover every Go value, so classification through
// [Default] never fails. Custom registries may be partial; classifying a
// value they do not cover returns an [*UnclassifiedValueError].
//
// # Extending
//
// Kinds can be added until the registry is first used for classification:
//
//	reg := kind.Default()
//	err := reg.Insert("sequence", kind.UUID)
package kind

import (
	"fmt"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

// Kind describes one category of values.
//
// Check, Header and Children receive values already passed through
// [value.Indirect], so they never see a non-nil pointer.
type Kind struct {
	// Name uniquely identifies the kind within a registry.
	Name string

	// Check reports whether v belongs to this kind.
	Check func(v any) bool

	// Header renders v as a single line.
	Header func(v any) string

	// Container marks kinds whose values have children.
	Container bool

	// Children enumerates v's members in display order.
	// Required when Container is set, ignored otherwise.
	Children func(v any) []value.Member
}

// String returns the kind name.
func (k *Kind) String() string {
	return k.Name
}

// validate checks a descriptor before registration.
func (k Kind) validate() error {
	if err := errors.ValidateKindName(k.Name); err != nil {
		return err
	}
	if k.Check == nil {
		return errors.New(errors.ErrCodeInvalidKind, "kind %q has no check function", k.Name)
	}
	if k.Header == nil {
		return errors.New(errors.ErrCodeInvalidKind, "kind %q has no header function", k.Name)
	}
	if k.Container && k.Children == nil {
		return errors.New(errors.ErrCodeInvalidKind, "container kind %q has no children function", k.Name)
	}
	return nil
}

// UnclassifiedValueError is returned when no registered kind matches a value.
type UnclassifiedValueError struct {
	// Type is the dynamic Go type of the rejected value.
	Type string
}

// Error implements the error interface.
func (e *UnclassifiedValueError) Error() string {
	return fmt.Sprintf("%s: no registered kind matches value of type %s", errors.ErrCodeUnclassified, e.Type)
}

// Code returns the error code for this error type.
func (e *UnclassifiedValueError) Code() errors.Code {
	return errors.ErrCodeUnclassified
}
