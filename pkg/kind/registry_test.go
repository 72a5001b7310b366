package kind

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

func stringKind(name string) Kind {
	return Kind{
		Name:   name,
		Check:  func(v any) bool { _, ok := v.(string); return ok },
		Header: func(v any) string { return v.(string) },
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		code errors.Code
	}{
		{
			name: "empty name",
			kind: Kind{Check: Text.Check, Header: Text.Header},
			code: errors.ErrCodeInvalidKind,
		},
		{
			name: "missing check",
			kind: Kind{Name: "broken", Header: Text.Header},
			code: errors.ErrCodeInvalidKind,
		},
		{
			name: "missing header",
			kind: Kind{Name: "broken", Check: Text.Check},
			code: errors.ErrCodeInvalidKind,
		},
		{
			name: "container without children",
			kind: Kind{Name: "broken", Check: Sequence.Check, Header: Sequence.Header, Container: true},
			code: errors.ErrCodeInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := NewRegistry()
			err := reg.Register(tt.kind)
			if !errors.Is(err, tt.code) {
				t.Errorf("Register() error = %v, want code %v", err, tt.code)
			}
			if reg.Len() != 0 {
				t.Errorf("Len() = %d, want 0", reg.Len())
			}
		})
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	reg, err := NewRegistry(stringKind("text"))
	if err != nil {
		t.Fatal(err)
	}
	err = reg.Register(stringKind("text"))
	if !errors.Is(err, errors.ErrCodeDuplicateKind) {
		t.Errorf("Register() error = %v, want %v", err, errors.ErrCodeDuplicateKind)
	}
}

func TestNewRegistryFailsFast(t *testing.T) {
	_, err := NewRegistry(Sequence, Sequence)
	if !errors.Is(err, errors.ErrCodeDuplicateKind) {
		t.Errorf("NewRegistry() error = %v, want %v", err, errors.ErrCodeDuplicateKind)
	}
}

func TestRegistryOrderIsPriority(t *testing.T) {
	loud := Kind{
		Name:   "loud",
		Check:  func(v any) bool { _, ok := v.(string); return ok },
		Header: func(any) string { return "LOUD" },
	}

	reg, err := NewRegistry(loud, Text)
	if err != nil {
		t.Fatal(err)
	}
	k, err := reg.Classify("x")
	if err != nil {
		t.Fatal(err)
	}
	if k.Name != "loud" {
		t.Errorf("Classify() = %v, want loud (first registered match)", k.Name)
	}
}

func TestInsert(t *testing.T) {
	reg, err := NewRegistry(Sequence, Mapping)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Insert(NameMapping, Text); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	var names []string
	for _, k := range reg.All() {
		names = append(names, k.Name)
	}
	if len(names) != 3 || names[1] != NameText {
		t.Errorf("All() = %v, want text in position 1", names)
	}

	if err := reg.Insert("missing", Number); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Insert(missing) error = %v, want %v", err, errors.ErrCodeNotFound)
	}
}

func TestRegistrySealedAfterClassify(t *testing.T) {
	reg, err := NewRegistry(Builtins()...)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Sealed() {
		t.Fatal("new registry should not be sealed")
	}

	if _, err := reg.Classify(1); err != nil {
		t.Fatal(err)
	}
	if !reg.Sealed() {
		t.Fatal("registry should be sealed after Classify")
	}

	err = reg.Register(stringKind("late"))
	if !errors.Is(err, errors.ErrCodeRegistrySealed) {
		t.Errorf("Register() error = %v, want %v", err, errors.ErrCodeRegistrySealed)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	reg, _ := NewRegistry(Builtins()...)
	all := reg.All()
	all[0] = nil
	if reg.All()[0] == nil {
		t.Error("All() should return a copy")
	}
}

func TestLookup(t *testing.T) {
	k, ok := Default().Lookup(NameBoolean)
	if !ok || k.Name != NameBoolean {
		t.Errorf("Lookup(boolean) = %v, %v", k, ok)
	}
	if _, ok := Default().Lookup("nope"); ok {
		t.Error("Lookup(nope) should report false")
	}
}

func TestClassifyUnclassified(t *testing.T) {
	reg, err := NewRegistry(Text)
	if err != nil {
		t.Fatal(err)
	}

	_, err = reg.Classify(42)
	if err == nil {
		t.Fatal("Classify() should fail for values no kind matches")
	}

	var uerr *UnclassifiedValueError
	if !stderrors.As(err, &uerr) {
		t.Fatalf("error type = %T, want *UnclassifiedValueError", err)
	}
	if uerr.Type != "int" {
		t.Errorf("Type = %v, want int", uerr.Type)
	}
	if !errors.Is(err, errors.ErrCodeUnclassified) {
		t.Errorf("errors.Is(err, %v) = false", errors.ErrCodeUnclassified)
	}
}

func TestDefaultIsTotal(t *testing.T) {
	values := []any{
		nil, value.Undefined, 0, "", false, []int(nil), map[int]int(nil),
		struct{}{}, func() {}, make(chan struct{}), new(int), value.Object{},
		complex(1, 2), uintptr(3), [0]int{},
	}
	for _, v := range values {
		if _, err := Default().Classify(v); err != nil {
			t.Errorf("Classify(%#v) error = %v", v, err)
		}
	}
}
