package value

import "testing"

func TestUndefinedIsNotNil(t *testing.T) {
	if Undefined == nil {
		t.Fatal("Undefined must not be nil")
	}
	if !IsUndefined(Undefined) {
		t.Error("IsUndefined(Undefined) = false, want true")
	}
	if IsUndefined(nil) {
		t.Error("IsUndefined(nil) = true, want false")
	}
}

func TestObject(t *testing.T) {
	o := Object{{Key: "b", Value: 1}, {Key: "a", Value: 2}}

	if got := o.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Keys() = %v, want [b a]", got)
	}

	v, ok := o.Get("a")
	if !ok || v != 2 {
		t.Errorf("Get(a) = %v, %v, want 2, true", v, ok)
	}
	if _, ok := o.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestIndirect(t *testing.T) {
	n := 42
	p := &n
	pp := &p

	if got := Indirect(pp); got != 42 {
		t.Errorf("Indirect(**int) = %v, want 42", got)
	}

	var nilPtr *int
	got := Indirect(nilPtr)
	if gp, ok := got.(*int); !ok || gp != nil {
		t.Errorf("Indirect(nil *int) = %#v, want typed nil", got)
	}

	if got := Indirect(nil); got != nil {
		t.Errorf("Indirect(nil) = %v, want nil", got)
	}

	if got := Indirect("text"); got != "text" {
		t.Errorf("Indirect(text) = %v, want text", got)
	}
}

type selfRef *selfRef

func TestIndirectStopsOnCycles(t *testing.T) {
	var s selfRef
	s = &s
	// Must terminate.
	_ = Indirect(s)
}
