package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

func keysOf(t *testing.T, v any) []string {
	t.Helper()
	obj, ok := v.(value.Object)
	if !ok {
		t.Fatalf("decoded %T, want value.Object", v)
	}
	return obj.Keys()
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json", FormatJSON, `{"zeta": 1, "alpha": [1, 2], "mid": {"b": 1, "a": 2}}`},
		{"yaml", FormatYAML, "zeta: 1\nalpha:\n  - 1\n  - 2\nmid:\n  b: 1\n  a: 2\n"},
		{"toml", FormatTOML, "zeta = 1\nalpha = [1, 2]\n\n[mid]\nb = 1\na = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode([]byte(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, keysOf(t, v)); diff != "" {
				t.Errorf("top-level keys (-want +got):\n%s", diff)
			}

			obj := v.(value.Object)
			mid, _ := obj.Get("mid")
			if diff := cmp.Diff([]string{"b", "a"}, keysOf(t, mid)); diff != "" {
				t.Errorf("nested keys (-want +got):\n%s", diff)
			}

			alpha, _ := obj.Get("alpha")
			list, ok := alpha.([]any)
			if !ok || len(list) != 2 {
				t.Fatalf("alpha = %#v, want two-element list", alpha)
			}
			if got := fmt.Sprint(list...); got != "1 2" {
				t.Errorf("alpha = %s, want 1 2", got)
			}
		})
	}
}

func TestDecodeScalars(t *testing.T) {
	v, err := Decode([]byte(`{"s": "text", "b": true, "n": null, "f": 1.5}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	obj := v.(value.Object)

	if s, _ := obj.Get("s"); s != "text" {
		t.Errorf("s = %v, want text", s)
	}
	if b, _ := obj.Get("b"); b != true {
		t.Errorf("b = %v, want true", b)
	}
	if n, ok := obj.Get("n"); !ok || n != nil {
		t.Errorf("n = %v, %v, want nil, true", n, ok)
	}
	if f, _ := obj.Get("f"); f != 1.5 {
		t.Errorf("f = %v, want 1.5", f)
	}
}

func TestDecodeJSONNumbers(t *testing.T) {
	v, err := Decode([]byte(`{"int": -3, "uint": 18446744073709551615, "float": 2.5e3, "big": 12345678901234567890123}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	want := value.Object{
		{Key: "int", Value: int64(-3)},
		{Key: "uint", Value: uint64(18446744073709551615)},
		{Key: "float", Value: 2500.0},
		{Key: "big", Value: json.Number("12345678901234567890123")},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSONDuplicateKeys(t *testing.T) {
	v, err := Decode([]byte(`{"a": 1, "b": 2, "a": {"c": 3}}`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := value.Object{
		{Key: "a", Value: value.Object{{Key: "c", Value: int64(3)}}},
		{Key: "b", Value: int64(2)},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTOMLArrayOfTables(t *testing.T) {
	input := "[[item]]\nname = \"a\"\nqty = 1\n\n[[item]]\nname = \"b\"\nqty = 2\n"
	v, err := Decode([]byte(input), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := v.(value.Object).Get("item")
	list, ok := items.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("item = %#v, want two tables", items)
	}
	if diff := cmp.Diff([]string{"name", "qty"}, keysOf(t, list[1])); diff != "" {
		t.Errorf("table keys (-want +got):\n%s", diff)
	}
}

func TestDecodeTOMLQuotedKeysKeepOrder(t *testing.T) {
	input := "[[arr]]\nk = 3\n\"d.e\" = 1\nb = 2\n\n[\"x.y\"]\nz = 1\n\"a b\" = 2\n"
	v, err := Decode([]byte(input), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	obj := v.(value.Object)
	if diff := cmp.Diff([]string{"arr", "x.y"}, obj.Keys()); diff != "" {
		t.Errorf("top-level keys (-want +got):\n%s", diff)
	}

	arr, _ := obj.Get("arr")
	if diff := cmp.Diff([]string{"k", "d.e", "b"}, keysOf(t, arr.([]any)[0])); diff != "" {
		t.Errorf("array table keys (-want +got):\n%s", diff)
	}
	xy, _ := obj.Get("x.y")
	if diff := cmp.Diff([]string{"z", "a b"}, keysOf(t, xy)); diff != "" {
		t.Errorf("quoted table keys (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		code   errors.Code
	}{
		{"empty json", "  \n", FormatJSON, errors.ErrCodeInvalidInput},
		{"truncated json", `{"a": `, FormatJSON, errors.ErrCodeInvalidInput},
		{"trailing json", `{} {}`, FormatJSON, errors.ErrCodeInvalidInput},
		{"bad json key", `{1: 2}`, FormatJSON, errors.ErrCodeInvalidInput},
		{"bad yaml", "a: [1, 2", FormatYAML, errors.ErrCodeInvalidInput},
		{"bad toml", "a = ", FormatTOML, errors.ErrCodeInvalidInput},
		{"unknown format", "{}", Format("xml"), errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"data.json", FormatJSON, false},
		{"conf/app.YAML", FormatYAML, false},
		{"x.yml", FormatYAML, false},
		{"Cargo.toml", FormatTOML, false},
		{"notes.txt", "", true},
		{"Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	if err := os.WriteFile(path, []byte("b: 1\na: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, keysOf(t, v)); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"), "")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestQuery(t *testing.T) {
	doc, err := Decode([]byte(`{"users": [{"name": "ada"}, {"name": "bob"}], "count": 2}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{"", ""},
		{"users[0].name", "ada"},
		{"doc.users[1].name", "bob"},
		{"len(users)", "2"},
		{`map(users, .name)`, "[ada bob]"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Query(doc, tt.expr)
			if err != nil {
				t.Fatalf("Query(%q) error = %v", tt.expr, err)
			}
			if tt.expr == "" {
				if _, ok := got.(value.Object); !ok {
					t.Errorf("empty query returned %T, want the document", got)
				}
				return
			}
			if s := fmt.Sprint(got); s != tt.want {
				t.Errorf("Query(%q) = %s, want %s", tt.expr, s, tt.want)
			}
		})
	}
}

func TestQueryInvalid(t *testing.T) {
	for _, q := range []string{"users[", "missing.field + 1"} {
		if _, err := Query(value.Object{{Key: "users", Value: []any{}}}, q); !errors.Is(err, errors.ErrCodeInvalidQuery) {
			t.Errorf("Query(%q) error = %v, want %s", q, err, errors.ErrCodeInvalidQuery)
		}
	}
}
