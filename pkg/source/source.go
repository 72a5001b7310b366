// Package source decodes documents into values ready to dump.
//
// Supported formats are JSON, YAML and TOML. Decoded objects become
// [value.Object]s so that the tree lists keys in document order rather
// than in Go's random map order.
//
// JSON numbers become int64, uint64 or float64 when they fit, and stay
// json.Number otherwise so that large integers are shown exactly.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

// Format identifies a document format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want json, yaml or toml)", s)
}

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot detect format of %q: no extension", path)
	}
	return ParseFormat(ext)
}

// ReadFile reads and decodes the file at path, detecting the format from
// its extension unless format is non-empty.
func ReadFile(path string, format Format) (any, error) {
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	v, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Read decodes everything in r. It does not close r.
func Read(r io.Reader, format Format) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data, format)
}

// Decode decodes data in the given format.
func Decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data, format)
	case FormatTOML:
		return decodeTOML(data)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

func decodeYAML(data []byte, format Format) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty %s document", format)
	}

	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", format)
	}
	return fromYAML(v), nil
}

// fromYAML replaces the decoder's ordered maps with value.Object.
func fromYAML(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		obj := make(value.Object, len(x))
		for i, item := range x {
			obj[i] = value.Member{Key: fmt.Sprint(item.Key), Value: fromYAML(item.Value)}
		}
		return obj
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromYAML(e)
		}
		return out
	}
	return v
}
