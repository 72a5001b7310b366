package source

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/value"
)

// decodeTOML decodes a TOML document. The decoder returns plain maps, so
// key order is recovered from the metadata, which lists keys in the order
// they appear.
func decodeTOML(data []byte) (any, error) {
	var m map[string]any
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml")
	}

	rank := make(map[string]int)
	for i, k := range md.Keys() {
		path := k.String()
		if _, seen := rank[path]; !seen {
			rank[path] = i
		}
	}
	return fromTOML(m, nil, rank), nil
}

func fromTOML(v any, prefix toml.Key, rank map[string]int) any {
	switch x := v.(type) {
	case map[string]any:
		keys := slices.Collect(maps.Keys(x))
		slices.SortFunc(keys, func(a, b string) int {
			ra, oka := rank[join(prefix, a).String()]
			rb, okb := rank[join(prefix, b).String()]
			switch {
			case oka && okb:
				return cmp.Compare(ra, rb)
			case oka:
				return -1
			case okb:
				return 1
			}
			return strings.Compare(a, b)
		})
		obj := make(value.Object, len(keys))
		for i, k := range keys {
			obj[i] = value.Member{Key: k, Value: fromTOML(x[k], join(prefix, k), rank)}
		}
		return obj
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromTOML(e, prefix, rank)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromTOML(e, prefix, rank)
		}
		return out
	}
	return v
}

// join extends a metadata key path without sharing prefix's backing array.
func join(prefix toml.Key, key string) toml.Key {
	return slices.Concat(prefix, toml.Key{key})
}
