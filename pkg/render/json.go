package render

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/vardump/pkg/dump"
)

type jsonOutput struct {
	Tree string   `json:"tree"`
	Root jsonNode `json:"root"`
}

type jsonNode struct {
	ID        int        `json:"id"`
	Key       string     `json:"key,omitempty"`
	Kind      string     `json:"kind"`
	Header    string     `json:"header"`
	Container bool       `json:"container,omitempty"`
	Expanded  bool       `json:"expanded,omitempty"`
	Empty     bool       `json:"empty,omitempty"`
	Children  []jsonNode `json:"children,omitempty"`
}

// JSON writes the visible part of tree as indented JSON. Children appear
// only under expanded containers; an expanded container without children
// is marked empty.
func JSON(w io.Writer, tree *dump.Tree) error {
	out := jsonOutput{Tree: tree.ID.String(), Root: toJSONNode(tree.Root)}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toJSONNode(n *dump.Node) jsonNode {
	line := n.Line()
	jn := jsonNode{
		ID:        n.ID,
		Key:       line.Key,
		Kind:      line.Kind,
		Header:    line.Header,
		Container: n.IsContainer(),
		Expanded:  n.Expanded(),
	}
	if !n.Expanded() {
		return jn
	}

	children := n.Children()
	jn.Empty = len(children) == 0
	for _, c := range children {
		jn.Children = append(jn.Children, toJSONNode(c))
	}
	return jn
}
