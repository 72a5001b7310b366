package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/vardump/pkg/dump"
)

// DOT converts the visible part of tree to Graphviz DOT. Each visible node
// becomes a box labelled with its line; containers are drawn bold and an
// expanded empty container points at a dashed "empty" box.
func DOT(tree *dump.Tree) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=12];\n")
	buf.WriteString("\n")

	var edges []string
	for _, r := range tree.Rows() {
		if r.Placeholder {
			id := fmt.Sprintf("n%d_empty", r.Node.ID)
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", fontcolor=grey];\n", id, r.Line.Header)
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", nodeID(r.Node), id))
			continue
		}

		attrs := fmt.Sprintf("label=%q", r.Line.String())
		if r.Node.IsContainer() {
			attrs += ", penwidth=2"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(r.Node), attrs)
		if p := r.Node.Parent(); p != nil {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", nodeID(p), nodeID(r.Node)))
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n *dump.Node) string {
	return fmt.Sprintf("n%d", n.ID)
}

// SVG renders the DOT form of tree to SVG using Graphviz.
func SVG(ctx context.Context, tree *dump.Tree) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(DOT(tree)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
