package dump

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/kind"
	"github.com/matzehuels/vardump/pkg/observability"
)

// Separator sits between a node's key and its header.
const Separator = ": "

// Placeholder is the text shown for an expanded container with no children.
const Placeholder = "empty"

// Tree is a rendered value: a root node plus an index of every node built
// so far.
type Tree struct {
	// ID identifies the tree across surfaces, e.g. in HTML element ids.
	ID uuid.UUID

	// Root is the node for the dumped value.
	Root *Node

	dumper *Dumper
	nodes  []*Node
}

// adopt assigns n the next node ID.
func (t *Tree) adopt(n *Node) {
	n.ID = len(t.nodes)
	t.nodes = append(t.nodes, n)
}

// Node returns the node with the given ID, if it has been built.
func (t *Tree) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(t.nodes) {
		return nil, false
	}
	return t.nodes[id], true
}

// Len returns the number of nodes built so far.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Rows returns the visible rows of the tree, depth-first.
func (t *Tree) Rows() []Row {
	return t.Root.Rows()
}

// Node is one inspectable unit of a tree, bound to one classified value.
type Node struct {
	// ID is unique within the tree. The root is 0.
	ID int

	// Key labels the node within its parent. Empty for the root.
	Key string

	// Depth is 0 for the root.
	Depth int

	// Kind is resolved once, when the node is created.
	Kind *kind.Kind

	tree     *Tree
	parent   *Node
	value    any
	expanded bool
	built    bool
	children []*Node
}

// Value returns the inspected value.
func (n *Node) Value() any { return n.value }

// Parent returns the containing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// IsRoot reports whether n is its tree's root.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsContainer reports whether n's kind has children.
func (n *Node) IsContainer() bool { return n.Kind.Container }

// Expanded reports whether n's children are visible.
func (n *Node) Expanded() bool { return n.expanded }

// Built reports whether n's children have been computed.
func (n *Node) Built() bool { return n.built }

// Children returns the cached children. It is nil until the first Expand.
func (n *Node) Children() []*Node { return n.children }

// Path returns the keys from the root down to n.
func (n *Node) Path() []string {
	var keys []string
	for p := n; p != nil && !p.IsRoot(); p = p.parent {
		keys = append(keys, p.Key)
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// Expand shows n's children, building them on the first call.
// Children are classified but not expanded themselves. Expand is a no-op
// for non-containers. If a child cannot be classified, n stays collapsed
// and nothing is cached, so a later Expand retries.
func (n *Node) Expand() error {
	if !n.IsContainer() {
		return nil
	}
	if !n.built {
		if err := n.build(); err != nil {
			return err
		}
	}
	n.expanded = true
	return nil
}

// Collapse hides n's children. The cache is kept.
func (n *Node) Collapse() {
	n.expanded = false
}

// Toggle flips n between collapsed and expanded.
// It is the activation handler surfaces call for container rows.
func (n *Node) Toggle() error {
	if n.expanded {
		n.Collapse()
		return nil
	}
	return n.Expand()
}

// ExpandTo expands n and its descendant containers down to maxDepth levels
// below n. Cyclic values stay finite because expansion stops at maxDepth.
func (n *Node) ExpandTo(maxDepth int) error {
	if maxDepth <= 0 || !n.IsContainer() {
		return nil
	}
	if err := n.Expand(); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.ExpandTo(maxDepth - 1); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) build() error {
	start := time.Now()
	d := n.tree.dumper

	members := n.Kind.Children(n.value)
	children := make([]*Node, 0, len(members))
	for _, m := range members {
		c, err := d.newNode(n.tree, n, m.Key, m.Value)
		if err != nil {
			return fmt.Errorf("expand %s: %w", n.describe(), err)
		}
		children = append(children, c)
	}
	for _, c := range children {
		n.tree.adopt(c)
	}

	n.children = children
	n.built = true

	elapsed := time.Since(start)
	observability.Dump().OnExpand(n.Kind.Name, len(children), elapsed)
	d.logger.Debug("expanded node", "tree", n.tree.ID, "node", n.ID, "kind", n.Kind.Name, "children", len(children))
	return nil
}

// describe names n in error messages.
func (n *Node) describe() string {
	if n.IsRoot() {
		return "root"
	}
	return strings.Join(n.Path(), ".")
}

// Line is the single-line representation of a node.
type Line struct {
	// Key is empty for the root.
	Key string

	// Separator is empty when Key is.
	Separator string

	// Header is the kind's rendering of the value.
	Header string

	// Kind is the name of the node's kind.
	Kind string
}

// String joins key, separator and header.
func (l Line) String() string {
	return l.Key + l.Separator + l.Header
}

// Line renders n's display line. It does not recurse and returns the same
// result every time.
func (n *Node) Line() Line {
	l := Line{
		Header: n.Kind.Header(n.value),
		Kind:   n.Kind.Name,
	}
	if !n.IsRoot() {
		l.Key = n.Key
		l.Separator = Separator
	}
	return l
}

// Row is one visible line of a tree.
type Row struct {
	// Node is the node the row shows. For placeholder rows it is the empty
	// container the placeholder belongs to.
	Node *Node

	// Depth is the indentation level.
	Depth int

	// Line is the rendered line. For placeholders only Header is set.
	Line Line

	// Placeholder marks the "empty" row of an expanded, childless container.
	Placeholder bool
}

// Rows returns the visible rows of the subtree rooted at n, depth-first:
// n's own row first, then, if n is expanded, its children or a single
// placeholder row.
func (n *Node) Rows() []Row {
	var rows []Row
	n.appendRows(&rows)
	return rows
}

func (n *Node) appendRows(rows *[]Row) {
	*rows = append(*rows, Row{Node: n, Depth: n.Depth, Line: n.Line()})
	if !n.expanded {
		return
	}
	if len(n.children) == 0 {
		*rows = append(*rows, Row{
			Node:        n,
			Depth:       n.Depth + 1,
			Line:        Line{Header: Placeholder},
			Placeholder: true,
		})
		return
	}
	for _, c := range n.children {
		c.appendRows(rows)
	}
}
