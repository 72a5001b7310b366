// Package dump builds inspectable trees from arbitrary Go values.
//
// A [Dumper] classifies a root value with a [kind.Registry], renders its
// header, and returns a [Tree] whose root is already expanded. Every other
// container starts collapsed and materializes its children only when it is
// first expanded:
//
//	tree, err := dump.Dump([]any{1, "a", map[string]bool{"x": true}})
//	if err != nil {
//	    return err
//	}
//	for _, row := range tree.Rows() {
//	    fmt.Println(strings.Repeat("  ", row.Depth) + row.Line.String())
//	}
//
// # Laziness and Snapshots
//
// Each container node is a two-state machine, collapsed or expanded. The
// first transition to expanded classifies the node's children and caches
// them on the node; later transitions only flip visibility. The cache is
// never rebuilt, so a node keeps showing its children as they were when it
// was first expanded even if the underlying value has changed since.
//
// # Surfaces
//
// The tree knows nothing about how it is displayed. Surfaces draw
// [Tree.Rows], the visible projection, and route activation events to
// [Node.Toggle], using [Tree.Node] to resolve node IDs they handed out.
//
// A Tree is not safe for concurrent use. Surfaces that receive events from
// several goroutines must serialize them.
package dump

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/kind"
	"github.com/matzehuels/vardump/pkg/observability"
	"github.com/matzehuels/vardump/pkg/value"
)

// Dumper builds trees using one registry.
type Dumper struct {
	registry *kind.Registry
	logger   *log.Logger
}

// Option configures a Dumper.
type Option func(*Dumper)

// WithLogger sets the logger used for debug output during expansion.
func WithLogger(l *log.Logger) Option {
	return func(d *Dumper) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dumper classifying values with reg.
// A nil registry means [kind.Default].
func New(reg *kind.Registry, opts ...Option) *Dumper {
	if reg == nil {
		reg = kind.Default()
	}
	d := &Dumper{registry: reg, logger: log.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the Dumper classifies with.
func (d *Dumper) Registry() *kind.Registry {
	return d.registry
}

// Dump classifies v and returns its tree. If v is a container, its first
// level of children is built and visible; nested containers stay collapsed.
// It fails only if v, or one of its direct children, matches no kind.
func (d *Dumper) Dump(v any) (*Tree, error) {
	t := &Tree{ID: uuid.New(), dumper: d}

	root, err := d.newNode(t, nil, "", v)
	if err != nil {
		return nil, err
	}
	t.Root = root
	t.adopt(root)

	if err := root.Expand(); err != nil {
		return nil, err
	}

	d.logger.Debug("dumped value", "tree", t.ID, "kind", root.Kind.Name)
	return t, nil
}

// newNode classifies v and wraps it in a node that is not yet part of t's
// index. The caller adopts it once the whole batch has been classified.
func (d *Dumper) newNode(t *Tree, parent *Node, key string, v any) (*Node, error) {
	v = value.Indirect(v)
	k, err := d.registry.Classify(v)
	if err != nil {
		return nil, err
	}
	observability.Dump().OnClassify(k.Name)

	n := &Node{
		Key:    key,
		Kind:   k,
		tree:   t,
		parent: parent,
		value:  v,
	}
	if parent != nil {
		n.Depth = parent.Depth + 1
	}
	return n, nil
}

// Dump builds a tree for v with the default registry.
func Dump(v any) (*Tree, error) {
	return New(nil).Dump(v)
}
