package render

import (
	"bytes"
	"io"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/matzehuels/vardump/pkg/dump"
)

// TextOptions configures [Text].
type TextOptions struct {
	// Color styles keys and headers with ANSI colors.
	Color bool

	// ExpandAll expands containers down to MaxDepth before rendering.
	ExpandAll bool

	// MaxDepth limits ExpandAll. Zero means DefaultMaxDepth.
	MaxDepth int

	// Width truncates lines to this many cells. Zero disables truncation.
	Width int
}

// Text writes the visible rows of tree as indented lines.
//
//	▾ Sequence[3]
//	    0: 1
//	    1: "a"
//	  ▸ 2: Object
func Text(w io.Writer, tree *dump.Tree, opts TextOptions) error {
	if opts.ExpandAll {
		if err := ExpandAll(tree, opts.MaxDepth); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	for _, r := range tree.Rows() {
		buf.WriteString(TextLine(r, opts.Color, opts.Width))
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// TextLine formats one row with indentation, truncated to width cells
// when width is positive.
func TextLine(r dump.Row, color bool, width int) string {
	line := strings.Repeat("  ", r.Depth) + FormatRow(r, color)
	if width > 0 {
		line = truncate.StringWithTail(line, uint(width), "…")
	}
	return line
}
