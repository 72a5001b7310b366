// Package render writes dump trees to output formats.
//
// # Sinks
//
//   - [Text]: indented terminal lines, optionally colored with lipgloss
//   - [HTML]: the var-dump widget markup (div.var-dump, nested ol/li)
//   - [JSON]: the visible projection of the tree for tooling
//   - [DOT] and [SVG]: a Graphviz graph of the visible nodes
//
// Every sink renders what is visible: expanded containers show their
// children, collapsed ones show only their header line. Sinks never expand
// nodes themselves unless asked to through [TextOptions.ExpandAll] or
// [ExpandAll].
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/kind"
)

// DefaultMaxDepth bounds [ExpandAll] when no depth is given. Values can be
// cyclic, so full expansion always needs a limit.
const DefaultMaxDepth = 8

// Bullets mark container rows.
const (
	BulletCollapsed = "▸"
	BulletExpanded  = "▾"
)

// ExpandAll expands every container of tree down to maxDepth levels
// below the root. A non-positive maxDepth means [DefaultMaxDepth].
func ExpandAll(tree *dump.Tree, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return tree.Root.ExpandTo(maxDepth)
}

// =============================================================================
// Styles
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorPurple = lipgloss.Color("141")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleKey       = lipgloss.NewStyle().Foreground(colorWhite)
	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
	styleBullet    = lipgloss.NewStyle().Foreground(colorGray)
	styleEmpty     = lipgloss.NewStyle().Foreground(colorDim).Italic(true)

	kindStyles = map[string]lipgloss.Style{
		kind.NameSequence:  lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
		kind.NameMapping:   lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
		kind.NameCallable:  lipgloss.NewStyle().Foreground(colorPurple),
		kind.NameText:      lipgloss.NewStyle().Foreground(colorGreen),
		kind.NameNumber:    lipgloss.NewStyle().Foreground(colorBlue),
		kind.NameBoolean:   lipgloss.NewStyle().Foreground(colorYellow),
		kind.NameTemporal:  lipgloss.NewStyle().Foreground(colorPurple),
		kind.NamePattern:   lipgloss.NewStyle().Foreground(colorRed),
		kind.NameNull:      lipgloss.NewStyle().Foreground(colorGray),
		kind.NameUndefined: lipgloss.NewStyle().Foreground(colorDim),
		kind.NameOpaque:    lipgloss.NewStyle().Foreground(colorGray).Italic(true),
		kind.NameUUID:      lipgloss.NewStyle().Foreground(colorYellow),
	}
	styleUnknownKind = lipgloss.NewStyle().Foreground(colorWhite)
)

// KindStyle returns the header style for a kind name. Kinds registered by
// callers get a plain style.
func KindStyle(name string) lipgloss.Style {
	if s, ok := kindStyles[name]; ok {
		return s
	}
	return styleUnknownKind
}

// FormatRow formats one row without indentation: an optional bullet for
// containers followed by the line. Leaves get blank padding in place of
// the bullet so keys line up.
func FormatRow(r dump.Row, color bool) string {
	paint := func(s lipgloss.Style, text string) string {
		if !color || text == "" {
			return text
		}
		return s.Render(text)
	}

	if r.Placeholder {
		return "  " + paint(styleEmpty, r.Line.Header)
	}

	bullet := " "
	if r.Node.IsContainer() {
		bullet = BulletCollapsed
		if r.Node.Expanded() {
			bullet = BulletExpanded
		}
	}

	return paint(styleBullet, bullet) + " " +
		paint(styleKey, r.Line.Key) +
		paint(styleSeparator, r.Line.Separator) +
		paint(KindStyle(r.Line.Kind), r.Line.Header)
}
