package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/popup"
	"github.com/matzehuels/vardump/pkg/render"
)

// Screen layout of the tree viewer: a title and a help line above the
// rows, a status line below.
const (
	headerLines  = 2
	footerLines  = 1
	maxPopupRows = 12
)

var (
	cursorMarkStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	statusErrStyle  = lipgloss.NewStyle().Foreground(colorRed)
	popupBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 1)
)

// =============================================================================
// TreeModel - Interactive dump viewer
// =============================================================================

// treeModel browses a dump tree. It is also the popup host: the popup's
// content is drawn over the rows and mouse presses outside it dispose it.
type treeModel struct {
	title string
	tree  *dump.Tree
	color bool

	cursor int
	offset int
	width  int
	height int

	popup   *popup.Popup
	overlay *popup.Content
	outside map[int]func()
	nextID  int

	err error
}

// newTreeModel creates a viewer for tree. The caller sets popup before
// running the program.
func newTreeModel(title string, tree *dump.Tree, color bool) *treeModel {
	return &treeModel{
		title:   title,
		tree:    tree,
		color:   color,
		width:   80,
		height:  24,
		outside: make(map[int]func()),
	}
}

func (m *treeModel) Init() tea.Cmd {
	return nil
}

func (m *treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scroll()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *treeModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "esc":
		if m.overlay == nil {
			return tea.Quit
		}
		m.fireOutside()
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.bodyHeight())
	case "pgdown":
		m.move(m.bodyHeight())
	case "home", "g":
		m.move(-len(m.tree.Rows()))
	case "end", "G":
		m.move(len(m.tree.Rows()))
	case "enter", " ":
		m.toggle(m.cursor)
	case "p":
		m.showPopup()
	}
	return nil
}

func (m *treeModel) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.move(-1)
		return
	case tea.MouseButtonWheelDown:
		m.move(1)
		return
	case tea.MouseButtonLeft:
	default:
		return
	}

	if _, box, ok := m.popupBox(); ok {
		if box.contains(msg.X, msg.Y) {
			m.togglePopupRow(msg.Y - box.y - 1)
			return
		}
		// The press still reaches the rows underneath.
		m.fireOutside()
	}

	if msg.Y < headerLines || msg.Y >= headerLines+m.bodyHeight() {
		return
	}
	i := m.offset + msg.Y - headerLines
	if i < len(m.tree.Rows()) {
		m.cursor = i
		m.toggle(i)
	}
}

// move shifts the cursor by delta rows, clamped to the visible rows.
func (m *treeModel) move(delta int) {
	m.cursor += delta
	m.scroll()
}

// scroll clamps the cursor and keeps it inside the visible window.
func (m *treeModel) scroll() {
	n := len(m.tree.Rows())
	m.cursor = max(0, min(m.cursor, n-1))

	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, n-h))
}

func (m *treeModel) bodyHeight() int {
	return max(1, m.height-headerLines-footerLines)
}

// toggle expands or collapses the container shown in row i.
func (m *treeModel) toggle(i int) {
	rows := m.tree.Rows()
	if i < 0 || i >= len(rows) {
		return
	}
	r := rows[i]
	if r.Placeholder || !r.Node.IsContainer() {
		return
	}
	m.err = r.Node.Toggle()
	m.scroll()
}

// showPopup dumps the value under the cursor into the popup, anchored at
// the end of the cursor row.
func (m *treeModel) showPopup() {
	rows := m.tree.Rows()
	if m.cursor >= len(rows) || rows[m.cursor].Placeholder {
		return
	}
	if m.popup == nil {
		m.err = errors.New(errors.ErrCodeNoPopupHost, "popup not installed")
		return
	}

	r := rows[m.cursor]
	pos := popup.Position{
		X: min(m.width, 2+ansi.StringWidth(render.TextLine(r, false, 0))),
		Y: headerLines + m.cursor - m.offset,
	}
	m.err = m.popup.Show(pos, r.Node.Value())
}

func (m *treeModel) togglePopupRow(i int) {
	if m.overlay == nil {
		return
	}
	rows := m.overlay.Tree.Rows()
	if i < 0 || i >= len(rows) || i >= maxPopupRows {
		return
	}
	r := rows[i]
	if r.Placeholder || !r.Node.IsContainer() {
		return
	}
	m.err = r.Node.Toggle()
}

// =============================================================================
// Popup Host
// =============================================================================

func (m *treeModel) Viewport() (int, int) {
	return m.width, m.height
}

func (m *treeModel) Attach(c popup.Content) {
	m.overlay = &c
}

func (m *treeModel) Detach() {
	m.overlay = nil
}

func (m *treeModel) OnOutside(fn func()) func() {
	id := m.nextID
	m.nextID++
	m.outside[id] = fn
	return func() { delete(m.outside, id) }
}

// fireOutside runs the registered outside listeners in registration order.
func (m *treeModel) fireOutside() {
	ids := make([]int, 0, len(m.outside))
	for id := range m.outside {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := m.outside[id]; ok {
			fn()
		}
	}
}

// =============================================================================
// Rendering
// =============================================================================

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// popupBox renders the attached popup and places it on screen. Content
// that would leave the viewport is shifted back inside.
func (m *treeModel) popupBox() ([]string, rect, bool) {
	if m.overlay == nil {
		return nil, rect{}, false
	}

	rows := m.overlay.Tree.Rows()
	inner := make([]string, 0, min(len(rows), maxPopupRows)+1)
	for i, r := range rows {
		if i == maxPopupRows {
			inner = append(inner, StyleDim.Render(fmt.Sprintf("… %d more", len(rows)-maxPopupRows)))
			break
		}
		inner = append(inner, render.TextLine(r, m.color, max(1, m.width-4)))
	}

	box := popupBoxStyle.Render(strings.Join(inner, "\n"))
	lines := strings.Split(box, "\n")
	w, h := lipgloss.Width(box), len(lines)

	x := max(0, min(m.overlay.Left, m.width-w))
	y := max(0, min(m.height-m.overlay.Bottom-h, m.height-h))
	return lines, rect{x: x, y: y, w: w, h: h}, true
}

func (m *treeModel) View() string {
	rows := m.tree.Rows()

	lines := make([]string, 0, m.height)
	lines = append(lines, StyleTitle.Render(m.title))
	lines = append(lines, StyleDim.Render("↑/↓ navigate  ⏎ toggle  p popup  esc close  q quit"))

	h := m.bodyHeight()
	for i := m.offset; i < m.offset+h; i++ {
		if i >= len(rows) {
			lines = append(lines, "")
			continue
		}
		mark := "  "
		if i == m.cursor {
			mark = cursorMarkStyle.Render("›") + " "
		}
		lines = append(lines, mark+render.TextLine(rows[i], m.color, max(1, m.width-2)))
	}

	status := StyleDim.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(rows)))
	if m.err != nil {
		status += " " + statusErrStyle.Render(errors.UserMessage(m.err))
	}
	lines = append(lines, status)

	if box, r, ok := m.popupBox(); ok {
		lines = overlayLines(lines, box, r.x, r.y)
	}
	return strings.Join(lines, "\n")
}

// overlayLines draws fg over bg with its top-left corner at (x, y).
// Cutting is ANSI-aware so styled background lines stay intact on both
// sides of the overlay.
func overlayLines(bg, fg []string, x, y int) []string {
	out := make([]string, len(bg))
	copy(out, bg)

	for i, line := range fg {
		row := y + i
		if row < 0 || row >= len(out) {
			continue
		}
		base := out[row]
		left := ansi.Truncate(base, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(base, x+ansi.StringWidth(line), "")
		out[row] = left + line + right
	}
	return out
}
