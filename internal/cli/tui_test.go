package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/popup"
	"github.com/matzehuels/vardump/pkg/value"
)

func newTestModel(t *testing.T, v any) *treeModel {
	t.Helper()
	tree, err := dump.Dump(v)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	m := newTreeModel("test", tree, false)
	m.popup = popup.New(m, popup.WithOffset(4, 1))
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return m
}

func userDoc() value.Object {
	return value.Object{
		{Key: "user", Value: value.Object{
			{Key: "name", Value: "ada"},
			{Key: "tags", Value: []any{"x"}},
		}},
		{Key: "n", Value: 1},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTreeModelToggle(t *testing.T) {
	m := newTestModel(t, userDoc())

	if got := len(m.tree.Rows()); got != 3 {
		t.Fatalf("initial rows = %d, want 3", got)
	}

	m.Update(key("j"))
	m.Update(key("enter"))
	if got := len(m.tree.Rows()); got != 5 {
		t.Errorf("rows after expand = %d, want 5", got)
	}
	if !strings.Contains(m.View(), `name: "ada"`) {
		t.Errorf("view should show expanded children:\n%s", m.View())
	}

	m.Update(key(" "))
	if got := len(m.tree.Rows()); got != 3 {
		t.Errorf("rows after collapse = %d, want 3", got)
	}

	// Leaves do not toggle.
	m.Update(key("j"))
	m.Update(key("enter"))
	if got := len(m.tree.Rows()); got != 3 || m.err != nil {
		t.Errorf("toggling a leaf changed rows to %d (err %v)", got, m.err)
	}
}

func TestTreeModelScroll(t *testing.T) {
	items := make([]any, 50)
	for i := range items {
		items[i] = i
	}
	m := newTestModel(t, items)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})

	m.Update(key("G"))
	if m.cursor != 50 || m.offset != 44 {
		t.Errorf("after G cursor/offset = %d/%d, want 50/44", m.cursor, m.offset)
	}
	if got := strings.Count(m.View(), "\n") + 1; got != 10 {
		t.Errorf("view has %d lines, want 10", got)
	}

	m.Update(key("g"))
	m.Update(key("k"))
	if m.cursor != 0 || m.offset != 0 {
		t.Errorf("after g,k cursor/offset = %d/%d, want 0/0", m.cursor, m.offset)
	}
}

func TestTreeModelPopup(t *testing.T) {
	m := newTestModel(t, userDoc())
	m.Update(key("j"))
	m.Update(key("p"))

	c, ok := m.popup.Current()
	if !ok || m.overlay == nil {
		t.Fatal("p should show the popup")
	}
	// Row "  ▸ user: Object" ends at cell 16; the row is third on screen.
	if c.Left != 18-4 || c.Bottom != 20-3+1 {
		t.Errorf("popup placement = left %d bottom %d, want 14 18", c.Left, c.Bottom)
	}
	if diff := cmp.Diff(userDoc()[0].Value, c.Tree.Root.Value()); diff != "" {
		t.Errorf("popup value mismatch (-want +got):\n%s", diff)
	}
	if view := m.View(); !strings.Contains(view, `name: "ada"`) || !strings.Contains(view, "╭") {
		t.Errorf("view should draw the popup box:\n%s", view)
	}

	// Showing again replaces the content without stacking listeners.
	m.Update(key("j"))
	m.Update(key("p"))
	if len(m.outside) != 1 {
		t.Errorf("outside listeners = %d, want 1", len(m.outside))
	}

	if cmd := m.handleKey(key("esc")); isQuit(cmd) {
		t.Error("esc with a popup should only dismiss it")
	}
	if m.overlay != nil || m.popup.Visible() || len(m.outside) != 0 {
		t.Error("esc should dispose the popup and its listener")
	}
	if cmd := m.handleKey(key("esc")); !isQuit(cmd) {
		t.Error("esc without a popup should quit")
	}
}

func TestTreeModelPopupMouse(t *testing.T) {
	m := newTestModel(t, userDoc())
	m.Update(key("j"))
	m.Update(key("p"))

	_, box, ok := m.popupBox()
	if !ok {
		t.Fatal("popup not attached")
	}

	// Row 2 of the popup is "tags", a collapsed sequence.
	m.Update(click(box.x+2, box.y+1+2))
	if m.overlay == nil {
		t.Fatal("click inside the popup should keep it")
	}
	if got := len(m.overlay.Tree.Rows()); got != 4 {
		t.Errorf("popup rows after click = %d, want 4", got)
	}
	if m.tree.Root.Children()[0].Expanded() {
		t.Error("click inside the popup should not reach the tree")
	}

	// The status line is outside the popup and holds no rows.
	m.Update(click(0, 19))
	if m.overlay != nil || len(m.outside) != 0 {
		t.Error("click outside should dispose the popup")
	}
}

func TestTreeModelClickRow(t *testing.T) {
	m := newTestModel(t, userDoc())

	m.Update(click(5, headerLines+1))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	if !m.tree.Root.Children()[0].Expanded() {
		t.Error("click should toggle the row")
	}

	// Release events are ignored.
	m.Update(tea.MouseMsg{X: 5, Y: headerLines + 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	if !m.tree.Root.Children()[0].Expanded() {
		t.Error("release should not toggle")
	}
}

func TestTreeModelQuit(t *testing.T) {
	m := newTestModel(t, 1)
	if _, cmd := m.Update(key("q")); !isQuit(cmd) {
		t.Error("q should quit")
	}
}

func TestOverlayLines(t *testing.T) {
	tests := []struct {
		name string
		bg   []string
		fg   []string
		x, y int
		want []string
	}{
		{
			name: "inside",
			bg:   []string{"abcdefgh", "12345678"},
			fg:   []string{"XY"},
			x:    2, y: 1,
			want: []string{"abcdefgh", "12XY5678"},
		},
		{
			name: "past the line end",
			bg:   []string{"ab"},
			fg:   []string{"Z"},
			x:    4, y: 0,
			want: []string{"ab  Z"},
		},
		{
			name: "clipped below",
			bg:   []string{"aaaa", "bbbb"},
			fg:   []string{"1", "2", "3"},
			x:    0, y: 1,
			want: []string{"aaaa", "1bbb"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlayLines(tt.bg, tt.fg, tt.x, tt.y)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("overlayLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
