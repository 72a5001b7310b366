// Package popup shows dump trees in a transient overlay.
//
// The overlay itself belongs to a [Host]: a terminal UI, a browser bridge,
// or a test fake. This package owns the lifecycle around it. A Popup
// dumps a value, anchors the result relative to a trigger position,
// attaches it, and registers one outside-interaction listener that
// disposes it.
//
// Only one popup is live per Popup handle. Showing another value while one
// is visible replaces the content in place and keeps the single listener.
// The process-wide handle created by [Install] extends that to the whole
// process, so [Show] never stacks overlays.
package popup

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/observability"
)

// Default anchor offsets: the popup opens above and to the left of the
// trigger point.
const (
	DefaultOffsetX = 30
	DefaultOffsetY = 15
)

// Position is a point in host coordinates, origin top-left.
type Position struct {
	X, Y int
}

// Content is what the host displays.
type Content struct {
	Tree *dump.Tree

	// Left is the distance from the viewport's left edge.
	Left int

	// Bottom is the distance from the viewport's bottom edge.
	Bottom int
}

// Host is the display surface a Popup draws on.
type Host interface {
	// Viewport returns the current width and height.
	Viewport() (width, height int)

	// Attach shows c, replacing whatever popup content is attached.
	Attach(c Content)

	// Detach removes the popup content.
	Detach()

	// OnOutside registers fn to run on interaction outside the popup and
	// returns a function that unregisters it.
	OnOutside(fn func()) (remove func())
}

// Popup manages the popup shown on one host.
type Popup struct {
	mu      sync.Mutex
	host    Host
	dumper  *dump.Dumper
	offsetX int
	offsetY int
	logger  *log.Logger

	current *Content
	remove  func()
}

// Option configures a Popup.
type Option func(*Popup)

// WithDumper sets the dumper used to build trees. Defaults to dump.New(nil).
func WithDumper(d *dump.Dumper) Option {
	return func(p *Popup) {
		if d != nil {
			p.dumper = d
		}
	}
}

// WithOffset sets the anchor offsets.
func WithOffset(x, y int) Option {
	return func(p *Popup) {
		p.offsetX = x
		p.offsetY = y
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Popup) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Popup drawing on host.
func New(host Host, opts ...Option) *Popup {
	p := &Popup{
		host:    host,
		offsetX: DefaultOffsetX,
		offsetY: DefaultOffsetY,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dumper == nil {
		p.dumper = dump.New(nil, dump.WithLogger(p.logger))
	}
	return p
}

// Anchor converts a trigger position into popup placement for a viewport
// of the given height.
func (p *Popup) Anchor(pos Position, viewportHeight int) (left, bottom int) {
	return pos.X - p.offsetX, viewportHeight - pos.Y + p.offsetY
}

// Show dumps v and displays it anchored at pos. If a popup is already
// visible its content is replaced and its outside listener is kept.
// A classification error leaves the current popup untouched.
func (p *Popup) Show(pos Position, v any) error {
	tree, err := p.dumper.Dump(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, h := p.host.Viewport()
	left, bottom := p.Anchor(pos, h)
	c := Content{Tree: tree, Left: left, Bottom: bottom}

	replacing := p.current != nil
	p.current = &c
	p.host.Attach(c)

	if replacing {
		observability.Dump().OnPopup(observability.PopupReplaced)
		p.logger.Debug("popup replaced", "tree", tree.ID)
		return nil
	}

	p.remove = p.host.OnOutside(p.Dispose)
	observability.Dump().OnPopup(observability.PopupShown)
	p.logger.Debug("popup shown", "tree", tree.ID, "left", left, "bottom", bottom)
	return nil
}

// Dispose removes the popup and its outside listener. It is a no-op when
// nothing is shown.
func (p *Popup) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	if p.remove != nil {
		p.remove()
		p.remove = nil
	}
	p.host.Detach()
	p.current = nil

	observability.Dump().OnPopup(observability.PopupDisposed)
	p.logger.Debug("popup disposed")
}

// Visible reports whether a popup is shown.
func (p *Popup) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Current returns the displayed content.
func (p *Popup) Current() (Content, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Content{}, false
	}
	return *p.current, true
}

// =============================================================================
// Process-wide Popup
// =============================================================================

var (
	shared   *Popup
	sharedMu sync.Mutex
)

// Install creates the process-wide popup on host if none exists and
// returns it. Once installed, later calls return the existing popup and
// ignore their arguments.
func Install(host Host, opts ...Option) *Popup {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(host, opts...)
	}
	return shared
}

// Shared returns the process-wide popup, or nil before Install.
func Shared() *Popup {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return shared
}

// Uninstall disposes the process-wide popup and forgets it, so that the
// next Install may bind a new host.
func Uninstall() {
	sharedMu.Lock()
	p := shared
	shared = nil
	sharedMu.Unlock()

	if p != nil {
		p.Dispose()
	}
}

// Show displays v on the process-wide popup.
func Show(pos Position, v any) error {
	p := Shared()
	if p == nil {
		return errors.New(errors.ErrCodeNoPopupHost, "no popup host installed")
	}
	return p.Show(pos, v)
}
