package panel

import (
	"sync"

	"github.com/firefly/pixie-firmware-sub000/internal/scene"
)

// filter is one row of the global event filter table, grounded on
// events.c's EventFilter.
type filter struct {
	id     int
	owner  *Context
	name   EventName
	cb     EventCallback
	arg    any
}

// dispatch is one event queued for a panel's goroutine to run.
type dispatch struct {
	payload EventPayload
	cb      EventCallback
	arg     any
}

// Context is one pushed panel: its scene node, its incoming event queue,
// and its place in the panel stack. It is the Go analogue of the
// original's PanelContext, attached to a task tag; here it is simply the
// value a panel's goroutine and its registered callbacks close over.
type Context struct {
	mgr    *Manager
	id     int
	node   scene.Handle
	parent *Context
	style  PanelStyle

	events  chan dispatch
	done    chan struct{}
	closing bool
}

// ID returns the panel's identifier, unique for the process lifetime.
func (c *Context) ID() int { return c.id }

// Node returns the panel's root scene group, already appended under the
// scene root.
func (c *Context) Node() scene.Handle { return c.node }

// PanelInit builds a panel's scene content and registers its event
// filters. It runs once, on the panel's own goroutine, before that
// goroutine enters its event loop.
type PanelInit func(m *Manager, ctx *Context, arg any) error

// Manager owns the scene arena, the active panel stack, and the global
// event filter table (events.c's single eventFilters array plus
// panel.c's activePanel pointer, both made safe for Go's goroutines with
// one mutex instead of a FreeRTOS binary semaphore).
type Manager struct {
	mu sync.Mutex

	scene *scene.Arena

	active  *Context
	filters [maxEventFilters]filter

	nextFilterID int
	nextPanelID  int
}

// NewManager creates a panel manager driving the given scene arena.
func NewManager(arena *scene.Arena) *Manager {
	return &Manager{scene: arena}
}

// Scene returns the arena panels render into.
func (m *Manager) Scene() *scene.Arena { return m.scene }

// Active returns the currently focused panel, or nil if none has been
// pushed yet.
func (m *Manager) Active() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Push creates a new panel, running init synchronously on its own
// goroutine before returning, mirroring panel_push's busy-wait on
// panelInit.ready in panel.c.
func (m *Manager) Push(init PanelInit, style PanelStyle, arg any) (*Context, error) {
	m.mu.Lock()
	prevActive := m.active
	if prevActive != nil {
		m.emitLocked(EventNamePanelBlur, EventPayload{Name: EventNamePanelBlur, Panel: PanelProps{ID: prevActive.id}})
	}
	id := m.nextPanelID + 1
	m.nextPanelID = id
	m.mu.Unlock()

	ctx := &Context{
		mgr:    m,
		id:     id,
		parent: prevActive,
		style:  style,
		events: make(chan dispatch, maxEventBacklog),
		done:   make(chan struct{}),
	}

	ready := make(chan error, 1)
	go m.runPanel(ctx, init, arg, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return ctx, nil
}

func panelStartPosition(style PanelStyle) scene.Point {
	switch style {
	case PanelStyleCoverUp:
		return scene.Point{Y: 240}
	case PanelStyleSlideLeft:
		return scene.Point{X: 240}
	default:
		return scene.Point{}
	}
}

func panelExitPosition(style PanelStyle) scene.Point {
	switch style {
	case PanelStyleCoverUp:
		return scene.Point{Y: 240}
	case PanelStyleSlideLeft:
		return scene.Point{X: 240}
	default:
		return scene.Point{}
	}
}

const panelTransitionTicks = 18 // ~300ms at a 60Hz sequence cadence, per spec.md §4.2

func (m *Manager) runPanel(ctx *Context, init PanelInit, arg any, ready chan<- error) {
	node, err := m.scene.CreateGroup()
	if err != nil {
		ready <- err
		return
	}
	ctx.node = node

	start := panelStartPosition(ctx.style)
	if start.X != 0 || start.Y != 0 {
		m.scene.SetPosition(node, start)
	}

	m.mu.Lock()
	m.active = ctx
	m.mu.Unlock()

	if err := init(m, ctx, arg); err != nil {
		ready <- err
		return
	}

	m.scene.AppendChild(m.scene.Root(), node)

	if ctx.parent != nil && ctx.style != PanelStyleInstant {
		exitPos := panelExitPosition(ctx.style)
		m.scene.AnimatePosition(ctx.parent.node, exitPos, panelTransitionTicks, scene.EaseOutQuad, nil)
	}

	if ctx.style == PanelStyleInstant {
		m.scene.SetPosition(node, scene.Point{})
		m.mu.Lock()
		m.emitLocked(EventNamePanelFocus, EventPayload{Name: EventNamePanelFocus, Panel: PanelProps{ID: ctx.id}})
		m.mu.Unlock()
	} else {
		onFocus := func(h scene.Handle, stop scene.CompletionKind) {
			m.mu.Lock()
			m.emitLocked(EventNamePanelFocus, EventPayload{Name: EventNamePanelFocus, Panel: PanelProps{ID: ctx.id}})
			m.mu.Unlock()
		}
		m.scene.AnimatePosition(node, scene.Point{}, panelTransitionTicks, scene.EaseOutQuad, onFocus)
	}

	ready <- nil

	for {
		select {
		case d := <-ctx.events:
			d.cb(d.payload, d.arg)
			m.mu.Lock()
			closing := ctx.closing
			m.mu.Unlock()
			if closing {
				return
			}
		case <-ctx.done:
			return
		}
	}
}

// Pop clears ctx's event filters, returns focus to its parent panel, and
// terminates ctx's goroutine once its blur transition completes, per
// panel_pop in panel.c. It must be called from ctx's own event callback.
func (m *Manager) Pop(ctx *Context) error {
	m.mu.Lock()
	m.clearFiltersLocked(ctx)
	parent := ctx.parent
	m.active = parent
	m.mu.Unlock()

	finish := func() {
		m.mu.Lock()
		m.scene.Remove(ctx.node)
		m.emitLocked(EventNamePanelBlur, EventPayload{Name: EventNamePanelBlur, Panel: PanelProps{ID: ctx.id}})
		if parent != nil {
			m.emitLocked(EventNamePanelFocus, EventPayload{Name: EventNamePanelFocus, Panel: PanelProps{ID: parent.id}})
		}
		ctx.closing = true
		m.mu.Unlock()
		close(ctx.done)
	}

	if ctx.style == PanelStyleInstant || parent == nil {
		if parent != nil {
			m.scene.SetPosition(parent.node, scene.Point{})
		}
		finish()
		return nil
	}

	exitPos := panelExitPosition(ctx.style)
	cur, err := m.scene.Position(ctx.node)
	if err != nil {
		finish()
		return nil
	}
	if cur == exitPos {
		finish()
	} else {
		m.scene.AnimatePosition(ctx.node, exitPos, panelTransitionTicks, scene.EaseOutQuad, func(scene.Handle, scene.CompletionKind) {
			finish()
		})
	}
	m.scene.AnimatePosition(parent.node, scene.Point{}, panelTransitionTicks, scene.EaseOutQuad, nil)
	return nil
}
