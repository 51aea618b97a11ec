// Package panel implements the cooperative panel/task stack and the
// event filter table described in spec.md §4.2: one goroutine per pushed
// panel, a bounded incoming event queue per panel, and a single global,
// mutex-protected filter table that routes events to whichever panel is
// currently active.
//
// Grounded on the original firmware's main/panel.c and main/events.c: a
// FreeRTOS task per panel with a static event queue becomes a goroutine
// with a buffered channel; the EventFilter array becomes a mutex-guarded
// fixed-size Go array, generalizing IntuitionEngine's IPCServer accept-loop/done-
// channel pattern (runtime_ipc.go) to three concurrently running loops
// (render, transport, panel).
package panel

import "errors"

// Keys is a bitmask of simultaneously held keys.
type Keys uint16

const (
	KeyNone   Keys = 0
	KeyNorth  Keys = 1 << 0
	KeyEast   Keys = 1 << 1
	KeySouth  Keys = 1 << 2
	KeyWest   Keys = 1 << 3
	KeyOk     Keys = 1 << 4
	KeyCancel Keys = 1 << 5
	KeyStart  Keys = 1 << 6
	KeySelect Keys = 1 << 7
	KeyAll    Keys = 0xff
)

// KeyReset is the chord that resets the device to its top panel.
const KeyReset = KeyCancel | KeyNorth

// EventName identifies an event's category (top byte) and, for key
// events, which keys it cares about (low byte), per spec.md §4.2.
type EventName uint32

const (
	EventNameRenderScene EventName = 0x01 << 24
	EventNameMessage     EventName = 0x02 << 24

	EventNameKeysDown    EventName = 0x11 << 24
	EventNameKeysUp      EventName = 0x12 << 24
	EventNameKeysChanged EventName = 0x14 << 24
	EventNameKeys        EventName = 0x10 << 24

	EventNamePanelFocus EventName = 0x21 << 24
	EventNamePanelBlur  EventName = 0x22 << 24
	EventNamePanel      EventName = 0x20 << 24

	EventNameCustom EventName = 0x80 << 24

	EventNameMask         EventName = 0xff << 24
	EventNameCategoryMask EventName = 0xf0 << 24
)

// PanelStyle selects how a pushed panel enters and how the panel beneath
// it is displaced, per spec.md §4.2.
type PanelStyle int

const (
	PanelStyleInstant PanelStyle = iota
	PanelStyleCoverUp
	PanelStyleSlideLeft
)

const (
	maxEventFilters = 32
	maxEventBacklog = 8
)

// ErrNoFilterSlot is returned when the filter table is full.
var ErrNoFilterSlot = errors.New("panel: no free event filter")

// ErrNotOwner is returned when OffEvent is called with a filter id that
// belongs to a different panel.
var ErrNotOwner = errors.New("panel: filter owned by another panel")

// RenderSceneProps carries the current tick count for a render-scene event.
type RenderSceneProps struct {
	Tick uint32
}

// KeysProps describes a key transition: which keys are held (Down),
// which changed since the previous event (Changed), and whether the
// transition was a cancellation.
type KeysProps struct {
	Down      Keys
	Changed   Keys
	Cancelled bool
}

// PanelProps names the panel a panel-focus/blur event concerns.
type PanelProps struct {
	ID int
}

// MessageProps carries a decoded incoming transport message, per
// spec.md §4.3.
type MessageProps struct {
	ID     uint32
	Method string
	Params []byte
}

// CustomProps is an application-defined fixed-size payload.
type CustomProps struct {
	Data [32]byte
}

// EventPayload is the generalized event argument delivered to a
// callback; only the field matching Name is populated.
type EventPayload struct {
	Name    EventName
	FilterID int
	Render  RenderSceneProps
	Keys    KeysProps
	Panel   PanelProps
	Message MessageProps
	Custom  CustomProps
}

// EventCallback handles one delivered event.
type EventCallback func(payload EventPayload, arg any)
