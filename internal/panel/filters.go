package panel

// OnEvent registers a callback on ctx's panel for events matching name,
// returning a filter id usable with OffEvent. The table holds at most
// maxEventFilters live entries across all panels, per events.c's
// MAX_EVENT_FILTERS.
func (m *Manager) OnEvent(ctx *Context, name EventName, cb EventCallback, arg any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := -1
	for i := range m.filters {
		if m.filters[i].name == 0 {
			slot = i
			break
		}
	}
	if slot < 0 {
		return 0, ErrNoFilterSlot
	}

	m.nextFilterID++
	id := m.nextFilterID
	m.filters[slot] = filter{id: id, owner: ctx, name: name, cb: cb, arg: arg}
	return id, nil
}

// OffEvent removes a single filter previously registered by ctx.
func (m *Manager) OffEvent(ctx *Context, filterID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.filters {
		f := &m.filters[i]
		if f.id != filterID || f.name == 0 {
			continue
		}
		if f.owner != ctx {
			return ErrNotOwner
		}
		*f = filter{}
		return nil
	}
	return nil
}

// clearFiltersLocked removes every filter owned by ctx; called when ctx
// is popped, per events_clearFilters in events.c.
func (m *Manager) clearFiltersLocked(ctx *Context) {
	for i := range m.filters {
		if m.filters[i].owner == ctx {
			m.filters[i] = filter{}
		}
	}
}

// matchesKeys reports whether filter f, registered for some key
// category and key mask, should fire for the given down/changed state,
// and returns the (possibly narrowed) changed mask to report.
func matchesKeys(f *filter, down, changed Keys) (Keys, bool) {
	mask := Keys(f.name & 0xff)
	relevant := mask & changed
	if relevant == 0 {
		return 0, false
	}
	switch f.name & EventNameMask {
	case EventNameKeysDown:
		if relevant&down == 0 {
			return 0, false
		}
	case EventNameKeysUp:
		if relevant & ^down == 0 {
			return 0, false
		}
	case EventNameKeysChanged:
		// Any matching change fires regardless of direction.
	default:
		return 0, false
	}
	return relevant, true
}

// emitLocked routes one event to every filter belonging to the active
// panel that matches it, mirroring panel_emitEvent's per-category rules
// in events.c. Callers must hold m.mu.
func (m *Manager) emitLocked(name EventName, payload EventPayload) {
	active := m.active
	if active == nil {
		return
	}

	for i := range m.filters {
		f := &m.filters[i]
		if f.name == 0 || f.owner != active {
			continue
		}

		out := payload
		switch {
		case name == EventNameRenderScene:
			if f.name != EventNameRenderScene {
				continue
			}
		case name == EventNameMessage:
			if f.name != EventNameMessage {
				continue
			}
		case name&EventNamePanel != 0:
			if f.name != name {
				continue
			}
		case name&EventNameKeys != 0:
			changed, ok := matchesKeys(f, payload.Keys.Down, payload.Keys.Changed)
			if !ok {
				continue
			}
			out.Keys.Changed = changed
		case name&EventNameCustom != 0:
			if f.name != name {
				continue
			}
		default:
			continue
		}

		out.Name = f.name
		out.FilterID = f.id
		select {
		case active.events <- dispatch{payload: out, cb: f.cb, arg: f.arg}:
		default:
			// Backlog full: drop, matching events.c's xQueueSendToBack
			// with a zero timeout (best-effort delivery, never blocks
			// the emitter).
		}
	}
}

// EmitRenderScene notifies the active panel's render-scene filter, if
// any, that a new frame has been sequenced.
func (m *Manager) EmitRenderScene(tick uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(EventNameRenderScene, EventPayload{Render: RenderSceneProps{Tick: tick}})
}

// EmitKeys notifies key filters of a key-state transition. down is the
// full current key mask, changed is the set of keys that flipped since
// the previous call.
func (m *Manager) EmitKeys(down, changed Keys, cancelled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	props := KeysProps{Down: down, Changed: changed, Cancelled: cancelled}
	if changed&KeyAll != 0 {
		// A single pass through the filter table delivers to whichever
		// down/up/changed filters actually match, per matchesKeys; the
		// outer name only needs to fall in the Keys category.
		m.emitLocked(EventNameKeysChanged, EventPayload{Keys: props})
	}
}

// EmitMessage delivers a decoded incoming transport message to the
// active panel's message filter.
func (m *Manager) EmitMessage(id uint32, method string, params []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(EventNameMessage, EventPayload{Message: MessageProps{ID: id, Method: method, Params: params}})
}

// EmitCustom delivers an application-defined event to the active
// panel's custom filter.
func (m *Manager) EmitCustom(data [32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitLocked(EventNameCustom, EventPayload{Custom: CustomProps{Data: data}})
}
