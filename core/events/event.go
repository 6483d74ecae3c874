package events

// Event is a structured state change emitted by an engine. Attributes carry
// the literal field values of the mutation so downstream indexers never have
// to re-read state.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter broadcasts events to downstream subscribers (RPC surface, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding every event. Engines default
// to it so event wiring stays optional.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// MemoryEmitter records emitted events in order. The RPC surface drains it
// after each call; tests inspect it directly.
type MemoryEmitter struct {
	events []Event
}

func (m *MemoryEmitter) Emit(evt Event) {
	m.events = append(m.events, evt)
}

// Drain returns the recorded events and resets the buffer.
func (m *MemoryEmitter) Drain() []Event {
	out := m.events
	m.events = nil
	return out
}

// Events returns the recorded events without resetting the buffer.
func (m *MemoryEmitter) Events() []Event {
	return m.events
}
