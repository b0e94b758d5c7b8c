package resource

// Handle is an opaque reference to a captured value in a table.
// Handle 0 is reserved and always invalid.
type Handle int32

// EventType identifies a capture lifecycle notification.
type EventType uint8

const (
	EventCaptured EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCaptured:
		return "captured"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// Event represents a capture lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about capture lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) {
	f(e)
}

// Dropper is optionally implemented by captured values that need cleanup
// when their handle is released.
type Dropper interface {
	Drop()
}
