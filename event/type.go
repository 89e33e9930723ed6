package event

// EventType represents the type of a loop event
type EventType int

const (
	// EventDetectRequest asks the loop to start a detection pass on the current layout
	// Trigger: key binding, startup flag
	// Consumer: Controller | Payload: nil
	EventDetectRequest EventType = iota + 1

	// EventDetectComplete delivers a finished detection pass
	// Trigger: dispatcher job after the engine returns
	// Consumer: Controller | Payload: *dispatch.Completion
	EventDetectComplete

	// EventLayoutReload asks the loop to re-read the layout file
	// Trigger: key binding
	// Consumer: Controller | Payload: nil
	EventLayoutReload

	// EventLayoutChanged carries a layout parsed off the loop after a file change
	// Trigger: layout watcher (debounced)
	// Consumer: Controller | Payload: *LayoutChangedPayload
	EventLayoutChanged

	// EventLayoutError reports a failed reload; the previous layout stays in place
	// Trigger: layout watcher
	// Consumer: Controller | Payload: *LayoutErrorPayload
	EventLayoutError

	// EventQuit asks the loop to exit
	// Trigger: key binding, signal handler
	// Consumer: Controller | Payload: nil
	EventQuit
)

var typeNames = map[EventType]string{
	EventDetectRequest:  "DetectRequest",
	EventDetectComplete: "DetectComplete",
	EventLayoutReload:   "LayoutReload",
	EventLayoutChanged:  "LayoutChanged",
	EventLayoutError:    "LayoutError",
	EventQuit:           "Quit",
}

func (t EventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Event is a single message for the loop
type Event struct {
	Type    EventType
	Payload any
}
