package shop

// Callback values carried by inline buttons. These are wire values: the
// engine matches button presses against them literally, and dynamic
// selections (product, quantity, cart item) travel as the bare id or
// decimal string.
const (
	CallbackCart       = "cart"
	CallbackCheckout   = "checkout"
	CallbackBackToMenu = "to_menu"
	CallbackBack       = "back"
)

// EventKind classifies one inbound chat event.
type EventKind int

const (
	// EventStart is the start command (menu entry, catalog refresh).
	EventStart EventKind = iota
	// EventCancel is the cancel command (drop the session).
	EventCancel
	// EventButton is an inline button press; Data carries the callback value.
	EventButton
	// EventText is a free-text message; Data carries the message body.
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventButton:
		return "button"
	case EventText:
		return "text"
	}
	return "unknown"
}

// Event is one inbound conversation event, already stripped of any
// transport detail.
type Event struct {
	Kind EventKind
	Data string
	// SenderName is the sender's display name, used when creating a
	// customer record at checkout.
	SenderName string
}

// RenderKind classifies outbound content.
type RenderKind int

const (
	// RenderMessage is a text screen that replaces the current prompt.
	RenderMessage RenderKind = iota
	// RenderPhoto is a photo screen that replaces the current prompt.
	RenderPhoto
	// RenderNotice is transient feedback that leaves the current screen up.
	RenderNotice
)

// Button is one inline button: a label and the exact callback value it sends.
type Button struct {
	Label string
	Value string
}

// Render is one outbound render instruction, free of transport types.
type Render struct {
	Kind     RenderKind
	Text     string
	ImageURL string
	Buttons  [][]Button
}
