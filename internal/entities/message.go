package entities

// EventKind classifies how a message arrived from the webhook.
type EventKind string

const (
	EventFreeText    EventKind = "free_text"
	EventButtonReply EventKind = "button_reply"
)

// Event is one inbound webhook message, built once per delivery and never persisted.
// Payload holds the text body for free text, or the button id for button replies.
type Event struct {
	SenderID string
	Kind     EventKind
	Payload  string
}

// ButtonOption is one reply button on an interactive message.
type ButtonOption struct {
	ID    string
	Title string
}
