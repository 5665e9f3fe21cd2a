package infrastructure

import (
	"errors"

	"ticallbot/internal/entities"
)

// MaxButtons is the Cloud API limit on reply buttons per interactive message.
const MaxButtons = 3

// ErrTooManyButtons is returned when a button list exceeds the platform limit.
var ErrTooManyButtons = errors.New("whatsapp: interactive message supports at most 3 buttons")

// Payload is the Cloud API /messages request body. Exactly one of Text, Image
// or Interactive is set, matching Type.
type Payload struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextBody    `json:"text,omitempty"`
	Image            *ImageBody   `json:"image,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type ImageBody struct {
	Link    string `json:"link"`
	Caption string `json:"caption"`
}

type Interactive struct {
	Type   string            `json:"type"`
	Body   InteractiveText   `json:"body"`
	Footer *InteractiveText  `json:"footer,omitempty"`
	Action InteractiveAction `json:"action"`
}

type InteractiveText struct {
	Text string `json:"text"`
}

type InteractiveAction struct {
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func basePayload(to, kind string) Payload {
	return Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             kind,
	}
}

// BuildText builds a plain text message payload.
func BuildText(to, body string) Payload {
	p := basePayload(to, "text")
	p.Text = &TextBody{Body: body}
	return p
}

// BuildImage builds an image-with-caption payload.
func BuildImage(to, link, caption string) Payload {
	p := basePayload(to, "image")
	p.Image = &ImageBody{Link: link, Caption: caption}
	return p
}

// BuildButtons builds an interactive reply-button payload. Option order is
// preserved; more than MaxButtons options is rejected.
func BuildButtons(to, body string, options []entities.ButtonOption) (Payload, error) {
	if len(options) > MaxButtons {
		return Payload{}, ErrTooManyButtons
	}
	buttons := make([]Button, 0, len(options))
	for _, opt := range options {
		buttons = append(buttons, Button{
			Type:  "reply",
			Reply: ButtonReply{ID: opt.ID, Title: opt.Title},
		})
	}
	p := basePayload(to, "interactive")
	p.Interactive = &Interactive{
		Type:   "button",
		Body:   InteractiveText{Text: body},
		Footer: &InteractiveText{Text: "Select one of the options:"},
		Action: InteractiveAction{Buttons: buttons},
	}
	return p, nil
}
