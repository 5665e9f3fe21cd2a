package interfaces

import (
	"context"

	"ticallbot/internal/entities"
)

// Messenger delivers outbound messages to the messaging platform.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendImage(ctx context.Context, to, link, caption string) error
	SendButtons(ctx context.Context, to, body string, options []entities.ButtonOption) error
}

// LanguageStore persists the per-sender language preference.
//
// GetLanguage is failure-open: a lookup error is reported as "unset" (ok ==
// false), indistinguishable from a sender who never chose a language. That
// matches the legacy behavior; callers cannot tell the two apart.
type LanguageStore interface {
	GetLanguage(ctx context.Context, senderID string) (entities.Language, bool)
	SetLanguage(ctx context.Context, senderID string, lang entities.Language) error
}

// AuditRecorder accepts audit entries for asynchronous persistence. Record
// never blocks the caller and never reports failure back to the reply path.
type AuditRecorder interface {
	Record(entry entities.AuditEntry)
}

// LogStore is the durable primary storage for audit entries.
type LogStore interface {
	Append(ctx context.Context, entry entities.AuditEntry) error
	List(ctx context.Context, limit int) ([]entities.AuditEntry, error)
	CountByDirection(ctx context.Context) (map[entities.Direction]int, error)
}

// SheetExporter mirrors audit rows to the external spreadsheet-style sink.
// Best effort only: failures are logged by the caller and never retried.
type SheetExporter interface {
	Append(ctx context.Context, entries []entities.AuditEntry) error
}

// UserStore holds dashboard accounts.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}

// EventHandler consumes one inbound conversation event. Implemented by the
// dispatcher; the webhook handler only sees this.
type EventHandler interface {
	Handle(ctx context.Context, ev entities.Event)
}
