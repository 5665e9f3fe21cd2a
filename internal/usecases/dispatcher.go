package usecases

import (
	"context"
	"log/slog"
	"strings"

	"ticallbot/internal/entities"
	"ticallbot/internal/i18n"
	"ticallbot/internal/interfaces"
	"ticallbot/internal/metrics"
)

// Dispatcher is the conversation state machine. It classifies one inbound
// event against the sender's stored language preference, sends the canned
// reply, and records audit entries for the inbound message and every
// outbound one.
//
// The only state is the language tag, re-read from the store on every event.
// Two rapid messages from the same sender can interleave that read/write;
// the winner is whichever write lands last, which is acceptable here.
type Dispatcher struct {
	catalog   *i18n.Catalog
	messenger interfaces.Messenger
	languages interfaces.LanguageStore
	audit     interfaces.AuditRecorder
	metrics   *metrics.Metrics
	imageURL  string
	log       *slog.Logger
}

func NewDispatcher(
	catalog *i18n.Catalog,
	messenger interfaces.Messenger,
	languages interfaces.LanguageStore,
	audit interfaces.AuditRecorder,
	m *metrics.Metrics,
	imageURL string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		catalog:   catalog,
		messenger: messenger,
		languages: languages,
		audit:     audit,
		metrics:   m,
		imageURL:  imageURL,
		log:       logger,
	}
}

// Handle processes one inbound event. It never returns an error: every
// collaborator failure is logged and absorbed so the webhook can always be
// acknowledged.
func (d *Dispatcher) Handle(ctx context.Context, ev entities.Event) {
	payload := strings.ToLower(strings.TrimSpace(ev.Payload))
	if ev.SenderID == "" || payload == "" {
		d.log.Info("ignoring malformed event", "sender", ev.SenderID, "kind", ev.Kind)
		d.metrics.DispatchTotal.WithLabelValues("malformed").Inc()
		return
	}

	d.audit.Record(entities.AuditEntry{
		SenderID:  ev.SenderID,
		Channel:   entities.ChannelWhatsApp,
		Message:   ev.Payload,
		Direction: entities.DirectionReceived,
		Campaign:  entities.CampaignInbound,
		Agent:     entities.AgentBot,
	})

	if ev.Kind == entities.EventButtonReply {
		if lang, ok := entities.LanguageFromButton(payload); ok {
			d.selectLanguage(ctx, ev.SenderID, lang)
			return
		}
	}

	lang, ok := d.languages.GetLanguage(ctx, ev.SenderID)
	if !ok {
		d.promptLanguage(ctx, ev.SenderID)
		return
	}

	d.reply(ctx, ev.SenderID, lang, payload)
}

// selectLanguage persists the choice, then delivers the welcome sequence.
// The store write happens before any send: a crash in between leaves the
// sender with a chosen language and an undelivered welcome, which is fine.
func (d *Dispatcher) selectLanguage(ctx context.Context, senderID string, lang entities.Language) {
	d.metrics.DispatchTotal.WithLabelValues("language_selected").Inc()

	if err := d.languages.SetLanguage(ctx, senderID, lang); err != nil {
		// Best effort: the sender still gets the welcome, they may just be
		// prompted for a language again next time.
		d.log.Error("failed to persist language", "sender", senderID, "language", lang, "error", err)
	}

	greeting := d.catalog.Lookup(lang, i18n.KeySelectedLanguage)
	d.recordSent(senderID, greeting, entities.CampaignBotReply)
	if err := d.messenger.SendText(ctx, senderID, greeting); err != nil {
		d.sendFailed(senderID, err)
	}

	caption := d.catalog.Lookup(lang, i18n.KeyGreetingCaption)
	d.recordSent(senderID, caption, entities.CampaignBotReply)
	if err := d.messenger.SendImage(ctx, senderID, d.imageURL, caption); err != nil {
		d.sendFailed(senderID, err)
	}

	question := d.catalog.Lookup(lang, i18n.KeyGreetingQuestion)
	d.recordSent(senderID, question, entities.CampaignBotReply)
	err := d.messenger.SendButtons(ctx, senderID, question, []entities.ButtonOption{
		{ID: entities.ButtonYes, Title: d.catalog.Lookup(lang, i18n.KeyButtonYes)},
		{ID: entities.ButtonMaybe, Title: d.catalog.Lookup(lang, i18n.KeyButtonMaybe)},
	})
	if err != nil {
		d.sendFailed(senderID, err)
	}
}

// promptLanguage asks a sender without a stored preference to pick one.
// State is not touched.
func (d *Dispatcher) promptLanguage(ctx context.Context, senderID string) {
	d.metrics.DispatchTotal.WithLabelValues("language_prompt").Inc()

	body := d.catalog.Lookup(entities.LanguageSpanish, i18n.KeyWelcomeInitial) +
		"\n\n" + d.catalog.Lookup(entities.LanguageSpanish, i18n.KeyLangPrompt)

	d.recordSent(senderID, body, entities.CampaignLanguageSelect)
	err := d.messenger.SendButtons(ctx, senderID, body, []entities.ButtonOption{
		{ID: entities.ButtonSelectSpanish, Title: "Español"},
		{ID: entities.ButtonSelectEnglish, Title: "English"},
	})
	if err != nil {
		d.sendFailed(senderID, err)
	}
}

// reply answers a sender whose language is known with one text message.
func (d *Dispatcher) reply(ctx context.Context, senderID string, lang entities.Language, payload string) {
	d.metrics.DispatchTotal.WithLabelValues("reply").Inc()

	var key i18n.MessageKey
	switch payload {
	case entities.ButtonYes:
		key = i18n.KeyJob
	case entities.ButtonNo, entities.ButtonMaybe:
		key = i18n.KeyAdvice
	default:
		key = i18n.KeyDefaultResponse
	}

	body := d.catalog.Lookup(lang, key)
	d.recordSent(senderID, body, entities.CampaignBotReply)
	if err := d.messenger.SendText(ctx, senderID, body); err != nil {
		d.sendFailed(senderID, err)
	}
}

func (d *Dispatcher) recordSent(senderID, message, campaign string) {
	d.audit.Record(entities.AuditEntry{
		SenderID:  senderID,
		Channel:   entities.ChannelWhatsApp,
		Message:   message,
		Direction: entities.DirectionSent,
		Campaign:  campaign,
		Agent:     entities.AgentBot,
	})
}

// sendFailed logs a transport error. Not retried; the sender gets nothing.
func (d *Dispatcher) sendFailed(senderID string, err error) {
	d.metrics.SendErrorsTotal.Inc()
	d.log.Error("failed to send message", "sender", senderID, "error", err)
}
