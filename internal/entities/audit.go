package entities

import "time"

// Direction is the "Estado Usuario" column: whether the logged message was
// received from the sender or sent by the bot. Values match the legacy sheet.
type Direction string

const (
	DirectionReceived Direction = "recibido"
	DirectionSent     Direction = "enviado"
)

// Fixed label values carried into every audit row. The channel and campaign
// strings are the exact legacy spreadsheet values, emoji included.
const (
	ChannelWhatsApp        = "whatsapp 📞📱💬"
	AgentBot               = "Bot"
	CampaignInbound        = "Vacaciones"
	CampaignLanguageSelect = "Selección de Idioma"
	CampaignBotReply       = "Respuesta Bot"
)

// AuditEntry is one immutable log record of an inbound or outbound message.
// ID and Timestamp are assigned by the sink when the entry is enqueued.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	SenderID  string
	Channel   string
	Message   string
	Direction Direction
	Campaign  string
	Agent     string
}
