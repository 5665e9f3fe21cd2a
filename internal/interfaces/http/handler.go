package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticallbot/internal/entities"
	"ticallbot/internal/interfaces"
	"ticallbot/internal/metrics"
	"ticallbot/internal/usecases"
)

type Handler struct {
	dispatcher  interfaces.EventHandler
	dashboard   *usecases.DashboardUsecase
	verifyToken string
	log         *slog.Logger
	metrics     *metrics.Metrics
}

func NewHandler(dispatcher interfaces.EventHandler, dashboard *usecases.DashboardUsecase, verifyToken string, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		dispatcher:  dispatcher,
		dashboard:   dashboard,
		verifyToken: verifyToken,
		log:         logger,
		metrics:     m,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, auth *usecases.AuthUsecase, middleware *Middleware, registry *prometheus.Registry) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size

	// Provider-facing webhook
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Public Auth Routes
	r.POST("/api/auth/login", func(c *gin.Context) {
		var loginReq struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&loginReq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		token, err := auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// Protected Dashboard Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/logs", h.GetLogs)
		api.GET("/dashboard/stats", h.GetStats)
	}
}

// VerifyWebhook answers the provider's GET handshake: echo hub.challenge iff
// hub.verify_token matches the configured secret.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if challenge != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
}

// webhookEnvelope is the provider's nested delivery format. Only the first
// message of the first change of the first entry is used; the provider sends
// one message per delivery in practice, so extra batched events are ignored.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
}

// ReceiveWebhook handles POST deliveries. It always acknowledges with 200 and
// EVENT_RECEIVED no matter what happens inside; anything else makes the
// provider retry-storm the endpoint.
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic while processing webhook", "panic", r)
		}
		h.metrics.WebhookDurationSeconds.Observe(time.Since(start).Seconds())
		c.JSON(http.StatusOK, gin.H{"message": "EVENT_RECEIVED"})
	}()

	var envelope webhookEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.log.Warn("unparseable webhook payload", "error", err)
		h.metrics.WebhookRequestsTotal.WithLabelValues("malformed").Inc()
		return
	}

	msg, ok := firstMessage(envelope)
	if !ok {
		// Status updates and other non-message deliveries land here.
		h.metrics.WebhookRequestsTotal.WithLabelValues("empty").Inc()
		return
	}

	ev, ok := toEvent(msg)
	if !ok {
		h.log.Info("ignoring unsupported message", "type", msg.Type, "from", msg.From)
		h.metrics.WebhookRequestsTotal.WithLabelValues("malformed").Inc()
		return
	}

	h.metrics.WebhookRequestsTotal.WithLabelValues("processed").Inc()
	h.dispatcher.Handle(c.Request.Context(), ev)
}

func firstMessage(envelope webhookEnvelope) (webhookMessage, bool) {
	if len(envelope.Entry) == 0 ||
		len(envelope.Entry[0].Changes) == 0 ||
		len(envelope.Entry[0].Changes[0].Value.Messages) == 0 {
		return webhookMessage{}, false
	}
	return envelope.Entry[0].Changes[0].Value.Messages[0], true
}

func toEvent(msg webhookMessage) (entities.Event, bool) {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return entities.Event{}, false
		}
		return entities.Event{
			SenderID: msg.From,
			Kind:     entities.EventFreeText,
			Payload:  SanitizeString(msg.Text.Body),
		}, true
	case "interactive":
		if msg.Interactive == nil || msg.Interactive.ButtonReply == nil {
			return entities.Event{}, false
		}
		return entities.Event{
			SenderID: msg.From,
			Kind:     entities.EventButtonReply,
			Payload:  SanitizeString(msg.Interactive.ButtonReply.ID),
		}, true
	}
	return entities.Event{}, false
}

func (h *Handler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.dashboard.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": toLogViews(entries)})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type logView struct {
	ID        string `json:"id"`
	Timestamp string `json:"fecha_y_hora"`
	SenderID  string `json:"telefono_usuario_id"`
	Channel   string `json:"plataforma"`
	Message   string `json:"mensaje"`
	Direction string `json:"estado_usuario"`
	Campaign  string `json:"etiqueta_campana"`
	Agent     string `json:"agente"`
}

func toLogViews(entries []entities.AuditEntry) []logView {
	views := make([]logView, 0, len(entries))
	for _, e := range entries {
		views = append(views, logView{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
			SenderID:  e.SenderID,
			Channel:   e.Channel,
			Message:   e.Message,
			Direction: string(e.Direction),
			Campaign:  e.Campaign,
			Agent:     e.Agent,
		})
	}
	return views
}
