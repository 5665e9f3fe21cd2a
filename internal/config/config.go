package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the process reads from the environment.
type Config struct {
	Port string

	// Storage. When DatabaseURL is empty the bot falls back to a local
	// SQLite file, which is what the legacy deployment ran on.
	DatabaseURL string
	SQLitePath  string

	// WhatsApp Cloud API.
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
	VerifyToken   string
	GraphBaseURL  string

	GreetingImageURL string

	// Dashboard.
	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// Audit sink.
	AuditQueueSize  int
	MirrorFlushWait time.Duration
	MirrorBatchSize int

	// Spreadsheet mirror (S3-compatible). Mirroring is disabled when the
	// endpoint is empty.
	ExportEndpoint    string
	ExportAccessKeyID string
	ExportSecretKey   string
	ExportBucket      string
	ExportObjectKey   string

	LogLevel string
}

// Load parses the environment. Missing credentials are a startup error, never
// a request-time one.
func Load() (Config, error) {
	cfg := Config{
		Port:        getString("PORT", "8080"),
		DatabaseURL: getString("DATABASE_URL", ""),
		SQLitePath:  getString("SQLITE_PATH", "metapython.db"),

		AccessToken:   os.Getenv("META_WHATSAPP_ACCESS_TOKEN"),
		PhoneNumberID: os.Getenv("META_WHATSAPP_PHONE_NUMBER_ID"),
		APIVersion:    getString("API_WHATSAPP_VERSION", "v19.0"),
		VerifyToken:   os.Getenv("META_WHATSAPP_TOKEN_CODE"),
		GraphBaseURL:  getString("GRAPH_BASE_URL", "https://graph.facebook.com"),

		GreetingImageURL: getString("GREETING_IMAGE_URL",
			"https://res.cloudinary.com/dioy4cydg/image/upload/v1747884690/imagen_index_wjog6p.jpg"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsername: getString("ADMIN_USERNAME", "root"),
		AdminPassword: getString("ADMIN_PASSWORD", "root"),

		AuditQueueSize:  getInt("AUDIT_QUEUE_SIZE", 1024),
		MirrorFlushWait: time.Duration(getInt("MIRROR_FLUSH_WAIT_MS", 5000)) * time.Millisecond,
		MirrorBatchSize: getInt("MIRROR_BATCH_SIZE", 50),

		ExportEndpoint:    os.Getenv("EXPORT_S3_ENDPOINT"),
		ExportAccessKeyID: os.Getenv("EXPORT_S3_ACCESS_KEY_ID"),
		ExportSecretKey:   os.Getenv("EXPORT_S3_SECRET_KEY"),
		ExportBucket:      os.Getenv("EXPORT_S3_BUCKET"),
		ExportObjectKey:   getString("EXPORT_S3_OBJECT_KEY", "exports/conversaciones.csv"),

		LogLevel: getString("LOG_LEVEL", "info"),
	}

	var missing []string
	for name, value := range map[string]string{
		"META_WHATSAPP_ACCESS_TOKEN":    cfg.AccessToken,
		"META_WHATSAPP_PHONE_NUMBER_ID": cfg.PhoneNumberID,
		"META_WHATSAPP_TOKEN_CODE":      cfg.VerifyToken,
		"JWT_SECRET":                    cfg.JWTSecret,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// MirrorEnabled reports whether the spreadsheet mirror is configured.
func (c Config) MirrorEnabled() bool {
	return c.ExportEndpoint != "" && c.ExportBucket != ""
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
