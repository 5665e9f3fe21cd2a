package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"ticallbot/internal/entities"
)

// SQLiteStore is the local single-file fallback used when no DATABASE_URL is
// configured. It implements the same log, language and user stores as the
// Postgres repositories.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps SQLite happy under the audit sink's consumer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS message_log (
			id TEXT PRIMARY KEY,
			fecha_y_hora TEXT NOT NULL,
			telefono_usuario_id TEXT NOT NULL,
			plataforma TEXT,
			mensaje TEXT,
			estado_usuario TEXT,
			etiqueta_campana TEXT,
			agente TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_message_log_sender
			ON message_log (telefono_usuario_id, fecha_y_hora);
		CREATE TABLE IF NOT EXISTS user_languages (
			sender_id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT DEFAULT 'user'
		);
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append writes one audit entry. The row is either fully written or not at
// all; SQLite single statements are atomic.
func (s *SQLiteStore) Append(ctx context.Context, entry entities.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_log (id, fecha_y_hora, telefono_usuario_id, plataforma, mensaje, estado_usuario, etiqueta_campana, agente)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.SenderID,
		entry.Channel, entry.Message, string(entry.Direction), entry.Campaign, entry.Agent)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fecha_y_hora, telefono_usuario_id, plataforma, mensaje, estado_usuario, etiqueta_campana, agente
		FROM message_log ORDER BY fecha_y_hora DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entities.AuditEntry{}
	for rows.Next() {
		var e entities.AuditEntry
		var ts, direction string
		if err := rows.Scan(&e.ID, &ts, &e.SenderID, &e.Channel, &e.Message, &direction, &e.Campaign, &e.Agent); err != nil {
			return nil, err
		}
		e.Direction = entities.Direction(direction)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) CountByDirection(ctx context.Context) (map[entities.Direction]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT estado_usuario, COUNT(*) FROM message_log GROUP BY estado_usuario")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[entities.Direction]int{}
	for rows.Next() {
		var direction string
		var n int
		if err := rows.Scan(&direction, &n); err != nil {
			return nil, err
		}
		counts[entities.Direction(direction)] = n
	}
	return counts, rows.Err()
}

// GetLanguage is failure-open: any error reads as "no preference yet".
func (s *SQLiteStore) GetLanguage(ctx context.Context, senderID string) (entities.Language, bool) {
	var lang string
	err := s.db.QueryRowContext(ctx,
		"SELECT language FROM user_languages WHERE sender_id = ?", senderID).Scan(&lang)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("language lookup failed, treating as unset", "sender", senderID, "error", err)
		}
		return "", false
	}
	return entities.Language(lang), true
}

func (s *SQLiteStore) SetLanguage(ctx context.Context, senderID string, lang entities.Language) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_languages (sender_id, language, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (sender_id) DO UPDATE SET language = excluded.language, updated_at = excluded.updated_at
	`, senderID, string(lang), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, user *entities.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.Role)
	return err
}

func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
