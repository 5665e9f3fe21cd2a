package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticallbot/internal/entities"
)

// LanguageRepository stores the per-sender language preference.
type LanguageRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewLanguageRepository(db *pgxpool.Pool, logger *slog.Logger) *LanguageRepository {
	return &LanguageRepository{db: db, log: logger}
}

// GetLanguage is failure-open: a transient database error reads the same as
// "never set". The dispatcher will re-prompt for a language in that case,
// which is the safe degradation for this bot.
func (r *LanguageRepository) GetLanguage(ctx context.Context, senderID string) (entities.Language, bool) {
	var lang string
	err := r.db.QueryRow(ctx,
		"SELECT language FROM user_languages WHERE sender_id = $1", senderID).Scan(&lang)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Warn("language lookup failed, treating as unset", "sender", senderID, "error", err)
		}
		return "", false
	}
	return entities.Language(lang), true
}

// SetLanguage upserts the preference. Last write wins.
func (r *LanguageRepository) SetLanguage(ctx context.Context, senderID string, lang entities.Language) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_languages (sender_id, language, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (sender_id) DO UPDATE SET language = EXCLUDED.language, updated_at = NOW()
	`, senderID, string(lang))
	return err
}
