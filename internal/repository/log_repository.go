package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"ticallbot/internal/entities"
)

// LogRepository is the primary append-only storage for audit entries.
type LogRepository struct {
	db *pgxpool.Pool
}

func NewLogRepository(db *pgxpool.Pool) *LogRepository {
	return &LogRepository{db: db}
}

// Append inserts one audit entry. A failed insert leaves nothing behind;
// there is no partial row to roll back beyond the statement itself.
func (r *LogRepository) Append(ctx context.Context, entry entities.AuditEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_log (id, fecha_y_hora, telefono_usuario_id, plataforma, mensaje, estado_usuario, etiqueta_campana, agente)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.Timestamp, entry.SenderID, entry.Channel,
		entry.Message, string(entry.Direction), entry.Campaign, entry.Agent)
	return err
}

// List returns the most recent entries, newest first.
func (r *LogRepository) List(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, fecha_y_hora, telefono_usuario_id, plataforma, mensaje, estado_usuario, etiqueta_campana, agente
		FROM message_log ORDER BY fecha_y_hora DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entities.AuditEntry{}
	for rows.Next() {
		var e entities.AuditEntry
		var direction string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.SenderID, &e.Channel, &e.Message, &direction, &e.Campaign, &e.Agent); err != nil {
			return nil, err
		}
		e.Direction = entities.Direction(direction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LogRepository) CountByDirection(ctx context.Context) (map[entities.Direction]int, error) {
	rows, err := r.db.Query(ctx,
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
