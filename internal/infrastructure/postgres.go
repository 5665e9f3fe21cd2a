package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Audit log. Column names mirror the legacy spreadsheet export.
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS message_log (
			id VARCHAR(36) PRIMARY KEY,
			fecha_y_hora TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			telefono_usuario_id TEXT NOT NULL,
			plataforma TEXT,
			mensaje TEXT,
			estado_usuario TEXT,
			etiqueta_campana TEXT,
			agente TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("create message_log table: %w", err)
	}
	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_message_log_sender
		ON message_log (telefono_usuario_id, fecha_y_hora);
	`)
	if err != nil {
		return fmt.Errorf("create message_log index: %w", err)
	}

	// Per-sender language preference
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_languages (
			sender_id TEXT PRIMARY KEY,
			language VARCHAR(5) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create user_languages table: %w", err)
	}

	// Dashboard accounts
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
