package infrastructure

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"ticallbot/internal/entities"
)

// sheetHeader matches the legacy Google Sheet column layout.
var sheetHeader = []string{
	"ID", "Fecha y Hora", "Teléfono - Usuario ID", "Plataforma",
	"Mensaje", "Estado Usuario", "Etiqueta - Campaña", "Agente",
}

// SheetExporterConfig holds the S3-compatible storage settings for the mirror.
type SheetExporterConfig struct {
	Endpoint    string
	AccessKeyID string
	SecretKey   string
	Bucket      string
	ObjectKey   string
}

// SheetExporter mirrors audit rows into a single CSV object in S3-compatible
// storage, read-modify-write per batch. The mirror is best effort: errors are
// surfaced to the audit sink, which logs and moves on. The object may lag or
// lose rows relative to primary storage; that is the contract.
type SheetExporter struct {
	s3     *s3.Client
	bucket string
	key    string
}

func NewSheetExporter(ctx context.Context, cfg SheetExporterConfig) (*SheetExporter, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("sheet exporter: endpoint and bucket are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("sheet exporter: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &SheetExporter{s3: client, bucket: cfg.Bucket, key: cfg.ObjectKey}, nil
}

// Append downloads the current CSV (or starts a fresh one with the header row),
// appends the given entries, and uploads the whole object back. Concurrent
// writers are not a concern: the audit sink's single consumer is the only caller.
func (e *SheetExporter) Append(ctx context.Context, entries []entities.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	existing, err := e.download(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	} else if err := w.Write(sheetHeader); err != nil {
		return fmt.Errorf("sheet exporter: write header: %w", err)
	}
	for _, entry := range entries {
		row := []string{
			entry.ID,
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.SenderID,
			entry.Channel,
			entry.Message,
			string(entry.Direction),
			entry.Campaign,
			entry.Agent,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("sheet exporter: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("sheet exporter: flush csv: %w", err)
	}

	_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(e.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("sheet exporter: upload %q: %w", e.key, err)
	}
	return nil
}

func (e *SheetExporter) download(ctx context.Context) ([]byte, error) {
	result, err := e.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(e.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sheet exporter: download %q: %w", e.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("sheet exporter: read %q: %w", e.key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
