package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticallbot/internal/entities"
	"ticallbot/internal/interfaces"
	"ticallbot/internal/metrics"
)

// AuditSink is the bounded work queue between the reply path and audit
// storage. Record enqueues without blocking; a single consumer goroutine
// writes every entry to primary storage immediately and mirrors batches to
// the spreadsheet exporter on a timer.
//
// Per-sender ordering holds because there is exactly one consumer. The mirror
// may lag or lose rows; primary failures drop the one in-flight entry and
// never stall the queue.
type AuditSink struct {
	queue    chan entities.AuditEntry
	store    interfaces.LogStore
	exporter interfaces.SheetExporter // nil when mirroring is disabled

	flushWait time.Duration
	batchMax  int

	log     *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAuditSink(
	store interfaces.LogStore,
	exporter interfaces.SheetExporter,
	queueSize int,
	flushWait time.Duration,
	batchMax int,
	logger *slog.Logger,
	m *metrics.Metrics,
) *AuditSink {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if batchMax <= 0 {
		batchMax = 50
	}
	if flushWait <= 0 {
		flushWait = 5 * time.Second
	}
	return &AuditSink{
		queue:     make(chan entities.AuditEntry, queueSize),
		store:     store,
		exporter:  exporter,
		flushWait: flushWait,
		batchMax:  batchMax,
		log:       logger,
		metrics:   m,
	}
}

// Record assigns the entry an id and timestamp and enqueues it. When the
// queue is full the entry is dropped with a warning; the reply path is never
// allowed to block on storage.
func (s *AuditSink) Record(entry entities.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	// The read lock keeps Close from closing the channel mid-send.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.Warn("audit sink closed, dropping entry", "sender", entry.SenderID)
		s.metrics.AuditDroppedTotal.Inc()
		return
	}

	select {
	case s.queue <- entry:
		s.metrics.AuditQueueDepth.Set(float64(len(s.queue)))
	default:
		s.log.Warn("audit queue full, dropping entry", "sender", entry.SenderID)
		s.metrics.AuditDroppedTotal.Inc()
	}
}

// Start launches the consumer. ctx only bounds the mirror writes; draining is
// controlled by Close.
func (s *AuditSink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		pending := make([]entities.AuditEntry, 0, s.batchMax)
		t := time.NewTimer(s.flushWait)
		defer t.Stop()

		resetTimer := func() {
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(s.flushWait)
		}

		flushMirror := func() {
			if s.exporter == nil || len(pending) == 0 {
				pending = pending[:0]
				resetTimer()
				return
			}
			if err := s.exporter.Append(ctx, pending); err != nil {
				// Swallowed: the mirror is best effort and never retried.
				s.log.Warn("spreadsheet mirror append failed", "rows", len(pending), "error", err)
				s.metrics.AuditWriteFailures.WithLabelValues("mirror").Inc()
			}
			pending = pending[:0]
			resetTimer()
		}

		for {
			select {
			case entry, ok := <-s.queue:
				if !ok {
					flushMirror()
					return
				}
				s.metrics.AuditQueueDepth.Set(float64(len(s.queue)))
				if err := s.store.Append(ctx, entry); err != nil {
					s.log.Error("audit write failed", "sender", entry.SenderID, "error", err)
					s.metrics.AuditWriteFailures.WithLabelValues("primary").Inc()
					// An entry that never made primary storage is not mirrored either.
					continue
				}
				pending = append(pending, entry)
				if len(pending) >= s.batchMax {
					flushMirror()
				}
			case <-t.C:
				flushMirror()
			}
		}
	}()
}

// Close stops accepting entries, drains the queue, flushes the mirror and
// waits for the consumer to finish.
func (s *AuditSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}
