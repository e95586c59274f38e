package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/blogium/blogium-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const batchSize = 50

// PGHandler is an slog.Handler that batches ERROR+ logs into system_logs.
// Dead-lettered side effects reach the table through it.
type PGHandler struct {
	db    *gorm.DB
	attrs []slog.Attr
	sink  *sink
}

type sink struct {
	mu     sync.Mutex
	buffer []models.SystemLog
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	h := &PGHandler{
		db: db,
		sink: &sink{
			buffer: make([]models.SystemLog, 0, batchSize),
			ticker: time.NewTicker(5 * time.Second),
			done:   make(chan struct{}),
		},
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	for {
		select {
		case <-h.sink.ticker.C:
			h.Flush()
		case <-h.sink.done:
			h.Flush()
			return
		}
	}
}

// Flush writes buffered records immediately.
func (h *PGHandler) Flush() {
	s := h.sink
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, batchSize)
	s.mu.Unlock()

	if err := h.db.CreateInBatches(batch, batchSize).Error; err != nil {
		// Level Warn keeps this out of our own Enabled window.
		slog.Warn("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

func (h *PGHandler) Stop() {
	h.sink.once.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "event":
			entry.Event = a.Value.String()
		case "trace_id", "request_id":
			entry.TraceID = a.Value.String()
		case "user_id":
			if id, ok := toUint(a.Value); ok {
				entry.UserID = &id
			}
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			if f, ok := a.Value.Any().(float64); ok {
				entry.LatencyMs = int(math.Round(f))
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	s := h.sink
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	needFlush := len(s.buffer) >= batchSize
	s.mu.Unlock()

	if needFlush {
		go h.Flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{db: h.db, attrs: merged, sink: h.sink}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}

func toUint(v slog.Value) (uint, bool) {
	switch v.Kind() {
	case slog.KindUint64:
		return uint(v.Uint64()), true
	case slog.KindInt64:
		if v.Int64() > 0 {
			return uint(v.Int64()), true
		}
	}
	return 0, false
}
