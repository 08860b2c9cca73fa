package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder default tuning.
const (
	DefaultBufferSize   = 1024
	DefaultWriteTimeout = 5 * time.Second
)

// RecorderConfig tunes the async recorder.
type RecorderConfig struct {
	// BufferSize is the write channel capacity. When the buffer is full
	// new records are dropped and counted, never blocking the caller.
	BufferSize int

	// WriteTimeout bounds each backend write.
	WriteTimeout time.Duration
}

// ApplyDefaults fills unset fields.
func (c *RecorderConfig) ApplyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// Recorder writes records to a Store from a background worker so the chat
// path never blocks on storage. Close drains the buffer before returning.
type Recorder struct {
	store   Store
	config  RecorderConfig
	records chan *Record
	dropped atomic.Int64

	wg     sync.WaitGroup
	closed atomic.Bool
	logger *slog.Logger
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(store Store, cfg RecorderConfig) *Recorder {
	cfg.ApplyDefaults()

	r := &Recorder{
		store:   store,
		config:  cfg,
		records: make(chan *Record, cfg.BufferSize),
		logger:  slog.Default().With("component", "journal"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record enqueues a usage record, assigning its id and timestamp when
// unset. It never blocks: a full buffer drops the record and counts it.
func (r *Recorder) Record(record *Record) {
	if r.closed.Load() {
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	select {
	case r.records <- record:
	default:
		dropped := r.dropped.Add(1)
		if dropped == 1 || dropped%1000 == 0 {
			r.logger.Warn("journal buffer full, dropping records", "dropped_total", dropped)
		}
	}
}

// Dropped returns how many records were lost to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting records, drains the buffer, and returns once every
// buffered record is written (or failed).
func (r *Recorder) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.records)
	r.wg.Wait()
	return nil
}

// worker drains the channel until Close.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for record := range r.records {
		r.write(record)
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Save(ctx, record); err != nil {
		r.logger.Error("journal write failed",
			"record_id", record.ID,
			"provider", record.Provider,
			"error", err,
		)
	}
}
