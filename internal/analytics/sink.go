// Package analytics delivers pick events to the BFF and reads aggregate
// counts back. Delivery is fire-and-forget: it never blocks or alters the
// pick flow.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"omnibox/internal/domain"
	"omnibox/internal/eventbus"
)

const (
	DefaultBufferSize = 64
	DefaultTimeout    = 3 * time.Second
)

// Options configures a Sink
type Options struct {
	Endpoint   string // BFF base URL
	HTTPClient *http.Client
	BufferSize int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Sink queues pick records and posts them in the background
type Sink struct {
	url     string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	queue  chan domain.PickRecord
	closed bool

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewSink starts a sink posting to <endpoint>/api/picks
func NewSink(opts Options) (*Sink, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("analytics: endpoint is required")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		url:     strings.TrimSuffix(opts.Endpoint, "/") + "/api/picks",
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		logger:  logger.Named("analytics"),
		now:     time.Now,
		queue:   make(chan domain.PickRecord, opts.BufferSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Record queues rec. It never blocks: when the queue is full or the sink is
// closed the record is dropped and false is returned.
func (s *Sink) Record(rec domain.PickRecord) bool {
	if rec.PickedAt.IsZero() {
		rec.PickedAt = s.now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- rec:
		return true
	default:
		s.dropped.Add(1)
		s.logger.Warn("analytics queue full, dropping pick", zap.String("kind", string(rec.Kind)), zap.String("entity_id", rec.EntityID))
		return false
	}
}

// Subscribe records every PickedEvent published on bus. The returned
// function unsubscribes.
func (s *Sink) Subscribe(bus eventbus.EventBus) func() {
	return bus.Subscribe(eventbus.EventPicked, func(e eventbus.DomainEvent) {
		picked, ok := e.(eventbus.PickedEvent)
		if !ok {
			return
		}
		s.Record(domain.PickRecord{
			Kind:     picked.Pick.Kind,
			EntityID: picked.Pick.ID,
			Label:    picked.Pick.Title,
		})
	})
}

// Close stops accepting records and waits for the queue to drain. When ctx
// expires first, in-flight deliveries are aborted and ctx.Err() is returned.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}

// Stats returns delivered, dropped and failed record counts
func (s *Sink) Stats() (sent, dropped, failed int64) {
	return s.sent.Load(), s.dropped.Load(), s.failed.Load()
}

func (s *Sink) run() {
	defer close(s.done)
	for rec := range s.queue {
		if s.ctx.Err() != nil {
			s.failed.Add(1)
			continue
		}
		if err := s.deliver(rec); err != nil {
			s.failed.Add(1)
			s.logger.Debug("analytics delivery failed", zap.String("entity_id", rec.EntityID), zap.Error(err))
			continue
		}
		s.sent.Add(1)
	}
}

func (s *Sink) deliver(rec domain.PickRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode pick: %w", err)
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
