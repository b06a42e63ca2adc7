// Package debounce turns a stream of input changes into at most one
// outstanding search per settled input.
//
// Timers are tea.Tick commands tagged with a generation number; only the
// tick of the latest generation is honoured. Firing cancels the previous
// in-flight request's context before issuing the next one, and every issued
// request gets a fresh token that the caller compares when the result arrives.
package debounce

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"omnibox/internal/domain"
	"omnibox/internal/search"
)

const (
	DefaultDelay   = 250 * time.Millisecond
	DefaultTimeout = 8 * time.Second
)

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

// FireMsg is delivered when a debounce timer elapses
type FireMsg struct {
	id   int
	seq  uint64
	Text string
}

// ResultMsg carries the outcome of an issued request
type ResultMsg struct {
	ID      int
	Token   string
	Query   string
	Results domain.GroupedResults
	Err     error
}

// Options configures a Controller
type Options struct {
	Delay         time.Duration
	Timeout       time.Duration
	LimitPerGroup int
	Logger        *zap.Logger
}

// Controller owns the debounce timer and the in-flight request of one search box.
// It is not safe for concurrent use; call it from the Bubble Tea update loop.
type Controller struct {
	id       int
	parent   context.Context
	searcher search.Searcher
	delay    time.Duration
	timeout  time.Duration
	limit    int
	logger   *zap.Logger

	seq    uint64
	token  string
	cancel context.CancelFunc
	closed bool
}

// New creates a controller. parent bounds the lifetime of every request.
func New(parent context.Context, searcher search.Searcher, opts Options) *Controller {
	if parent == nil {
		parent = context.Background()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		id:       nextID(),
		parent:   parent,
		searcher: searcher,
		delay:    opts.Delay,
		timeout:  opts.Timeout,
		limit:    opts.LimitPerGroup,
		logger:   logger.Named("debounce"),
	}
}

// ID identifies the messages produced by this controller
func (c *Controller) ID() int {
	return c.id
}

// Owns reports whether msg was produced by this controller
func (c *Controller) Owns(msg FireMsg) bool {
	return msg.id == c.id
}

// Token returns the token of the most recently issued request
func (c *Controller) Token() string {
	return c.token
}

// Schedule (re)starts the debounce timer for text. Blank text short-circuits:
// the pending timer and any in-flight request are cancelled and no command
// is returned.
func (c *Controller) Schedule(text string) tea.Cmd {
	if c.closed {
		return nil
	}
	c.seq++
	if strings.TrimSpace(text) == "" {
		c.cancelInFlight()
		return nil
	}

	id, seq := c.id, c.seq
	if c.delay == 0 {
		return func() tea.Msg {
			return FireMsg{id: id, seq: seq, Text: text}
		}
	}
	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return FireMsg{id: id, seq: seq, Text: text}
	})
}

// Fire handles an elapsed timer. Superseded ticks return an empty token and a
// nil command. Otherwise the previous request is cancelled and a command
// issuing the new one is returned together with its token.
func (c *Controller) Fire(msg FireMsg) (string, tea.Cmd) {
	if c.closed || msg.id != c.id || msg.seq != c.seq {
		return "", nil
	}
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return "", nil
	}

	c.cancelInFlight()
	ctx, cancel := context.WithTimeout(c.parent, c.timeout)
	c.cancel = cancel
	c.token = uuid.NewString()

	id, token, limit, searcher := c.id, c.token, c.limit, c.searcher
	c.logger.Debug("search issued", zap.String("query", query), zap.String("token", token))

	return token, func() tea.Msg {
		defer cancel()
		res, err := searcher.Search(ctx, query, limit)
		return ResultMsg{ID: id, Token: token, Query: query, Results: res, Err: err}
	}
}

// Cancel drops the pending timer and aborts the in-flight request
func (c *Controller) Cancel() {
	c.seq++
	c.cancelInFlight()
}

// Close cancels everything and makes the controller inert
func (c *Controller) Close() {
	c.Cancel()
	c.closed = true
}

func (c *Controller) cancelInFlight() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.token = ""
}
