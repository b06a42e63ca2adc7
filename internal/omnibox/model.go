// Package omnibox implements a search box that queries every entity kind at
// once, groups the hits by kind and lets the user pick one with the keyboard
// or the mouse.
package omnibox

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"omnibox/internal/debounce"
	"omnibox/internal/domain"
	"omnibox/internal/eventbus"
	"omnibox/internal/search"
)

const DefaultPlaceholder = "Search contacts, listings, transactions…"

// Options configures a Model. Only Searcher is required.
type Options struct {
	Searcher      search.Searcher
	Context       context.Context // bounds every request; defaults to context.Background()
	Debounce      time.Duration
	Timeout       time.Duration
	LimitPerGroup int
	Placeholder   string
	Kinds         []domain.Kind // restricts results to these kinds
	Width         int
	Source        string // names the host in events and logs

	// OnPick is invoked exactly once per commit. The returned command is
	// handed back to the Bubble Tea runtime.
	OnPick func(domain.Pick) tea.Cmd
	// Notify is an optional toast port for non-blocking messages
	Notify func(string)

	Bus    eventbus.EventBus
	Logger *zap.Logger
}

// Model is the Bubble Tea component wrapping a Session
type Model struct {
	session *Session
	ctrl    *debounce.Controller
	input   textinput.Model
	spinner spinner.Model
	keys    KeyMap
	styles  Styles

	kinds  []domain.Kind
	source string
	onPick func(domain.Pick) tea.Cmd
	notify func(string)
	bus    eventbus.EventBus
	logger *zap.Logger

	width   int
	originX int
	originY int
	closed  bool
}

// New creates an omnibox. It starts blurred.
func New(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Source == "" {
		opts.Source = "omnibox"
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if opts.Width <= 0 {
		opts.Width = 60
	}
	logger = logger.Named(opts.Source)

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = opts.Placeholder
	ti.Width = inputWidth(opts.Width)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		session: NewSession(),
		ctrl: debounce.New(opts.Context, opts.Searcher, debounce.Options{
			Delay:         opts.Debounce,
			Timeout:       opts.Timeout,
			LimitPerGroup: opts.LimitPerGroup,
			Logger:        logger,
		}),
		input:   ti,
		spinner: sp,
		keys:    DefaultKeyMap(),
		styles:  NewStyles(),
		kinds:   opts.Kinds,
		source:  opts.Source,
		onPick:  opts.OnPick,
		notify:  opts.Notify,
		bus:     opts.Bus,
		logger:  logger,
		width:   opts.Width,
	}
	m.input.PromptStyle = m.styles.Prompt
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}

	switch msg := msg.(type) {
	case debounce.FireMsg:
		return m, m.handleFire(msg)

	case debounce.ResultMsg:
		if msg.ID != m.ctrl.ID() {
			return m, nil
		}
		m.handleResult(msg)
		return m, nil

	case spinner.TickMsg:
		if m.session.Status != StatusSearching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if !m.input.Focused() {
			return m, nil
		}
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Down):
		if !m.session.Open {
			return m.apply(m.session.Reopen())
		}
		m.session.MoveDown()
		return nil

	case key.Matches(msg, m.keys.Up):
		m.session.MoveUp()
		return nil

	case key.Matches(msg, m.keys.Select):
		if !m.session.Open {
			return m.apply(m.session.Reopen())
		}
		if hit, ok := m.session.Commit(); ok {
			return m.pick(hit)
		}
		return nil

	case key.Matches(msg, m.keys.Close):
		m.session.Escape()
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.apply(m.session.SetInput(m.input.Value())))
}

func (m *Model) handleFire(msg debounce.FireMsg) tea.Cmd {
	if !m.ctrl.Owns(msg) {
		return nil
	}
	token, cmd := m.ctrl.Fire(msg)
	if cmd == nil {
		return nil
	}
	m.session.Issue(token, msg.Text)
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) handleResult(msg debounce.ResultMsg) {
	results := msg.Results.Filter(m.kinds...)
	if !m.session.Apply(msg.Token, results, msg.Err) {
		if !search.IsCanceled(msg.Err) {
			m.logger.Debug("stale response discarded", zap.String("query", msg.Query), zap.String("token", msg.Token))
		}
		return
	}

	if msg.Err != nil {
		m.logger.Warn("search failed", zap.String("query", msg.Query), zap.Error(msg.Err))
		m.publish(domain.SearchFailedEvent{Source: m.source, Query: msg.Query, Err: msg.Err})
		if m.notify != nil {
			m.notify("couldn't search for " + msg.Query)
		}
		return
	}

	m.logger.Debug("search completed", zap.String("query", msg.Query), zap.Int("hits", results.Len()))
	m.publish(domain.SearchCompletedEvent{Source: m.source, Query: msg.Query, Hits: results.Len()})
}

func (m *Model) apply(effect Effect) tea.Cmd {
	switch effect {
	case EffectSchedule:
		return m.ctrl.Schedule(m.session.RawQuery)
	case EffectCancel:
		m.ctrl.Cancel()
	}
	return nil
}

// pick hands a committed hit to the host. The session has already been reset.
func (m *Model) pick(hit domain.SearchHit) tea.Cmd {
	m.ctrl.Cancel()
	m.input.SetValue("")

	p := domain.PickFromHit(hit)
	m.logger.Info("picked", zap.String("kind", string(p.Kind)), zap.String("id", p.ID))
	m.publish(domain.PickedEvent{Source: m.source, Pick: p})

	if m.onPick == nil {
		return nil
	}
	return m.onPick(p)
}

func (m *Model) publish(event domain.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// SetQuery replaces the input text as if it had been typed
func (m *Model) SetQuery(text string) tea.Cmd {
	if m.closed {
		return nil
	}
	m.input.SetValue(text)
	m.input.CursorEnd()
	return m.apply(m.session.SetInput(text))
}

// Focus focuses the input
func (m *Model) Focus() tea.Cmd {
	if m.closed {
		return nil
	}
	return m.input.Focus()
}

// Blur removes focus and closes the dropdown
func (m *Model) Blur() {
	m.input.Blur()
	m.session.ClickOutside()
}

// Focused reports whether the input has focus
func (m *Model) Focused() bool {
	return m.input.Focused()
}

// Close cancels the pending timer and in-flight request. The model ignores
// every message afterwards.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.ctrl.Close()
	m.session.Reset()
	m.input.Blur()
	m.closed = true
}

// SetOrigin tells the model where its top-left corner is drawn on screen.
// It is used to hit-test mouse events.
func (m *Model) SetOrigin(x, y int) {
	m.originX, m.originY = x, y
}

// SetWidth sets the rendered width
func (m *Model) SetWidth(width int) {
	if width <= 2 {
		return
	}
	m.width = width
	m.input.Width = inputWidth(width)
}

// inputWidth leaves room for the prompt and the trailing cursor cell
func inputWidth(width int) int {
	return max(width-3, 1)
}

// Query returns the literal input text
func (m *Model) Query() string {
	return m.session.RawQuery
}

// IsOpen reports whether the dropdown is visible
func (m *Model) IsOpen() bool {
	return m.session.Open
}

// Status returns the search status
func (m *Model) Status() Status {
	return m.session.Status
}

// Results returns the current grouped results
func (m *Model) Results() domain.GroupedResults {
	return m.session.Results
}

// Highlighted returns the highlighted flat index, or -1
func (m *Model) Highlighted() int {
	return m.session.Highlighted
}

// Keys returns the key map, for help rendering
func (m *Model) Keys() KeyMap {
	return m.keys
}
