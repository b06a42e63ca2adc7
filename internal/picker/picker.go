// Package picker narrows the omnibox to a single entity kind and binds it to
// a form field holding an id.
package picker

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"omnibox/internal/domain"
	"omnibox/internal/eventbus"
	"omnibox/internal/omnibox"
	"omnibox/internal/search"
)

const DefaultLookupTimeout = 5 * time.Second

var lastID atomic.Int64

// LabelResolver resolves an id to a display label
type LabelResolver interface {
	Resolve(ctx context.Context, kind domain.Kind, id string) (string, error)
}

// LabelMsg carries the outcome of a by-id lookup. Hosts route it back
// through Update.
type LabelMsg struct {
	picker int
	id     string
	label  string
	err    error
}

// Options configures a Picker
type Options struct {
	Kind          domain.Kind
	Title         string // field caption, defaults to the kind
	Searcher      search.Searcher
	Resolver      LabelResolver
	Context       context.Context
	Debounce      time.Duration
	SearchTimeout time.Duration
	LookupTimeout time.Duration
	LimitPerGroup int
	Width         int

	// OnChange is called with the new id after a pick or Clear. An empty id
	// means no value.
	OnChange func(id string) tea.Cmd
	Notify   func(string)

	Bus    eventbus.EventBus
	Logger *zap.Logger
}

// Picker is a form field whose value is the id of one entity
type Picker struct {
	id       int
	kind     domain.Kind
	title    string
	box      *omnibox.Model
	resolver LabelResolver
	ctx      context.Context
	timeout  time.Duration
	onChange func(string) tea.Cmd
	bus      eventbus.EventBus
	logger   *zap.Logger

	value       string
	pickedTitle string // title of the hit the current value was picked or matched from
	resolvedID  string
	resolved    string
	resolving   bool

	closed bool
}

// New creates a picker with no value
func New(opts Options) *Picker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	title := opts.Title
	if title == "" {
		title = strings.TrimSuffix(opts.Kind.Label(), "s")
	}
	source := string(opts.Kind) + "-picker"

	p := &Picker{
		id:       int(lastID.Add(1)),
		kind:     opts.Kind,
		title:    title,
		resolver: opts.Resolver,
		ctx:      opts.Context,
		timeout:  opts.LookupTimeout,
		onChange: opts.OnChange,
		bus:      opts.Bus,
		logger:   logger.Named(source),
	}
	p.box = omnibox.New(omnibox.Options{
		Searcher:      opts.Searcher,
		Context:       opts.Context,
		Debounce:      opts.Debounce,
		Timeout:       opts.SearchTimeout,
		LimitPerGroup: opts.LimitPerGroup,
		Placeholder:   "Search " + strings.ToLower(opts.Kind.Label()) + "…",
		Kinds:         []domain.Kind{opts.Kind},
		Width:         opts.Width,
		Source:        source,
		OnPick:        p.handlePick,
		Notify:        opts.Notify,
		Bus:           opts.Bus,
		Logger:        logger,
	})
	return p
}

func (p *Picker) handlePick(pick domain.Pick) tea.Cmd {
	p.value = pick.ID
	p.pickedTitle = pick.Title
	p.resolving = false
	return p.changed()
}

func (p *Picker) changed() tea.Cmd {
	if p.onChange == nil {
		return nil
	}
	return p.onChange(p.value)
}

// Kind returns the entity kind the picker is restricted to
func (p *Picker) Kind() domain.Kind {
	return p.kind
}

// Value returns the selected id, or "" when nothing is selected
func (p *Picker) Value() string {
	return p.value
}

// SetValue sets the id from outside, e.g. when a form is loaded. When the id
// is not among the current results, the returned command looks its label up.
func (p *Picker) SetValue(id string) tea.Cmd {
	if p.closed {
		return nil
	}
	id = strings.TrimSpace(id)
	p.value = id
	p.pickedTitle = ""
	p.resolving = false
	if id == "" {
		return nil
	}
	results := p.box.Results()
	if i := results.IndexOf(p.kind, id); i >= 0 {
		hit, _ := results.At(i)
		p.pickedTitle = hit.Title
		return nil
	}
	if (p.resolvedID == id && p.resolved != "") || p.resolver == nil {
		return nil
	}
	return p.lookup(id)
}

func (p *Picker) lookup(id string) tea.Cmd {
	p.resolving = true
	picker, kind, resolver, parent, timeout := p.id, p.kind, p.resolver, p.ctx, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		label, err := resolver.Resolve(ctx, kind, id)
		return LabelMsg{picker: picker, id: id, label: label, err: err}
	}
}

// Clear removes the value without any network call
func (p *Picker) Clear() tea.Cmd {
	if p.closed || p.value == "" {
		return nil
	}
	p.value = ""
	p.pickedTitle = ""
	p.resolving = false
	return p.changed()
}

// Label returns the text shown for the current value. A hit in the current
// results wins over the title the value was picked with, which wins over a
// looked-up label, which wins over the raw id.
func (p *Picker) Label() string {
	if p.value == "" {
		return ""
	}
	results := p.box.Results()
	if i := results.IndexOf(p.kind, p.value); i >= 0 {
		hit, _ := results.At(i)
		return hit.Title
	}
	if p.pickedTitle != "" {
		return p.pickedTitle
	}
	if p.resolvedID == p.value && p.resolved != "" {
		return p.resolved
	}
	return p.value
}

// Resolving reports whether a label lookup is pending
func (p *Picker) Resolving() bool {
	return p.resolving
}

// Update routes messages to the picker and its search box
func (p *Picker) Update(msg tea.Msg) tea.Cmd {
	if p.closed {
		return nil
	}
	if msg, ok := msg.(LabelMsg); ok {
		if msg.picker == p.id {
			p.applyLabel(msg)
		}
		return nil
	}
	_, cmd := p.box.Update(msg)
	return cmd
}

func (p *Picker) applyLabel(msg LabelMsg) {
	if msg.id != p.value {
		return
	}
	p.resolving = false

	event := domain.LabelResolvedEvent{Kind: p.kind, ID: msg.id, Label: msg.label}
	if msg.err != nil {
		p.logger.Warn("label lookup failed, showing raw id", zap.String("id", msg.id), zap.Error(msg.err))
		p.resolvedID, p.resolved = "", ""
		event.Label = msg.id
		event.Fallback = true
	} else {
		p.resolvedID, p.resolved = msg.id, msg.label
	}
	if p.bus != nil {
		p.bus.Publish(event)
	}
}

// Focus focuses the search input
func (p *Picker) Focus() tea.Cmd {
	return p.box.Focus()
}

// Blur removes focus
func (p *Picker) Blur() {
	p.box.Blur()
}

// Focused reports whether the search input has focus
func (p *Picker) Focused() bool {
	return p.box.Focused()
}

// Searching reports whether the picker's dropdown is open
func (p *Picker) Searching() bool {
	return p.box.IsOpen()
}

// SetOrigin places the picker on screen for mouse hit-testing
func (p *Picker) SetOrigin(x, y int) {
	p.box.SetOrigin(x, y+1)
}

// SetWidth sets the rendered width
func (p *Picker) SetWidth(width int) {
	p.box.SetWidth(width)
}

// Height returns the number of rows View occupies
func (p *Picker) Height() int {
	return 1 + p.box.Height()
}

// Close cancels pending work; the picker is inert afterwards
func (p *Picker) Close() {
	p.box.Close()
	p.closed = true
}

var (
	captionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	emptyStyle   = lipgloss.NewStyle().Faint(true)
)

// View renders the field line followed by the search box
func (p *Picker) View() string {
	if p.closed {
		return ""
	}
	var value string
	switch {
	case p.value == "":
		value = emptyStyle.Render("none")
	case p.resolving:
		value = emptyStyle.Render(p.Label() + " …")
	default:
		value = valueStyle.Render(p.Label())
	}
	field := captionStyle.Render(p.title+":") + " " + value
	return lipgloss.JoinVertical(lipgloss.Left, field, p.box.View())
}
