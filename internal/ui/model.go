// Package ui is the terminal host application: a header omnibox that
// navigates to the picked entity and a record form with contact and listing
// pickers.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"omnibox/internal/config"
	"omnibox/internal/domain"
	"omnibox/internal/eventbus"
	"omnibox/internal/omnibox"
	"omnibox/internal/picker"
	"omnibox/internal/search"
)

// Form is the record being edited
type Form struct {
	ContactID string
	ListingID string
}

// Deps wires the model to its collaborators
type Deps struct {
	Context  context.Context
	Config   *config.Config
	Searcher search.Searcher
	Resolver picker.LabelResolver // optional; without it labels fall back to ids
	Bus      eventbus.EventBus
	Logger   *zap.Logger
}

type focus int

const (
	focusHeader focus = iota
	focusContact
	focusListing
	focusCount
)

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config
	logger *zap.Logger

	header  *omnibox.Model
	contact *picker.Picker
	listing *picker.Picker
	form    Form
	initial Form

	focus  focus
	route  string
	status string

	width    int
	height   int
	help     help.Model
	keys     keyMap
	showHelp bool
	closed   bool
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	formStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	routeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewModel creates a new UI model. initial seeds the form; its ids are
// resolved to labels on Init.
func NewModel(deps Deps, initial Form) *Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		bus:     deps.Bus,
		config:  cfg,
		logger:  logger,
		initial: initial,
		route:   "/",
		width:   80,
		help:    help.New(),
	}

	m.header = omnibox.New(omnibox.Options{
		Searcher:      deps.Searcher,
		Context:       deps.Context,
		Debounce:      cfg.Search.Debounce.Duration,
		Timeout:       cfg.Search.Timeout.Duration,
		LimitPerGroup: cfg.Search.LimitPerGroup,
		Placeholder:   cfg.Search.Placeholder,
		Source:        "header",
		OnPick:        m.navigate,
		Notify:        m.notify,
		Bus:           deps.Bus,
		Logger:        logger,
	})

	newPicker := func(kind domain.Kind, onChange func(string) tea.Cmd) *picker.Picker {
		return picker.New(picker.Options{
			Kind:          kind,
			Searcher:      deps.Searcher,
			Resolver:      deps.Resolver,
			Context:       deps.Context,
			Debounce:      cfg.Search.Debounce.Duration,
			SearchTimeout: cfg.Search.Timeout.Duration,
			LookupTimeout: cfg.CRUD.Timeout.Duration,
			LimitPerGroup: cfg.Search.LimitPerGroup,
			OnChange:      onChange,
			Notify:        m.notify,
			Bus:           deps.Bus,
			Logger:        logger,
		})
	}
	m.contact = newPicker(domain.KindContact, func(id string) tea.Cmd {
		m.form.ContactID = id
		return nil
	})
	m.listing = newPicker(domain.KindListing, func(id string) tea.Cmd {
		m.form.ListingID = id
		return nil
	})

	m.keys = newKeyMap(m.header.Keys())
	m.layout()
	return m
}

func (m *Model) navigate(p domain.Pick) tea.Cmd {
	m.route = Route(p.Kind, p.ID)
	m.notify(fmt.Sprintf("Opened %s %s", strings.ToLower(strings.TrimSuffix(p.Kind.Label(), "s")), p.Title))
	m.logger.Info("navigate", zap.String("route", m.route))
	return nil
}

// notify is the toast port handed to every search box
func (m *Model) notify(msg string) {
	m.status = msg
}

// Init focuses the header and resolves the labels of the initial form
func (m *Model) Init() tea.Cmd {
	m.form = m.initial
	return tea.Batch(
		m.header.Focus(),
		m.contact.SetValue(m.initial.ContactID),
		m.listing.SetValue(m.initial.ListingID),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}
	defer m.layout()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.setFocus((m.focus + 1) % focusCount)
		case key.Matches(msg, m.keys.Prev):
			return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			if p := m.focusedPicker(); p != nil {
				return m, p.Clear()
			}
			return m, nil
		}
		return m, m.updateFocused(msg)

	case tea.MouseMsg:
		var cmds []tea.Cmd
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if target, ok := m.targetAt(msg.Y); ok && target != m.focus {
				cmds = append(cmds, m.setFocus(target))
			}
		}
		return m, tea.Batch(append(cmds, m.broadcast(msg))...)
	}

	return m, m.broadcast(msg)
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	switch m.focus {
	case focusContact:
		return m.contact.Update(msg)
	case focusListing:
		return m.listing.Update(msg)
	default:
		_, cmd := m.header.Update(msg)
		return cmd
	}
}

// broadcast hands msg to every component; each ignores what it does not own
func (m *Model) broadcast(msg tea.Msg) tea.Cmd {
	_, cmd := m.header.Update(msg)
	return tea.Batch(cmd, m.contact.Update(msg), m.listing.Update(msg))
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.header.Blur()
	m.contact.Blur()
	m.listing.Blur()
	m.focus = f

	switch f {
	case focusContact:
		return m.contact.Focus()
	case focusListing:
		return m.listing.Focus()
	default:
		return m.header.Focus()
	}
}

func (m *Model) focusedPicker() *picker.Picker {
	switch m.focus {
	case focusContact:
		return m.contact
	case focusListing:
		return m.listing
	}
	return nil
}

// Rows of the layout. Dropdowns push the content below them down.
func (m *Model) headerRow() int  { return 1 }
func (m *Model) contactRow() int { return m.headerRow() + m.header.Height() + 2 }
func (m *Model) listingRow() int { return m.contactRow() + m.contact.Height() }

func (m *Model) layout() {
	w := max(m.width, 20)
	m.header.SetWidth(w)
	m.contact.SetWidth(w)
	m.listing.SetWidth(w)

	m.header.SetOrigin(0, m.headerRow())
	m.contact.SetOrigin(0, m.contactRow())
	m.listing.SetOrigin(0, m.listingRow())
}

func (m *Model) targetAt(y int) (focus, bool) {
	switch {
	case y >= m.headerRow() && y < m.headerRow()+m.header.Height():
		return focusHeader, true
	case y >= m.contactRow() && y < m.contactRow()+m.contact.Height():
		return focusContact, true
	case y >= m.listingRow() && y < m.listingRow()+m.listing.Height():
		return focusListing, true
	}
	return 0, false
}

// View renders the UI
func (m *Model) View() string {
	if m.closed {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Omnibox"))
	b.WriteString("\n")
	b.WriteString(m.header.View())
	b.WriteString("\n\n")
	b.WriteString(formStyle.Render("Transaction"))
	b.WriteString("\n")
	b.WriteString(m.contact.View())
	b.WriteString("\n")
	b.WriteString(m.listing.View())
	b.WriteString("\n\n")
	b.WriteString(routeStyle.Render("Route: " + m.route))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Close cancels every pending search and lookup
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.header.Close()
	m.contact.Close()
	m.listing.Close()
	m.closed = true
}

// Form returns the current form values
func (m *Model) Form() Form {
	return m.form
}

// Route returns the page the header omnibox last navigated to
func (m *Model) Route() string {
	return m.route
}

// Status returns the last status line message
func (m *Model) Status() string {
	return m.status
}
