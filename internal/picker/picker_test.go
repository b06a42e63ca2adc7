package picker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"omnibox/internal/debounce"
	"omnibox/internal/domain"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, kind domain.Kind, id string) (string, error) {
	args := m.Called(ctx, kind, id)
	return args.String(0), args.Error(1)
}

type stubSearcher struct {
	mu      sync.Mutex
	results map[string]domain.GroupedResults
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) (domain.GroupedResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.results[query], nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// run executes cmd and feeds everything it produces back into p until the
// picker settles.
func run(p *Picker, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case LabelMsg, debounce.FireMsg, debounce.ResultMsg:
			queue = append(queue, p.Update(msg))
		}
	}
}

func contactResults(title string) domain.GroupedResults {
	return domain.NewGroupedResults([]domain.Group{{
		Kind: domain.KindContact,
		Hits: []domain.SearchHit{{Kind: domain.KindContact, ID: "c1", Title: title}},
	}})
}

func newPicker(s *stubSearcher, r LabelResolver, onChange func(string) tea.Cmd) *Picker {
	p := New(Options{
		Kind:     domain.KindContact,
		Searcher: s,
		Resolver: r,
		Debounce: time.Millisecond,
		OnChange: onChange,
	})
	p.Focus()
	return p
}

func TestLabelFromLookup(t *testing.T) {
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp", nil).Once()
	p := newPicker(&stubSearcher{}, r, nil)

	cmd := p.SetValue("c1")
	require.NotNil(t, cmd)
	assert.True(t, p.Resolving())
	assert.Equal(t, "c1", p.Label(), "raw id is shown while resolving")

	run(p, cmd)
	assert.False(t, p.Resolving())
	assert.Equal(t, "Acme Corp", p.Label())
	assert.Contains(t, p.View(), "Acme Corp")
	r.AssertExpectations(t)
}

func TestLabelFallsBackToRawIDOnLookupFailure(t *testing.T) {
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("", errors.New("not found"))
	p := newPicker(&stubSearcher{}, r, nil)

	run(p, p.SetValue("c1"))
	assert.Equal(t, "c1", p.Label())
	assert.False(t, p.Resolving())
}

func TestSearchHitWinsOverLookup(t *testing.T) {
	s := &stubSearcher{results: map[string]domain.GroupedResults{"acme": contactResults("Acme Corp (search)")}}
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp (lookup)", nil)
	p := newPicker(s, r, nil)

	run(p, p.SetValue("c1"))
	assert.Equal(t, "Acme Corp (lookup)", p.Label())

	run(p, p.box.SetQuery("acme"))
	assert.Equal(t, "Acme Corp (search)", p.Label())
}

func TestSetValueFoundInResultsSkipsLookup(t *testing.T) {
	s := &stubSearcher{results: map[string]domain.GroupedResults{"acme": contactResults("Acme Corp")}}
	r := &mockResolver{}
	p := newPicker(s, r, nil)

	run(p, p.box.SetQuery("acme"))
	assert.Nil(t, p.SetValue("c1"))
	assert.Equal(t, "Acme Corp", p.Label())
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchedTitleSurvivesDiscardedResults(t *testing.T) {
	s := &stubSearcher{results: map[string]domain.GroupedResults{"acme": contactResults("Acme Corp")}}
	r := &mockResolver{}
	p := newPicker(s, r, nil)

	run(p, p.box.SetQuery("acme"))
	require.Nil(t, p.SetValue("c1"))

	for range 4 {
		run(p, p.Update(tea.KeyMsg{Type: tea.KeyBackspace}))
	}
	require.False(t, p.Searching())
	require.True(t, p.box.Results().Empty())

	assert.Equal(t, "Acme Corp", p.Label())
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestFailedLookupIsRetried(t *testing.T) {
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("", errors.New("timeout")).Once()
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp", nil).Once()
	p := newPicker(&stubSearcher{}, r, nil)

	run(p, p.SetValue("c1"))
	assert.Equal(t, "c1", p.Label())

	cmd := p.SetValue("c1")
	require.NotNil(t, cmd, "a failed lookup does not block the next one")
	run(p, cmd)
	assert.Equal(t, "Acme Corp", p.Label())

	assert.Nil(t, p.SetValue("c1"), "a resolved label is reused")
	r.AssertExpectations(t)
}

func TestPickSetsValueWithoutLookup(t *testing.T) {
	s := &stubSearcher{results: map[string]domain.GroupedResults{"acme": contactResults("Acme Corp")}}
	r := &mockResolver{}
	var changes []string
	p := newPicker(s, r, func(id string) tea.Cmd {
		changes = append(changes, id)
		return nil
	})

	run(p, p.box.SetQuery("acme"))
	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	run(p, p.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, "c1", p.Value())
	assert.Equal(t, []string{"c1"}, changes)
	assert.Equal(t, "Acme Corp", p.Label(), "the picked title is kept after the results are discarded")
	assert.False(t, p.Searching())
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestClearMakesNoNetworkCall(t *testing.T) {
	s := &stubSearcher{}
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp", nil).Once()
	var changes []string
	p := newPicker(s, r, func(id string) tea.Cmd {
		changes = append(changes, id)
		return nil
	})

	run(p, p.SetValue("c1"))
	calls := len(r.Calls)

	assert.Nil(t, p.Clear())
	assert.Empty(t, p.Value())
	assert.Empty(t, p.Label())
	assert.Equal(t, []string{""}, changes)
	assert.Len(t, r.Calls, calls)
	assert.Zero(t, s.callCount())

	assert.Nil(t, p.Clear(), "clearing an empty picker is a no-op")
	assert.Len(t, changes, 1)
}

func TestStaleLabelIsIgnored(t *testing.T) {
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp", nil)
	r.On("Resolve", mock.Anything, domain.KindContact, "c2").Return("Beta LLC", nil)
	p := newPicker(&stubSearcher{}, r, nil)

	first := p.SetValue("c1")
	second := p.SetValue("c2")

	run(p, first)
	assert.Equal(t, "c2", p.Label())
	assert.True(t, p.Resolving())

	run(p, second)
	assert.Equal(t, "Beta LLC", p.Label())
}

func TestLabelMessagesAreRoutedByPicker(t *testing.T) {
	r := &mockResolver{}
	r.On("Resolve", mock.Anything, domain.KindContact, "c1").Return("Acme Corp", nil)
	a := newPicker(&stubSearcher{}, r, nil)
	b := newPicker(&stubSearcher{}, r, nil)

	cmd := a.SetValue("c1")
	b.SetValue("c1")
	msg := cmd()

	b.Update(msg)
	assert.True(t, b.Resolving())
	a.Update(msg)
	assert.Equal(t, "Acme Corp", a.Label())
}

func TestClosedPickerIsInert(t *testing.T) {
	r := &mockResolver{}
	p := newPicker(&stubSearcher{}, r, nil)
	p.Close()

	assert.Nil(t, p.SetValue("c1"))
	assert.Nil(t, p.Update(LabelMsg{picker: p.id, id: "c1", label: "x"}))
	assert.Empty(t, p.View())
}

func TestDefaultTitle(t *testing.T) {
	p := New(Options{Kind: domain.KindListing, Searcher: &stubSearcher{}})
	assert.Contains(t, p.View(), "Listing:")
	assert.Equal(t, domain.KindListing, p.Kind())
}
