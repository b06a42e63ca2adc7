package omnibox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnibox/internal/domain"
	"omnibox/internal/search"
)

func hits(kind domain.Kind, ids ...string) domain.Group {
	g := domain.Group{Kind: kind}
	for _, id := range ids {
		g.Hits = append(g.Hits, domain.SearchHit{Kind: kind, ID: id, Title: "title " + id})
	}
	return g
}

func readySession(t *testing.T, query string, groups ...domain.Group) *Session {
	t.Helper()
	s := NewSession()
	require.Equal(t, EffectSchedule, s.SetInput(query))
	s.Issue("tok", query)
	require.True(t, s.Apply("tok", domain.NewGroupedResults(groups), nil))
	return s
}

func TestInitialState(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Open)
	assert.Equal(t, -1, s.Highlighted)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.RawQuery)
}

func TestSetInputOpensAndBlankCloses(t *testing.T) {
	s := NewSession()

	assert.Equal(t, EffectSchedule, s.SetInput("ac"))
	assert.True(t, s.Open)
	assert.Equal(t, StatusIdle, s.Status)

	s.Issue("t1", "ac")
	assert.Equal(t, StatusSearching, s.Status)

	assert.Equal(t, EffectCancel, s.SetInput("   "))
	assert.False(t, s.Open)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.RequestToken)
	assert.Equal(t, -1, s.Highlighted)
}

func TestKeyboardWrapAround(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1", "c2"), hits(domain.KindListing, "l1"))
	k := s.Results.Len()
	require.Equal(t, 3, k)

	var visited []int
	for i := 0; i < k+1; i++ {
		s.MoveDown()
		visited = append(visited, s.Highlighted)
	}
	assert.Equal(t, []int{0, 1, 2, 0}, visited)

	s.MoveUp()
	assert.Equal(t, k-1, s.Highlighted)
}

func TestMoveUpFromNoHighlightGoesToLast(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1", "c2"))
	s.MoveUp()
	assert.Equal(t, 1, s.Highlighted)
}

func TestMoveIsNoopWithoutResults(t *testing.T) {
	s := readySession(t, "zzz")
	s.MoveDown()
	s.MoveUp()
	assert.Equal(t, -1, s.Highlighted)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	s := NewSession()
	s.SetInput("jo")
	s.Issue("A", "jo")
	s.SetInput("john")
	s.Issue("B", "john")

	assert.True(t, s.Apply("B", domain.NewGroupedResults([]domain.Group{hits(domain.KindContact, "c1")}), nil))
	assert.False(t, s.Apply("A", domain.NewGroupedResults([]domain.Group{hits(domain.KindContact, "c1", "c2", "c3")}), nil))

	assert.Equal(t, 1, s.Results.Len())
	assert.Equal(t, StatusReady, s.Status)
}

func TestCancellationDoesNotFail(t *testing.T) {
	s := NewSession()
	s.SetInput("acme")
	s.Issue("A", "acme")

	assert.False(t, s.Apply("A", domain.GroupedResults{}, search.ErrCanceled))
	assert.Equal(t, StatusSearching, s.Status)
	assert.NoError(t, s.Err)
}

func TestFailureAndRecovery(t *testing.T) {
	s := NewSession()
	s.SetInput("acme")
	s.Issue("A", "acme")

	assert.True(t, s.Apply("A", domain.GroupedResults{}, errors.New("connection refused")))
	assert.Equal(t, StatusFailed, s.Status)
	assert.True(t, s.Open)
	assert.Error(t, s.Err)

	assert.Equal(t, EffectSchedule, s.SetInput("acme c"))
	s.Issue("B", "acme c")
	assert.Equal(t, StatusSearching, s.Status)
	assert.True(t, s.Apply("B", domain.NewGroupedResults([]domain.Group{hits(domain.KindContact, "c1")}), nil))
	assert.Equal(t, StatusReady, s.Status)
	assert.NoError(t, s.Err)
}

func TestCommitReturnsHitAndClears(t *testing.T) {
	s := NewSession()
	s.SetInput("Acme")
	s.Issue("t", "Acme")
	s.Apply("t", domain.NewGroupedResults([]domain.Group{{
		Kind: domain.KindContact,
		Hits: []domain.SearchHit{{Kind: domain.KindContact, ID: "c1", Title: "Acme Corp"}},
	}}), nil)

	s.MoveDown()
	hit, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, domain.KindContact, hit.Kind)
	assert.Equal(t, "c1", hit.ID)
	assert.Equal(t, "Acme Corp", hit.Title)

	assert.False(t, s.Open)
	assert.Empty(t, s.RawQuery)
	assert.Equal(t, -1, s.Highlighted)

	_, ok = s.Commit()
	assert.False(t, ok, "second commit must be a no-op")
}

func TestCommitWithoutHighlightIsNoop(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"))
	_, ok := s.Commit()
	assert.False(t, ok)
	assert.True(t, s.Open)
	assert.Equal(t, "acme", s.RawQuery)
}

func TestEscapeKeepsText(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"))
	s.MoveDown()
	s.Escape()

	assert.False(t, s.Open)
	assert.Equal(t, -1, s.Highlighted)
	assert.Equal(t, "acme", s.RawQuery)
}

func TestClickOutsideCloses(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"))
	s.Hover(0)
	s.ClickOutside()
	assert.False(t, s.Open)
	assert.Equal(t, -1, s.Highlighted)
}

func TestHoverAndClick(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"), hits(domain.KindListing, "l1"))

	s.Hover(1)
	assert.Equal(t, 1, s.Highlighted)
	assert.True(t, s.Open)

	s.Hover(7)
	assert.Equal(t, 1, s.Highlighted, "hovering outside the list changes nothing")

	hit, ok := s.Click(0)
	require.True(t, ok)
	assert.Equal(t, "c1", hit.ID)
	assert.False(t, s.Open)
}

func TestReopenReusesResultsForSameQuery(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"))
	s.Escape()

	assert.Equal(t, EffectNone, s.Reopen())
	assert.True(t, s.Open)
	assert.Equal(t, 1, s.Results.Len())
}

func TestReopenAfterFailureSchedules(t *testing.T) {
	s := NewSession()
	s.SetInput("acme")
	s.Issue("A", "acme")
	s.Apply("A", domain.GroupedResults{}, errors.New("boom"))
	s.Escape()

	assert.Equal(t, EffectSchedule, s.Reopen())
	assert.True(t, s.Open)
}

func TestReopenIgnoredWhenEmptyOrOpen(t *testing.T) {
	s := NewSession()
	assert.Equal(t, EffectNone, s.Reopen())
	assert.False(t, s.Open)

	s.SetInput("acme")
	assert.Equal(t, EffectNone, s.Reopen())
}

func TestReset(t *testing.T) {
	s := readySession(t, "acme", hits(domain.KindContact, "c1"))
	s.MoveDown()
	s.Reset()
	assert.Equal(t, *NewSession(), *s)
}
