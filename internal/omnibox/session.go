package omnibox

import (
	"strings"

	"omnibox/internal/domain"
	"omnibox/internal/search"
)

// Status is the search status of a session
type Status int

const (
	StatusIdle Status = iota
	StatusSearching
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSearching:
		return "searching"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Effect tells the owner of a session what to do with its debounce controller
type Effect int

const (
	EffectNone     Effect = iota
	EffectSchedule        // (re)start the debounce timer for RawQuery
	EffectCancel          // drop the pending timer and in-flight request
)

// Session is the selection state machine of one search box. It is pure
// state: timers and network calls are driven by its owner according to the
// returned effects.
type Session struct {
	RawQuery       string
	CommittedQuery string
	RequestToken   string
	Open           bool
	Highlighted    int
	Status         Status
	Results        domain.GroupedResults
	Err            error

	// resultsQuery is the committed query Results belong to
	resultsQuery string
}

// NewSession returns a closed, empty session
func NewSession() *Session {
	return &Session{Highlighted: -1}
}

// SetInput records a change of the input text. Blank text closes the dropdown.
func (s *Session) SetInput(text string) Effect {
	s.RawQuery = text
	if strings.TrimSpace(text) == "" {
		s.Reset()
		return EffectCancel
	}
	if !s.Open {
		s.Open = true
		s.Highlighted = -1
	}
	return EffectSchedule
}

// Issue records that a debounced request for query was sent with token
func (s *Session) Issue(token, query string) {
	s.CommittedQuery = strings.TrimSpace(query)
	s.RequestToken = token
	s.Status = StatusSearching
	s.Err = nil
}

// Apply applies a response. It returns false, leaving the session untouched,
// for stale tokens and for cancellations.
func (s *Session) Apply(token string, results domain.GroupedResults, err error) bool {
	if token == "" || token != s.RequestToken {
		return false
	}
	if search.IsCanceled(err) {
		return false
	}
	s.RequestToken = ""
	if err != nil {
		s.Status = StatusFailed
		s.Err = err
		s.Results = domain.GroupedResults{}
		s.resultsQuery = ""
		s.Highlighted = -1
		return true
	}
	s.Status = StatusReady
	s.Err = nil
	s.Results = results
	s.resultsQuery = s.CommittedQuery
	s.Highlighted = -1
	return true
}

// MoveDown advances the highlight, wrapping from the last hit to the first
func (s *Session) MoveDown() {
	n := s.Results.Len()
	if !s.Open || n == 0 {
		return
	}
	s.Highlighted = (s.Highlighted + 1) % n
}

// MoveUp moves the highlight back, wrapping from the first hit to the last
func (s *Session) MoveUp() {
	n := s.Results.Len()
	if !s.Open || n == 0 {
		return
	}
	if s.Highlighted <= 0 {
		s.Highlighted = n - 1
		return
	}
	s.Highlighted--
}

// Reopen opens a closed dropdown that still has input. Results are reused
// when they belong to the current text, otherwise a new search is needed.
func (s *Session) Reopen() Effect {
	query := strings.TrimSpace(s.RawQuery)
	if s.Open || query == "" {
		return EffectNone
	}
	s.Open = true
	s.Highlighted = -1
	if s.Status == StatusReady && s.resultsQuery == query {
		return EffectNone
	}
	if s.Status == StatusSearching && s.CommittedQuery == query {
		return EffectNone
	}
	return EffectSchedule
}

// Commit returns the highlighted hit and closes the session, clearing the
// input. Without a valid highlight it is a no-op.
func (s *Session) Commit() (domain.SearchHit, bool) {
	if !s.Open {
		return domain.SearchHit{}, false
	}
	hit, ok := s.Results.At(s.Highlighted)
	if !ok {
		return domain.SearchHit{}, false
	}
	s.Reset()
	return hit, true
}

// Escape closes the dropdown but keeps the typed text
func (s *Session) Escape() {
	s.Open = false
	s.Highlighted = -1
}

// ClickOutside closes the dropdown
func (s *Session) ClickOutside() {
	s.Open = false
	s.Highlighted = -1
}

// Hover highlights the hit at flat index i
func (s *Session) Hover(i int) {
	if !s.Open {
		return
	}
	if _, ok := s.Results.At(i); ok {
		s.Highlighted = i
	}
}

// Click behaves like hovering the hit and pressing enter
func (s *Session) Click(i int) (domain.SearchHit, bool) {
	if !s.Open {
		return domain.SearchHit{}, false
	}
	if _, ok := s.Results.At(i); !ok {
		return domain.SearchHit{}, false
	}
	s.Highlighted = i
	return s.Commit()
}

// Reset returns the session to its initial state
func (s *Session) Reset() {
	*s = Session{Highlighted: -1}
}

// Highlight returns the highlighted hit, if any
func (s *Session) Highlight() (domain.SearchHit, bool) {
	return s.Results.At(s.Highlighted)
}
