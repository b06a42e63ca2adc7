package omnibox

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"omnibox/internal/domain"
)

// line is one rendered dropdown row. index is the flat index of the hit it
// shows, or -1 for headers and status rows.
type line struct {
	text  string
	index int
}

// dropdownLines lays out the dropdown. The same layout is used for
// rendering and for mouse hit-testing so row i always shows flat index i.
// Every line is cut to a single terminal row.
func (m *Model) dropdownLines() []line {
	lines := m.layoutLines()
	for i := range lines {
		lines[i].text = ansi.Truncate(lines[i].text, m.rowWidth(), "…")
	}
	return lines
}

// rowWidth is the number of columns a dropdown row may use
func (m *Model) rowWidth() int {
	return max(m.width-m.styles.Dropdown.GetHorizontalFrameSize(), 1)
}

func (m *Model) layoutLines() []line {
	s := m.session
	if !s.Open {
		return nil
	}

	var lines []line
	switch s.Status {
	case StatusIdle:
		lines = append(lines, line{text: m.styles.Dim.Render("Type to search"), index: -1})
		return lines
	case StatusFailed:
		lines = append(lines, line{text: m.styles.StatusError.Render("Couldn't search. Keep typing to try again."), index: -1})
		return lines
	case StatusSearching:
		lines = append(lines, line{text: m.styles.Loading.Render(m.spinner.View() + " Searching…"), index: -1})
	}

	if s.Status == StatusReady && s.Results.Empty() {
		lines = append(lines, line{text: m.styles.Dim.Render("No matches"), index: -1})
		return lines
	}

	index := 0
	for _, g := range s.Results.Groups {
		lines = append(lines, line{text: m.styles.GroupHeader.Render(g.Kind.Label()), index: -1})
		for _, hit := range g.Hits {
			lines = append(lines, line{text: m.renderHit(hit, index == s.Highlighted), index: index})
			index++
		}
	}
	return lines
}

func (m *Model) renderHit(hit domain.SearchHit, highlighted bool) string {
	var b strings.Builder
	b.WriteString(hit.Title)
	if hit.Subtitle != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.Subtitle.Render(hit.Subtitle))
	}
	if pct, ok := ScorePercent(hit.Score); ok {
		b.WriteString("  ")
		b.WriteString(m.styles.Score.Render(fmt.Sprintf("%d%%", pct)))
	}

	if highlighted {
		w := m.rowWidth()
		return m.styles.HighlightBg.Width(w).Render(ansi.Truncate("▸ "+b.String(), w, "…"))
	}
	return m.styles.Title.Render("  " + b.String())
}

// ScorePercent renders a relevance score as a percentage in [0,100]
func ScorePercent(score *float64) (int, bool) {
	clamped := domain.ClampScore(score)
	if clamped == nil {
		return 0, false
	}
	return int(*clamped*100 + 0.5), true
}

// View implements tea.Model
func (m *Model) View() string {
	if m.closed {
		return ""
	}
	lines := m.dropdownLines()
	if len(lines) == 0 {
		return m.input.View()
	}

	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, l.text)
	}
	dropdown := m.styles.Dropdown.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.JoinVertical(lipgloss.Left, m.input.View(), dropdown)
}

// Height returns the number of rows View currently occupies
func (m *Model) Height() int {
	return 1 + len(m.dropdownLines())
}

// hitAt maps screen coordinates to a row of the component. row 0 is the
// input; ok is false outside the bounding box.
func (m *Model) hitAt(x, y int) (row int, ok bool) {
	row = y - m.originY
	col := x - m.originX
	if row < 0 || row >= m.Height() || col < 0 || col >= m.width {
		return 0, false
	}
	return row, true
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	row, inside := m.hitAt(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionMotion:
		if inside && row > 0 {
			if l := m.dropdownLines()[row-1]; l.index >= 0 {
				m.session.Hover(l.index)
			}
		}
		return nil

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		if !inside {
			m.session.ClickOutside()
			return nil
		}
		if row == 0 {
			return m.apply(m.session.Reopen())
		}
		if l := m.dropdownLines()[row-1]; l.index >= 0 {
			if hit, ok := m.session.Click(l.index); ok {
				return m.pick(hit)
			}
		}
	}
	return nil
}
