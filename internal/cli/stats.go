package cli

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"omnibox/internal/analytics"
	"omnibox/internal/domain"
)

const statsTimeout = 10 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newStatsCommand(a *app) *cobra.Command {
	var (
		kindFlag string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the most picked entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind domain.Kind
			if kindFlag != "" {
				k, err := domain.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kind = k
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			client := analytics.NewClient(cfg.Analytics.Endpoint, &http.Client{Timeout: statsTimeout})
			counts, err := client.Counts(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCounts(counts, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "only this kind (contact, listing, ...)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows")
	return cmd
}

// renderCounts formats counts as a table followed by the total
func renderCounts(c analytics.Counts, now time.Time) string {
	if len(c.Counts) == 0 {
		return "No picks recorded yet."
	}

	rows := make([][]string, 0, len(c.Counts))
	for i, pc := range c.Counts {
		label := pc.Label
		if label == "" {
			label = pc.EntityID
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strings.TrimSuffix(pc.Kind.Label(), "s"),
			label,
			pc.EntityID,
			humanize.Comma(int64(pc.Count)),
			humanize.RelTime(pc.LastPickedAt, now, "ago", "from now"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Kind", "Label", "ID", "Picks", "Last picked").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render() + "\n" + fmt.Sprintf("%s picks in total", humanize.Comma(int64(c.Total)))
}
