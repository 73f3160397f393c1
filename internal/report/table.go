package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"storyclip/internal/store"
)

// Alignment selects per-column alignment for RenderTable.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable renders a rounded-style table for console output.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// RunTable renders the per-episode console table shown after a run.
func RunTable(episodes []store.EpisodeRecord) string {
	rows := make([][]string, 0, len(episodes))
	for _, episode := range episodes {
		status := episode.Status
		if episode.Status == store.StatusFailed && episode.ErrorMessage != "" {
			status = fmt.Sprintf("%s (%s)", episode.Status, episode.ErrorMessage)
		}
		rows = append(rows, []string{
			episode.EpisodeID,
			analysisLabel(episode),
			fmt.Sprintf("%d", episode.SegmentsPlanned),
			status,
		})
	}
	return RenderTable(
		[]string{"Episode", "Analysis", "Segments", "Status"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignRight, AlignLeft},
	)
}
