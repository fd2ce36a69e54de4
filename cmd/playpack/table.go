package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"playpack/internal/pipeline"
)

// renderRows draws a rounded table. Columns whose cells are all integers are
// right-aligned; everything else stays left-aligned.
func renderRows(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if columnIsNumeric(rows, i) {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderSummary draws the per-playlist outcome counts as label/value pairs.
func renderSummary(summary pipeline.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRow(table.Row{"Entries", summary.Total})
	tw.AppendRow(table.Row{"Done", summary.Done})
	tw.AppendRow(table.Row{"Copied", summary.Copied})
	tw.AppendRow(table.Row{"Transcoded", summary.Transcoded})
	tw.AppendRow(table.Row{"Reused", summary.Reused})
	tw.AppendRow(table.Row{"Skipped", summary.Skipped})
	tw.AppendRow(table.Row{"Failed", summary.Failed})
	tw.AppendRow(table.Row{"Warnings", summary.Warnings})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render()
}

func columnIsNumeric(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		if _, err := strconv.Atoi(row[col]); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
