package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, rounded bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

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
		if i < len(aligns) && aligns[i] == alignRight {
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

// renderSummary renders per-stage counts in run order.
func renderSummary(s *pipeline.Summary, rounded bool) string {
	headers := []string{"Stage", "Done", "Skipped", "Failed", "Warnings"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(pipeline.Stages))
	for _, name := range pipeline.Stages {
		st := s.Stages[name]
		if st == nil {
			continue
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(st.Done),
			strconv.Itoa(st.Skipped),
			strconv.Itoa(st.Failed),
			strconv.Itoa(st.Warnings),
		})
	}
	return renderTable(headers, rows, aligns, rounded)
}

func isTerminalOutput(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func joinComma(values []string) string {
	return strings.Join(values, ", ")
}
