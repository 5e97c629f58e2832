package formatting

import (
	"fmt"
	"io"
	"time"

	"mcpbridge/internal/aggregator"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// FormatReport writes the transports table, the tools table, and a summary.
func (f *TableFormatter) FormatReport(w io.Writer, report Report) error {
	snap := report.Snapshot

	t := f.createTable(w)
	t.SetTitle("Transports")
	t.AppendHeader(table.Row{f.header("NAME"), f.header("KIND"), f.header("STATUS"), f.header("TOOLS"), f.header("LOCATOR"), f.header("ERROR")})
	for _, h := range snap.Hosted {
		t.AppendRow(table.Row{h.Label, h.Kind, f.status("available"), "-", h.URL, ""})
	}
	for _, st := range snap.Streamable {
		t.AppendRow(table.Row{st.Name, st.Kind, f.status(string(st.Status)), st.ToolCount, st.Locator, truncate(st.Error, 80)})
	}
	t.Render()

	if len(report.Tools) > 0 {
		fmt.Fprintln(w)
		tt := f.createTable(w)
		tt.SetTitle("Tools")
		tt.AppendHeader(table.Row{f.header("EXPOSED NAME"), f.header("SERVER"), f.header("TOOL"), f.header("DESCRIPTION")})
		for _, row := range report.Tools {
			tt.AppendRow(table.Row{row.Name, row.Server, row.Tool, truncate(row.Description, 60)})
		}
		tt.Render()
	}

	for _, msg := range snap.ConfigErrors {
		fmt.Fprintf(w, "%s %s\n", f.color(text.FgYellow, "skipped:"), msg)
	}

	_, err := fmt.Fprintf(w, "\n%s %d (%d hosted, %d connected, %d failed) at %s\n",
		f.color(text.FgHiBlue, "Available providers:"),
		snap.Count, len(snap.Hosted), snap.Connected, snap.Failed,
		snap.BootstrappedAt.Format(time.RFC3339))
	return err
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.color(text.FgHiCyan, s)
}

func (f *TableFormatter) status(s string) string {
	switch s {
	case string(aggregator.StatusConnected), "available":
		return f.color(text.FgGreen, s)
	case string(aggregator.StatusFailed):
		return f.color(text.FgRed, s)
	default:
		return f.color(text.FgYellow, s)
	}
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}
