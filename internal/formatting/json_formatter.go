package formatting

import (
	"fmt"
	"io"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{options: options}
}

// FormatReport writes report as indented JSON.
func (f *JSONFormatter) FormatReport(w io.Writer, report Report) error {
	_, err := fmt.Fprintln(w, PrettyJSON(report))
	return err
}
