package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{options: options}
}

// FormatReport writes report as YAML using the same keys as the JSON form.
func (f *YAMLFormatter) FormatReport(w io.Writer, report Report) error {
	generic, err := toGeneric(report)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// toGeneric round-trips v through JSON so YAML output honours json tags.
func toGeneric(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return generic, nil
}
