// Package printer serializes API payloads for command-line output.
package printer

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output format selected with -f.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatEmail Format = "email"
)

// Parse validates a format name. allowEmail reports whether the caller
// supports the email-like plain text rendering.
func Parse(s string, allowEmail bool) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatJSON:
		return f, nil
	case FormatEmail:
		if allowEmail {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown printer variant %q", s)
}

// Marshal renders v as JSON or YAML. YAML output goes through a generic JSON
// round trip so json tags and raw JSON values are honoured.
func Marshal(v interface{}, f Format) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}

	switch f {
	case FormatJSON:
		return string(data), nil
	case FormatYAML:
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return "", fmt.Errorf("failed to convert to yaml: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("failed to marshal yaml: %w", err)
		}
		return string(out), nil
	}
	return "", fmt.Errorf("format %q is not a serialization format", f)
}
