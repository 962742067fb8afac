package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeDocument prints an indented JSON document as JSON or YAML.
func writeDocument(w io.Writer, data []byte, format string) error {
	switch format {
	case "", formatJSON:
		_, err := fmt.Fprintf(w, "%s\n", data)
		return err
	case formatYAML:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(4)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatJSON, formatYAML)
	}
}
