package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"

	"gopkg.in/yaml.v3"
)

// Writer rewrites specification files in the format they were loaded from
type Writer struct {
	repo storage.Repository
}

// NewWriter creates a new Writer writing through repo
func NewWriter(repo storage.Repository) *Writer {
	return &Writer{repo: repo}
}

// WriteSpec serializes raw to path using format
func (w *Writer) WriteSpec(path string, format domain.SpecFormat, raw map[string]any) error {
	data, err := EncodeSpec(format, raw)
	if err != nil {
		return err
	}
	if err := w.repo.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write specification %s: %w", path, err)
	}
	return nil
}

// EncodeSpec serializes a raw specification document
func EncodeSpec(format domain.SpecFormat, raw map[string]any) ([]byte, error) {
	switch format {
	case domain.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(raw); err != nil {
			return nil, fmt.Errorf("failed to marshal specification to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal specification to YAML: %w", err)
		}
		return buf.Bytes(), nil
	case domain.FormatJSON:
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal specification to JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported specification format: %s", format)
	}
}
