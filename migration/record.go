package migration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"
)

// Format is the serialization of a record file.
type Format string

const (
	// FormatYAML indicates the record is YAML
	FormatYAML Format = "yaml"
	// FormatJSON indicates the record is JSON
	FormatJSON Format = "json"
	// FormatUnknown indicates the format could not be determined
	FormatUnknown Format = "unknown"
)

// DetectFormat detects a record's format from its path, falling back to
// the content when the extension is not recognized.
func DetectFormat(path string, data []byte) Format {
	switch filepath.Ext(path) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	// JSON objects/arrays start with { or [
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeRecord decodes a record into the generic tree actions operate on.
// JSON numbers are kept as json.Number so integers survive a round trip.
// FormatUnknown is detected from the content.
func DecodeRecord(data []byte, format Format) (any, Format, error) {
	if format == FormatUnknown || format == "" {
		format = DetectFormat("", data)
	}

	var record any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&record); err != nil {
			return nil, format, fmt.Errorf("migration: failed to decode JSON record: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &record); err != nil {
			return nil, format, fmt.Errorf("migration: failed to decode YAML record: %w", err)
		}
	default:
		return nil, format, fmt.Errorf("migration: cannot decode empty record")
	}
	return record, format, nil
}

// EncodeRecord serializes a record. JSON output is indented with two spaces.
func EncodeRecord(record any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("migration: failed to encode JSON record: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("migration: failed to encode YAML record: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("migration: unsupported record format %q", format)
	}
}

// ReadRecordFile reads and decodes a record file.
func ReadRecordFile(path string) (any, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("migration: failed to read record: %w", err)
	}
	return DecodeRecord(data, DetectFormat(path, data))
}
