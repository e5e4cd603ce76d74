package migration

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

// Parse parses a migration document from YAML or JSON bytes.
// The result is not validated; see Validate.
func Parse(data []byte) (*Document, error) {
	var d Document

	// yaml.Unmarshal handles both YAML and JSON
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &ParseError{Cause: err}
	}

	return &d, nil
}

// ParseFile parses a migration document from a file path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	d, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Cause: err}
	}

	return d, nil
}

// Marshal serializes a migration document to YAML bytes.
func Marshal(d *Document) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("migration: failed to marshal: %w", err)
	}
	return data, nil
}
