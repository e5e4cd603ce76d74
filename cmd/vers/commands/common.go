// Package commands provides CLI command handlers for vers.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/TechnologyAdvice/Vers/internal/fileutil"
	"github.com/TechnologyAdvice/Vers/migration"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// ValidateRecordFormat validates a record output format. Empty keeps the input format.
func ValidateRecordFormat(format string) error {
	if format != "" && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid record format '%s'. Valid formats: %s, %s", format, FormatJSON, FormatYAML)
	}
	return nil
}

// writeStructured outputs data in the specified format (json or yaml).
func writeStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	cliutil.Writef(w, "%s\n", bytes)
	return nil
}

// ValidateOutputPath checks that the output path does not overwrite an input
// and is not a symlink.
func ValidateOutputPath(outputPath string, inputPaths []string) error {
	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	for _, inputPath := range inputPaths {
		if inputPath == StdinFilePath {
			continue
		}
		absInputPath, err := filepath.Abs(inputPath)
		if err != nil {
			return fmt.Errorf("invalid input path %s: %w", inputPath, err)
		}
		if absOutputPath == absInputPath {
			return fmt.Errorf("output file %s would overwrite input file %s", outputPath, inputPath)
		}
	}

	return fileutil.RejectSymlink(filepath.Clean(outputPath))
}

// FormatInputPath returns a display-friendly path for a record input.
func FormatInputPath(path string) string {
	if path == StdinFilePath {
		return "<stdin>"
	}
	return path
}

// newLogger returns a development zap logger when verbose is set and a
// no-op logger otherwise.
func newLogger(verbose bool) (vers.Logger, func()) {
	if !verbose {
		return vers.NopLogger{}, func() {}
	}
	z, err := zap.NewDevelopment()
	if err != nil {
		cliutil.Writef(os.Stderr, "Warning: could not create logger: %v\n", err)
		return vers.NopLogger{}, func() {}
	}
	return vers.NewZapAdapter(z), func() { _ = z.Sync() }
}

// loadMigrations parses the migration document at path and builds its engine.
func loadMigrations(path string, logger vers.Logger, strict bool) (*migration.LoadResult, error) {
	if path == "" {
		return nil, fmt.Errorf("migration document is required (use -m or --migrations)")
	}
	opts := []migration.Option{migration.WithFilePath(path)}
	if logger != nil {
		opts = append(opts, migration.WithLogger(logger))
	}
	if strict {
		opts = append(opts, migration.WithStrictTargets(true))
	}
	result, err := migration.LoadWithOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	return result, nil
}
