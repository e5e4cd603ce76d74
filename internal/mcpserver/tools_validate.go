package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/TechnologyAdvice/Vers/internal/options"
	"github.com/TechnologyAdvice/Vers/migration"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateInput struct {
	Migrations migrationInput `json:"migrations"       jsonschema:"The migration document to validate"`
	Offset     int            `json:"offset,omitempty" jsonschema:"Skip the first N errors (for pagination)"`
	Limit      int            `json:"limit,omitempty"  jsonschema:"Maximum number of errors to return (default 100)"`
}

type validateIssue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

type validateOutput struct {
	Valid      bool            `json:"valid"`
	Title      string          `json:"title,omitempty"`
	StepCount  int             `json:"step_count"`
	ErrorCount int             `json:"error_count"`
	Returned   int             `json:"returned"`
	Errors     []validateIssue `json:"errors,omitempty"`
}

func handleValidateMigrations(_ context.Context, _ *mcp.CallToolRequest, input validateInput) (*mcp.CallToolResult, validateOutput, error) {
	doc, err := parseMigrationInput(input.Migrations)
	if err != nil {
		return errResult(err), validateOutput{}, nil
	}

	output := validateOutput{
		Valid:     true,
		Title:     doc.Info.Title,
		StepCount: len(doc.Steps),
	}

	err = migration.Validate(doc)
	var verrs migration.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		output.Valid = false
		output.ErrorCount = len(verrs)
		output.Errors = makeSlice[validateIssue](len(verrs))
		for _, ve := range verrs {
			output.Errors = append(output.Errors, validateIssue{Path: ve.Path, Message: ve.Message})
		}
	case err != nil:
		return errResult(err), validateOutput{}, nil
	}

	output.Errors = paginate(output.Errors, input.Offset, input.Limit)
	output.Returned = len(output.Errors)

	return nil, output, nil
}

// parseMigrationInput parses a document without validating or registering it.
// Validation bypasses the cache so that invalid documents can be reported.
func parseMigrationInput(m migrationInput) (*migration.Document, error) {
	if err := options.ValidateSingleInputSource(
		"exactly one of file or content must be provided (got 0)",
		"exactly one of file or content must be provided (got 2)",
		m.File != "", m.Content != "",
	); err != nil {
		return nil, err
	}
	if m.File != "" {
		return migration.ParseFile(m.File)
	}
	if int64(len(m.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set VERS_MAX_INLINE_SIZE to increase",
			len(m.Content), cfg.MaxInlineSize)
	}
	return migration.Parse([]byte(m.Content))
}
