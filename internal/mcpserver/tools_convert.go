package mcpserver

import (
	"context"
	"fmt"
	"strings"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/fileutil"
	"github.com/TechnologyAdvice/Vers/internal/options"
	"github.com/TechnologyAdvice/Vers/migration"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type convertInput struct {
	Migrations migrationInput `json:"migrations"            jsonschema:"The migration document that defines the versions and steps"`
	Record     string         `json:"record,omitempty"      jsonschema:"Inline record (JSON or YAML)"`
	RecordFile string         `json:"record_file,omitempty" jsonschema:"Path to a record file on disk"`
	From       string         `json:"from,omitempty"        jsonschema:"Source version. Detected from the record's version field if omitted."`
	To         string         `json:"to,omitempty"          jsonschema:"Target version. Defaults to the document's latest version."`
	Strict     *bool          `json:"strict,omitempty"      jsonschema:"Fail when an action target matches nothing (default from VERS_STRICT_TARGETS)"`
	Format     string         `json:"format,omitempty"      jsonschema:"Output format: json or yaml. Defaults to the record's input format."`
	Output     string         `json:"output,omitempty"      jsonschema:"File path to write the converted record. If omitted the record is returned inline."`
}

type convertStep struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Mutated bool   `json:"mutated"`
}

type convertOutput struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Path      string        `json:"path"`
	StepCount int           `json:"step_count"`
	Steps     []convertStep `json:"steps,omitempty"`
	Format    string        `json:"format"`
	WrittenTo string        `json:"written_to,omitempty"`
	Record    string        `json:"record,omitempty"`
}

func handleConvert(ctx context.Context, _ *mcp.CallToolRequest, input convertInput) (*mcp.CallToolResult, convertOutput, error) {
	if input.Format != "" && input.Format != string(migration.FormatJSON) && input.Format != string(migration.FormatYAML) {
		return errResult(fmt.Errorf("invalid format %q: must be json or yaml", input.Format)), convertOutput{}, nil
	}

	strict := cfg.StrictTargets
	if input.Strict != nil {
		strict = *input.Strict
	}
	loaded, err := input.Migrations.resolve(strict)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	record, inFormat, err := readRecordInput(input.Record, input.RecordFile)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	from := loaded.Engine.ResolveVersion(input.From)
	if input.From == "" {
		if from, err = loaded.Engine.DetectVersion(ctx, record); err != nil {
			return errResult(err), convertOutput{}, nil
		}
	}
	to, err := resolveTarget(loaded.Engine, input.To)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	result, err := loaded.Engine.Convert(ctx, from, to, record)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	outFormat := inFormat
	if input.Format != "" {
		outFormat = migration.Format(input.Format)
	}
	data, err := migration.EncodeRecord(result.Record, outFormat)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	output := convertOutput{
		From:      result.From.String(),
		To:        result.To.String(),
		StepCount: len(result.Steps),
		Format:    string(outFormat),
	}
	output.Steps = makeSlice[convertStep](len(result.Steps))
	visited := []string{output.From}
	for _, s := range result.Steps {
		output.Steps = append(output.Steps, convertStep{From: s.From.String(), To: s.To.String(), Mutated: s.Mutated})
		visited = append(visited, s.To.String())
	}
	if len(result.Steps) > 0 {
		output.Path = strings.Join(visited, " -> ")
	}

	if input.Output != "" {
		if err := fileutil.WriteOutput(input.Output, data); err != nil {
			return errResult(err), convertOutput{}, nil
		}
		output.WrittenTo = input.Output
	} else {
		output.Record = string(data)
	}

	return nil, output, nil
}

// readRecordInput decodes the record from whichever of inline or file was given.
func readRecordInput(inline, file string) (any, migration.Format, error) {
	if err := options.ValidateSingleInputSource(
		"exactly one of record or record_file must be provided (got 0)",
		"exactly one of record or record_file must be provided (got 2)",
		inline != "", file != "",
	); err != nil {
		return nil, "", err
	}
	if file != "" {
		return migration.ReadRecordFile(file)
	}
	if int64(len(inline)) > cfg.MaxInlineSize {
		return nil, "", fmt.Errorf("inline record size %d bytes exceeds maximum %d bytes; use record_file instead", len(inline), cfg.MaxInlineSize)
	}
	return migration.DecodeRecord([]byte(inline), migration.FormatUnknown)
}

// resolveTarget returns to as a version, or the engine's latest when empty.
func resolveTarget(engine *vers.Vers, to string) (vers.Version, error) {
	if to != "" {
		return engine.ResolveVersion(to), nil
	}
	latest, err := engine.Latest()
	if err != nil {
		return vers.Version{}, fmt.Errorf("no target given and latest version is unknown: %w", err)
	}
	return latest, nil
}
