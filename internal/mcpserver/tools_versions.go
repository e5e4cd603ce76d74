package mcpserver

import (
	"context"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
)

type versionsInput struct {
	Migrations migrationInput `json:"migrations" jsonschema:"The migration document to inspect"`
}

type versionsEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type versionsOutput struct {
	Title        string         `json:"title,omitempty"`
	VersionCount int            `json:"version_count"`
	Versions     []string       `json:"versions,omitempty"`
	Latest       string         `json:"latest,omitempty"`
	LatestError  string         `json:"latest_error,omitempty"`
	EdgeCount    int            `json:"edge_count"`
	Edges        []versionsEdge `json:"edges,omitempty"`
}

func handleVersions(_ context.Context, _ *mcp.CallToolRequest, input versionsInput) (*mcp.CallToolResult, versionsOutput, error) {
	loaded, err := input.Migrations.resolve(cfg.StrictTargets)
	if err != nil {
		return errResult(err), versionsOutput{}, nil
	}
	engine := loaded.Engine

	versions := engine.Versions()
	edges := engine.Edges()
	output := versionsOutput{
		Title:        loaded.Document.Info.Title,
		VersionCount: len(versions),
		EdgeCount:    len(edges),
	}
	if len(versions) > 0 {
		output.Versions = lo.Map(versions, func(v vers.Version, _ int) string { return v.String() })
	}
	if len(edges) > 0 {
		output.Edges = lo.Map(edges, func(e vers.Edge, _ int) versionsEdge {
			return versionsEdge{From: e.From.String(), To: e.To.String()}
		})
	}

	if latest, err := engine.Latest(); err != nil {
		output.LatestError = sanitizeError(err)
	} else {
		output.Latest = latest.String()
	}

	return nil, output, nil
}
