package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type planInput struct {
	Migrations migrationInput `json:"migrations"   jsonschema:"The migration document that defines the versions and steps"`
	From       string         `json:"from"         jsonschema:"Source version"`
	To         string         `json:"to,omitempty" jsonschema:"Target version. Defaults to the document's latest version."`
}

type planAction struct {
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Rename    string `json:"rename,omitempty"`
}

type planStep struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Direction   string       `json:"direction"`
	Description string       `json:"description,omitempty"`
	Actions     []planAction `json:"actions,omitempty"`
}

type planOutput struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Path      string     `json:"path"`
	StepCount int        `json:"step_count"`
	Steps     []planStep `json:"steps,omitempty"`
}

func handlePlan(_ context.Context, _ *mcp.CallToolRequest, input planInput) (*mcp.CallToolResult, planOutput, error) {
	if input.From == "" {
		return errResult(fmt.Errorf("from version is required")), planOutput{}, nil
	}

	loaded, err := input.Migrations.resolve(cfg.StrictTargets)
	if err != nil {
		return errResult(err), planOutput{}, nil
	}

	from := loaded.Engine.ResolveVersion(input.From)
	to, err := resolveTarget(loaded.Engine, input.To)
	if err != nil {
		return errResult(err), planOutput{}, nil
	}

	path, err := loaded.Engine.Plan(from, to)
	if err != nil {
		return errResult(err), planOutput{}, nil
	}
	planned, err := loaded.Document.Explain(path)
	if err != nil {
		return errResult(err), planOutput{}, nil
	}

	output := planOutput{
		From:      from.String(),
		To:        to.String(),
		Path:      path.String(),
		StepCount: path.Len(),
	}
	output.Steps = makeSlice[planStep](len(planned))
	for _, ps := range planned {
		step := planStep{
			From:        ps.From.String(),
			To:          ps.To.String(),
			Direction:   string(ps.Direction),
			Description: ps.Description,
		}
		step.Actions = makeSlice[planAction](len(ps.Actions))
		for _, a := range ps.Actions {
			step.Actions = append(step.Actions, planAction{
				Operation: a.Operation().String(),
				Target:    a.Target,
				Rename:    a.Rename,
			})
		}
		output.Steps = append(output.Steps, step)
	}

	return nil, output, nil
}
