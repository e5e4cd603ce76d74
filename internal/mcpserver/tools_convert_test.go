package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertTool_ToLatest(t *testing.T) {
	input := convertInput{
		Migrations: migrationInput{Content: testMigrations},
		Record:     `{"version": 1, "name": "Ada", "legacy": "x"}`,
	}
	res, output, err := handleConvert(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Equal(t, "1", output.From)
	assert.Equal(t, "3", output.To)
	assert.Equal(t, "1 -> 2 -> 3", output.Path)
	assert.Equal(t, 2, output.StepCount)
	require.Len(t, output.Steps, 2)
	assert.True(t, output.Steps[0].Mutated)
	assert.Equal(t, "json", output.Format)
	assert.JSONEq(t, `{"version": 3, "fullName": "Ada", "active": true}`, output.Record)
}

func TestConvertTool_ExplicitVersionsAndFormat(t *testing.T) {
	input := convertInput{
		Migrations: migrationInput{Content: testMigrations},
		Record:     `{"version": 2, "fullName": "Ada"}`,
		From:       "2",
		To:         "1",
		Format:     "yaml",
	}
	res, output, err := handleConvert(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Equal(t, "2 -> 1", output.Path)
	assert.Equal(t, "yaml", output.Format)
	assert.Contains(t, output.Record, "name: Ada")
	assert.NotContains(t, output.Record, "fullName")
}

func TestConvertTool_AlreadyAtTarget(t *testing.T) {
	input := convertInput{
		Migrations: migrationInput{Content: testMigrations},
		Record:     `{"version": 3}`,
	}
	res, output, err := handleConvert(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Zero(t, output.StepCount)
	assert.Empty(t, output.Steps)
	assert.Empty(t, output.Path)
}

func TestConvertTool_RecordFileAndOutput(t *testing.T) {
	recordPath := writeTestFile(t, "user.yaml", "version: 1\nname: Ada\n")
	outPath := filepath.Join(t.TempDir(), "out.yaml")

	input := convertInput{
		Migrations: migrationInput{File: writeTestFile(t, "migrations.yaml", testMigrations)},
		RecordFile: recordPath,
		Output:     outPath,
	}
	res, output, err := handleConvert(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Equal(t, outPath, output.WrittenTo)
	assert.Empty(t, output.Record, "record should not be inline when written to file")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fullName: Ada")
	assert.Contains(t, string(data), "active: true")
}

func TestConvertTool_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   convertInput
		wantErr string
	}{
		{
			name:    "no record",
			input:   convertInput{Migrations: migrationInput{Content: testMigrations}},
			wantErr: "record or record_file",
		},
		{
			name: "invalid format",
			input: convertInput{
				Migrations: migrationInput{Content: testMigrations},
				Record:     `{}`,
				Format:     "xml",
			},
			wantErr: "invalid format",
		},
		{
			name: "unreachable target",
			input: convertInput{
				Migrations: migrationInput{Content: testMigrations},
				Record:     `{"version": 3}`,
				To:         "1",
			},
			wantErr: "path not found",
		},
		{
			name: "strict target with no match",
			input: convertInput{
				Migrations: migrationInput{Content: testMigrations},
				Record:     `{"version": 2}`,
				Strict:     boolPtr(true),
			},
			wantErr: "$.legacy",
		},
		{
			name:    "missing migrations",
			input:   convertInput{Record: `{}`},
			wantErr: "file or content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := handleConvert(context.Background(), &mcp.CallToolRequest{}, tt.input)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.True(t, res.IsError)
			text := res.Content[0].(*mcp.TextContent).Text
			assert.Contains(t, text, tt.wantErr)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
