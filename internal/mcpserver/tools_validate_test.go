package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidMigrations = `
migrations: "2.0"
info:
  title: broken
steps:
  - from: 1
    to: 1
    forward:
      - target: name
        remove: true
`

func TestValidateMigrationsTool_Valid(t *testing.T) {
	input := validateInput{Migrations: migrationInput{File: writeTestFile(t, "migrations.yaml", testMigrations)}}
	res, output, err := handleValidateMigrations(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.True(t, output.Valid)
	assert.Equal(t, "user records", output.Title)
	assert.Equal(t, 2, output.StepCount)
	assert.Zero(t, output.ErrorCount)
	assert.Empty(t, output.Errors)
}

func TestValidateMigrationsTool_Invalid(t *testing.T) {
	input := validateInput{Migrations: migrationInput{Content: invalidMigrations}}
	res, output, err := handleValidateMigrations(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.False(t, output.Valid)
	assert.GreaterOrEqual(t, output.ErrorCount, 3)
	assert.Equal(t, output.ErrorCount, output.Returned)

	var paths []string
	for _, e := range output.Errors {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "migrations")
	assert.Contains(t, paths, "info.version")
	assert.Contains(t, paths, "steps[0].forward[0].target")
}

func TestValidateMigrationsTool_Pagination(t *testing.T) {
	input := validateInput{
		Migrations: migrationInput{Content: invalidMigrations},
		Offset:     1,
		Limit:      1,
	}
	res, output, err := handleValidateMigrations(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, res)

	assert.Greater(t, output.ErrorCount, 1)
	assert.Equal(t, 1, output.Returned)
	assert.Len(t, output.Errors, 1)
}

func TestValidateMigrationsTool_ParseError(t *testing.T) {
	input := validateInput{Migrations: migrationInput{Content: "steps: [unclosed"}}
	res, _, err := handleValidateMigrations(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}
