package mcpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testMigrations = `
migrations: "1.0"
info:
  title: user records
  version: "2024-01"
steps:
  - from: 1
    to: 2
    description: rename name
    forward:
      - target: $.name
        rename: fullName
    back:
      - target: $.fullName
        rename: name
  - from: 2
    to: 3
    forward:
      - target: $
        update:
          active: true
      - target: $.legacy
        remove: true
`

// writeTestFile writes content into a temp dir and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
