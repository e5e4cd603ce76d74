package main

import (
	"os"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/cmd/vers/commands"
	"github.com/TechnologyAdvice/Vers/internal/cliutil"
)

var handlers = map[string]func([]string) error{
	"convert":  commands.HandleConvert,
	"path":     commands.HandlePath,
	"versions": commands.HandleVersions,
	"validate": commands.HandleValidate,
	"mcp":      commands.HandleMCP,
}

// commandNames is the fixed order used for suggestions.
var commandNames = []string{"convert", "path", "versions", "validate", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		cliutil.Writef(os.Stdout, "vers v%s\n", vers.BuildVersion())
		cliutil.Writef(os.Stdout, "%s\n", vers.BuildInfo())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	handler, ok := handlers[command]
	if !ok {
		cliutil.Writef(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			cliutil.Writef(os.Stderr, "Did you mean %q?\n", s)
		}
		cliutil.Writef(os.Stderr, "\n")
		printUsage()
		os.Exit(1)
	}

	if err := handler(os.Args[2:]); err != nil {
		cliutil.Writef(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cliutil.Writef(os.Stderr, `vers - convert records between schema versions

Usage:
  vers <command> [flags]

Commands:
  convert    Convert records using a migration document
  path       Show the conversion path between two versions
  versions   List known versions and converters
  validate   Validate a migration document
  mcp        Serve MCP tools over stdio
  version    Show version information
  help       Show this help message

Run 'vers <command> --help' for command flags.
`)
}

// suggestCommand returns the closest known command within edit distance 2.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
