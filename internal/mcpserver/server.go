// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes vers record conversion as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `vers MCP server: converts JSON/YAML records between schema versions using declarative migration documents.

Every tool takes a migration document as either a file path or inline content. Use validate_migrations first when writing a new document, versions to see what a document knows, plan to preview the steps of a conversion, and convert to run it.

Versions: numeric-looking values ("2", "1.5") are numbers; anything else is a string. When a source version is omitted it is read from the record's version field; when a target is omitted the document's latest version is used.

Configuration: defaults are configurable via VERS_* environment variables set in your MCP client config.
- VERS_CACHE_ENABLED (default: true): cache loaded migration documents
- VERS_CACHE_MAX_SIZE (default: 10): maximum cached documents
- VERS_CACHE_TTL (default: 15m): cache TTL per document
- VERS_CACHE_SWEEP_INTERVAL (default: 60s): how often expired entries are removed
- VERS_MAX_INLINE_SIZE (default: 10MiB): limit for inline documents and records
- VERS_RESULT_LIMIT (default: 100): default number of validation errors returned
- VERS_MAX_LIMIT (default: 1000): upper bound for the limit parameter
- VERS_STRICT_TARGETS (default: false): fail actions whose target matches nothing

Caching: Loaded documents are cached per session. File entries use path+mtime as key (auto-invalidated on change); inline content is keyed by its SHA-256 hash.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.CacheEnabled {
		engineCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "vers", Version: vers.BuildVersion()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert",
		Description: "Convert a JSON or YAML record between versions using a migration document. The source version is detected from the record unless from is given; the target defaults to the latest version. Returns the converted record in its input format (or format), plus the steps applied. Use output to write to a file instead of returning inline.",
	}, handleConvert)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan",
		Description: "Show the shortest conversion path between two versions and the declared actions of each step, without converting anything. The target defaults to the latest version.",
	}, handlePlan)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "versions",
		Description: "List the versions and converters a migration document declares, in registration order, and the latest version (or why it cannot be determined).",
	}, handleVersions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_migrations",
		Description: "Validate a migration document's structure. Checks required fields, the format version, JSONPath syntax of action targets, that each action has exactly one of update, remove or rename, and that steps are not duplicated.",
	}, handleValidateMigrations)
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// paginate returns items[offset:offset+limit], clamping limit to the
// configured default and maximum.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ResultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
