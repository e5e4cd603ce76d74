package commands

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/TechnologyAdvice/Vers/internal/mcpserver"
)

// HandleMCP runs the MCP server over stdio until the client disconnects or
// the process is interrupted.
func HandleMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: vers mcp\n\n")
		cliutil.Writef(fs.Output(), "Serve the convert, plan, versions and validate_migrations tools over stdio.\n")
		cliutil.Writef(fs.Output(), "Configuration is read from VERS_* environment variables.\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}
