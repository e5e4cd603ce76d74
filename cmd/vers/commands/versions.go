package commands

import (
	"errors"
	"flag"
	"io"
	"os"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/samber/lo"
)

// VersionsFlags contains flags for the versions command
type VersionsFlags struct {
	Migrations string
	Format     string
}

// SetupVersionsFlags creates and configures a FlagSet for the versions command.
func SetupVersionsFlags() (*flag.FlagSet, *VersionsFlags) {
	fs := flag.NewFlagSet("versions", flag.ContinueOnError)
	flags := &VersionsFlags{}

	fs.StringVar(&flags.Migrations, "m", "", "migration document (required)")
	fs.StringVar(&flags.Migrations, "migrations", "", "migration document (required)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: vers versions -m <migrations>\n\n")
		cliutil.Writef(fs.Output(), "List the versions a migration document knows about.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// VersionsOutput is the structured output of the versions command.
type VersionsOutput struct {
	Versions    []string `json:"versions" yaml:"versions"`
	Latest      string   `json:"latest,omitempty" yaml:"latest,omitempty"`
	LatestError string   `json:"latest_error,omitempty" yaml:"latest_error,omitempty"`
	Edges       []string `json:"edges" yaml:"edges"`
}

// HandleVersions executes the versions command
func HandleVersions(args []string) error {
	fs, flags := SetupVersionsFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return runVersions(flags, os.Stdout)
}

func runVersions(flags *VersionsFlags, stdout io.Writer) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	loaded, err := loadMigrations(flags.Migrations, nil, false)
	if err != nil {
		return err
	}
	engine := loaded.Engine

	out := VersionsOutput{
		Versions: lo.Map(engine.Versions(), func(v vers.Version, _ int) string { return v.String() }),
		Edges: lo.Map(engine.Edges(), func(e vers.Edge, _ int) string {
			return e.From.String() + " -> " + e.To.String()
		}),
	}
	if latest, err := engine.Latest(); err != nil {
		out.LatestError = err.Error()
	} else {
		out.Latest = latest.String()
	}

	if flags.Format != FormatText {
		return writeStructured(stdout, out, flags.Format)
	}

	cliutil.Writef(stdout, "Versions (%d):\n", len(out.Versions))
	for _, v := range out.Versions {
		marker := ""
		if v == out.Latest {
			marker = " (latest)"
		}
		cliutil.Writef(stdout, "  %s%s\n", v, marker)
	}
	if out.LatestError != "" {
		cliutil.Writef(stdout, "\nLatest: unknown (%s)\n", out.LatestError)
	}
	cliutil.Writef(stdout, "\n")
	cliutil.WriteList(stdout, "Converters", out.Edges)
	return nil
}
