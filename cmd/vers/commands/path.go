package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/TechnologyAdvice/Vers/migration"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PathFlags contains flags for the path command
type PathFlags struct {
	Migrations string
	From       string
	Target     string
	Format     string
}

// SetupPathFlags creates and configures a FlagSet for the path command.
func SetupPathFlags() (*flag.FlagSet, *PathFlags) {
	fs := flag.NewFlagSet("path", flag.ContinueOnError)
	flags := &PathFlags{}

	fs.StringVar(&flags.Migrations, "m", "", "migration document (required)")
	fs.StringVar(&flags.Migrations, "migrations", "", "migration document (required)")
	fs.StringVar(&flags.From, "f", "", "source version (required)")
	fs.StringVar(&flags.From, "from", "", "source version (required)")
	fs.StringVar(&flags.Target, "t", "", "target version (default: latest)")
	fs.StringVar(&flags.Target, "target", "", "target version (default: latest)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: vers path -m <migrations> -f <from> [-t <to>]\n\n")
		cliutil.Writef(fs.Output(), "Show the steps a conversion would apply, without converting anything.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  vers path -m migrations.yaml -f 1 -t 3\n")
		cliutil.Writef(fs.Output(), "  vers path -m migrations.yaml -f 3 -t 1 --format json\n")
	}

	return fs, flags
}

// PathStep is one edge of a planned conversion.
type PathStep struct {
	From        string       `json:"from" yaml:"from"`
	To          string       `json:"to" yaml:"to"`
	Direction   string       `json:"direction" yaml:"direction"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Actions     []PathAction `json:"actions" yaml:"actions"`
}

// PathAction summarizes a declared action.
type PathAction struct {
	Operation string `json:"operation" yaml:"operation"`
	Target    string `json:"target" yaml:"target"`
	Rename    string `json:"rename,omitempty" yaml:"rename,omitempty"`
}

// PathOutput is the structured output of the path command.
type PathOutput struct {
	From  string     `json:"from" yaml:"from"`
	To    string     `json:"to" yaml:"to"`
	Path  string     `json:"path" yaml:"path"`
	Steps []PathStep `json:"steps" yaml:"steps"`
}

// HandlePath executes the path command
func HandlePath(args []string) error {
	fs, flags := SetupPathFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.From == "" {
		fs.Usage()
		return fmt.Errorf("source version is required (use -f or --from)")
	}

	return runPath(flags, os.Stdout)
}

func runPath(flags *PathFlags, stdout io.Writer) error {
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	loaded, err := loadMigrations(flags.Migrations, nil, false)
	if err != nil {
		return err
	}

	from := loaded.Engine.ResolveVersion(flags.From)
	to, err := resolveTarget(loaded.Engine, flags.Target)
	if err != nil {
		return err
	}

	path, err := loaded.Engine.Plan(from, to)
	if err != nil {
		return err
	}

	planned, err := loaded.Document.Explain(path)
	if err != nil {
		return err
	}

	out := PathOutput{From: from.String(), To: to.String(), Path: path.String(), Steps: []PathStep{}}
	for _, p := range planned {
		ps := PathStep{
			From:        p.From.String(),
			To:          p.To.String(),
			Direction:   string(p.Direction),
			Description: p.Description,
			Actions:     make([]PathAction, 0, len(p.Actions)),
		}
		for _, a := range p.Actions {
			ps.Actions = append(ps.Actions, PathAction{
				Operation: a.Operation().String(),
				Target:    a.Target,
				Rename:    a.Rename,
			})
		}
		out.Steps = append(out.Steps, ps)
	}

	if flags.Format != FormatText {
		return writeStructured(stdout, out, flags.Format)
	}
	writePathText(stdout, out)
	return nil
}

func writePathText(w io.Writer, out PathOutput) {
	if len(out.Steps) == 0 {
		cliutil.Writef(w, "Already at version %s: nothing to do\n", out.To)
		return
	}

	title := cases.Title(language.English)
	cliutil.Writef(w, "Path: %s (%d steps)\n", out.Path, len(out.Steps))
	for _, s := range out.Steps {
		cliutil.Writef(w, "\n  %s -> %s (%s)", s.From, s.To, s.Direction)
		if s.Description != "" {
			cliutil.Writef(w, "  %s", s.Description)
		}
		cliutil.Writef(w, "\n")
		for _, a := range s.Actions {
			cliutil.Writef(w, "      %-8s %s", title.String(a.Operation), a.Target)
			if a.Operation == migration.OpRename.String() {
				cliutil.Writef(w, " -> %s", a.Rename)
			}
			cliutil.Writef(w, "\n")
		}
	}
}
