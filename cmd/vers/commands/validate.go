package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/TechnologyAdvice/Vers/migration"
)

// ValidateFlags contains flags for the validate command
type ValidateFlags struct {
	Migrations string
	Quiet      bool
}

// SetupValidateFlags creates and configures a FlagSet for the validate command.
func SetupValidateFlags() (*flag.FlagSet, *ValidateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &ValidateFlags{}

	fs.StringVar(&flags.Migrations, "m", "", "migration document")
	fs.StringVar(&flags.Migrations, "migrations", "", "migration document")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only set the exit code")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only set the exit code")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: vers validate [-m] <migrations>\n\n")
		cliutil.Writef(fs.Output(), "Check a migration document for structural errors.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    Document is valid\n")
		cliutil.Writef(fs.Output(), "  1    Document could not be read or is invalid\n")
	}

	return fs, flags
}

// HandleValidate executes the validate command
func HandleValidate(args []string) error {
	fs, flags := SetupValidateFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.Migrations == "" && fs.NArg() == 1 {
		flags.Migrations = fs.Arg(0)
	}
	if flags.Migrations == "" || fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("validate command requires exactly one migration document")
	}

	return runValidate(flags, os.Stdout)
}

func runValidate(flags *ValidateFlags, stdout io.Writer) error {
	doc, err := migration.ParseFile(flags.Migrations)
	if err != nil {
		return err
	}

	err = migration.Validate(doc)
	if flags.Quiet {
		return err
	}

	cliutil.Writef(stdout, "Migrations: %s\n", flags.Migrations)
	cliutil.Writef(stdout, "Title: %s (%s)\n", doc.Info.Title, doc.Info.Version)
	cliutil.Writef(stdout, "Steps: %d\n\n", len(doc.Steps))

	var verrs migration.ValidationErrors
	if errors.As(err, &verrs) {
		cliutil.Writef(stdout, "Errors (%d):\n", len(verrs))
		for _, ve := range verrs {
			if ve.Path != "" {
				cliutil.Writef(stdout, "  %s: %s\n", ve.Path, ve.Message)
			} else {
				cliutil.Writef(stdout, "  %s\n", ve.Message)
			}
		}
		cliutil.Writef(stdout, "\n✗ Validation failed\n")
		return fmt.Errorf("migration document has %d error(s)", len(verrs))
	}
	if err != nil {
		return err
	}

	cliutil.Writef(stdout, "✓ Validation passed\n")
	return nil
}
