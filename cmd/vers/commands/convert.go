package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/cliutil"
	"github.com/TechnologyAdvice/Vers/internal/fileutil"
	"github.com/TechnologyAdvice/Vers/migration"
	"golang.org/x/sync/errgroup"
)

// ConvertFlags contains flags for the convert command
type ConvertFlags struct {
	Migrations string
	Target     string
	From       string
	Output     string
	Format     string
	Jobs       int
	Strict     bool
	Quiet      bool
	Verbose    bool
}

// SetupConvertFlags creates and configures a FlagSet for the convert command.
// Returns the FlagSet and a ConvertFlags struct with bound flag variables.
func SetupConvertFlags() (*flag.FlagSet, *ConvertFlags) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags := &ConvertFlags{}

	fs.StringVar(&flags.Migrations, "m", "", "migration document (required)")
	fs.StringVar(&flags.Migrations, "migrations", "", "migration document (required)")
	fs.StringVar(&flags.Target, "t", "", "target version (default: latest)")
	fs.StringVar(&flags.Target, "target", "", "target version (default: latest)")
	fs.StringVar(&flags.From, "f", "", "source version (default: detected from each record)")
	fs.StringVar(&flags.From, "from", "", "source version (default: detected from each record)")
	fs.StringVar(&flags.Output, "o", "", "output file path, single record only (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path, single record only (default: stdout)")
	fs.StringVar(&flags.Format, "format", "", "record output format: json or yaml (default: input format)")
	fs.IntVar(&flags.Jobs, "j", 4, "number of records converted concurrently")
	fs.IntVar(&flags.Jobs, "jobs", 4, "number of records converted concurrently")
	fs.BoolVar(&flags.Strict, "strict", false, "fail actions whose target matches nothing")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output records, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output records, no diagnostic messages")
	fs.BoolVar(&flags.Verbose, "v", false, "log each conversion step")
	fs.BoolVar(&flags.Verbose, "verbose", false, "log each conversion step")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: vers convert -m <migrations> [flags] <record|-> [record...]\n\n")
		cliutil.Writef(fs.Output(), "Convert records between versions using a migration document.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  vers convert -m migrations.yaml user.json\n")
		cliutil.Writef(fs.Output(), "  vers convert -m migrations.yaml -t 2 user.json -o user-v2.json\n")
		cliutil.Writef(fs.Output(), "  vers convert -m migrations.yaml -j 8 records/*.yaml\n")
		cliutil.Writef(fs.Output(), "  cat user.json | vers convert -q -m migrations.yaml - > latest.json\n")
		cliutil.Writef(fs.Output(), "\nVersions:\n")
		cliutil.Writef(fs.Output(), "  Numeric-looking values (2, 1.5) are numbers; anything else is a string.\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    All records converted\n")
		cliutil.Writef(fs.Output(), "  1    A record could not be read or converted\n")
	}

	return fs, flags
}

// HandleConvert executes the convert command
func HandleConvert(args []string) error {
	fs, flags := SetupConvertFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("convert command requires at least one record path or '-' for stdin")
	}

	return runConvert(context.Background(), flags, fs.Args(), os.Stdin, os.Stdout, os.Stderr)
}

// convertedRecord is one encoded conversion result.
type convertedRecord struct {
	input  string
	format migration.Format
	data   []byte
	result *vers.Result
}

func runConvert(ctx context.Context, flags *ConvertFlags, inputs []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := ValidateRecordFormat(flags.Format); err != nil {
		return err
	}
	if flags.Output != "" {
		if len(inputs) > 1 {
			return fmt.Errorf("--output can only be used with a single record")
		}
		if err := ValidateOutputPath(flags.Output, inputs); err != nil {
			return err
		}
	}
	if flags.Jobs < 1 {
		flags.Jobs = 1
	}

	logger, sync := newLogger(flags.Verbose)
	defer sync()

	loaded, err := loadMigrations(flags.Migrations, logger, flags.Strict)
	if err != nil {
		return err
	}
	engine := loaded.Engine

	target, err := resolveTarget(engine, flags.Target)
	if err != nil {
		return err
	}
	var from vers.Version
	if flags.From != "" {
		from = engine.ResolveVersion(flags.From)
	}

	// stdin can only be read once
	var stdinData []byte
	for _, in := range inputs {
		if in == StdinFilePath && stdinData == nil {
			if stdinData, err = io.ReadAll(stdin); err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
		}
	}

	start := time.Now()
	results := make([]convertedRecord, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flags.Jobs)
	for i, in := range inputs {
		g.Go(func() error {
			data := stdinData
			if in != StdinFilePath {
				b, err := os.ReadFile(in)
				if err != nil {
					return fmt.Errorf("reading %s: %w", in, err)
				}
				data = b
			}
			rec, err := convertOne(gctx, engine, from, target, in, data, flags.Format)
			if err != nil {
				return fmt.Errorf("%s: %w", FormatInputPath(in), err)
			}
			results[i] = *rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !flags.Quiet {
		cliutil.Writef(stderr, "Vers Record Converter\n")
		cliutil.Writef(stderr, "=====================\n\n")
		cliutil.Writef(stderr, "vers version: %s\n", vers.BuildVersion())
		cliutil.Writef(stderr, "Migrations: %s (%s)\n", loaded.SourcePath, loaded.Document.Info.Title)
		cliutil.Writef(stderr, "Target Version: %s\n\n", target)
		for _, r := range results {
			cliutil.Writef(stderr, "  %s: %s -> %s (%d steps)\n",
				FormatInputPath(r.input), r.result.From, r.result.To, len(r.result.Steps))
		}
		cliutil.Writef(stderr, "\n✓ Converted %d record(s) in %v\n", len(results), time.Since(start))
	}

	if flags.Output != "" {
		if err := fileutil.WriteOutput(flags.Output, results[0].data); err != nil {
			return err
		}
		if !flags.Quiet {
			cliutil.Writef(stderr, "\nOutput written to: %s\n", flags.Output)
		}
		return nil
	}

	for i, r := range results {
		if i > 0 && r.format == migration.FormatYAML {
			cliutil.Writef(stdout, "---\n")
		}
		if _, err := stdout.Write(r.data); err != nil {
			return fmt.Errorf("writing converted record to stdout: %w", err)
		}
	}
	return nil
}

// convertOne decodes, converts and re-encodes a single record.
func convertOne(ctx context.Context, engine *vers.Vers, from, to vers.Version, path string, data []byte, format string) (*convertedRecord, error) {
	inFormat := migration.DetectFormat(path, data)
	if path == StdinFilePath {
		inFormat = migration.DetectFormat("", data)
	}
	record, inFormat, err := migration.DecodeRecord(data, inFormat)
	if err != nil {
		return nil, err
	}

	if from.IsZero() {
		if from, err = engine.DetectVersion(ctx, record); err != nil {
			return nil, err
		}
	}

	result, err := engine.Convert(ctx, from, to, record)
	if err != nil {
		return nil, err
	}

	outFormat := inFormat
	if format != "" {
		outFormat = migration.Format(format)
	}
	out, err := migration.EncodeRecord(result.Record, outFormat)
	if err != nil {
		return nil, err
	}
	return &convertedRecord{input: path, format: outFormat, data: out, result: result}, nil
}

// resolveTarget returns the target flag as a version, or the engine's latest.
func resolveTarget(engine *vers.Vers, target string) (vers.Version, error) {
	if target != "" {
		return engine.ResolveVersion(target), nil
	}
	latest, err := engine.Latest()
	if err != nil {
		return vers.Version{}, fmt.Errorf("no target given and latest version is unknown: %w", err)
	}
	return latest, nil
}
