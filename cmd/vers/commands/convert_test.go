package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TechnologyAdvice/Vers/migration"
	"github.com/TechnologyAdvice/Vers/verserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConvertFlags(t *testing.T) {
	fs, flags := SetupConvertFlags()

	t.Run("default values", func(t *testing.T) {
		if flags.Target != "" {
			t.Errorf("expected Target to be empty by default, got '%s'", flags.Target)
		}
		if flags.Jobs != 4 {
			t.Errorf("expected Jobs to be 4 by default, got %d", flags.Jobs)
		}
		if flags.Quiet || flags.Strict || flags.Verbose {
			t.Error("expected boolean flags to be false by default")
		}
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{"-m", "m.yaml", "-t", "3", "-f", "1", "-o", "out.json", "-j", "2", "--strict", "-q", "-v", "in.json"}
		if err := fs.Parse(args); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if flags.Migrations != "m.yaml" {
			t.Errorf("expected Migrations 'm.yaml', got '%s'", flags.Migrations)
		}
		if flags.Target != "3" || flags.From != "1" {
			t.Errorf("expected Target '3' and From '1', got '%s' and '%s'", flags.Target, flags.From)
		}
		if flags.Output != "out.json" {
			t.Errorf("expected Output 'out.json', got '%s'", flags.Output)
		}
		if flags.Jobs != 2 {
			t.Errorf("expected Jobs 2, got %d", flags.Jobs)
		}
		if !flags.Strict || !flags.Quiet || !flags.Verbose {
			t.Error("expected boolean flags to be true")
		}
		if fs.Arg(0) != "in.json" {
			t.Errorf("expected file arg 'in.json', got '%s'", fs.Arg(0))
		}
	})

	t.Run("long flags", func(t *testing.T) {
		fs2, flags2 := SetupConvertFlags()
		args := []string{"--migrations", "m.yaml", "--target", "v2", "--from", "v1", "--format", "yaml", "in.yaml"}
		if err := fs2.Parse(args); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if flags2.Target != "v2" || flags2.From != "v1" || flags2.Format != "yaml" {
			t.Errorf("unexpected flags: %+v", flags2)
		}
	})
}

func TestHandleConvert_NoArgs(t *testing.T) {
	if err := HandleConvert([]string{}); err == nil {
		t.Error("expected error when no record provided")
	}
}

func TestHandleConvert_Help(t *testing.T) {
	if err := HandleConvert([]string{"--help"}); err != nil {
		t.Errorf("unexpected error for help: %v", err)
	}
}

func TestHandleConvert_NoMigrations(t *testing.T) {
	if err := HandleConvert([]string{"-q", "input.json"}); err == nil {
		t.Error("expected error when no migration document provided")
	}
}

func runConvertTest(t *testing.T, flags *ConvertFlags, inputs []string, stdin string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runConvert(context.Background(), flags, inputs, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunConvert_ToLatest(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)
	rec := writeFile(t, dir, "user.json", `{"version": 1, "name": "Ada", "legacy": true}`)

	stdout, stderr, err := runConvertTest(t, &ConvertFlags{Migrations: m, Jobs: 1}, []string{rec}, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 3, "fullName": "Ada", "active": true}`, stdout)
	assert.Contains(t, stderr, "user.json: 1 -> 3 (2 steps)")
	assert.Contains(t, stderr, "Converted 1 record(s)")
}

func TestRunConvert_ExplicitVersions(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)

	flags := &ConvertFlags{Migrations: m, From: "2", Target: "1", Quiet: true, Jobs: 1}
	stdout, stderr, err := runConvertTest(t, flags, []string{StdinFilePath}, `{"fullName": "Ada"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 1, "name": "Ada"}`, stdout)
	assert.Empty(t, stderr)
}

func TestRunConvert_FormatOverride(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)
	rec := writeFile(t, dir, "user.json", `{"version": 2, "fullName": "Ada"}`)

	flags := &ConvertFlags{Migrations: m, Target: "1", Format: FormatYAML, Quiet: true, Jobs: 1}
	stdout, _, err := runConvertTest(t, flags, []string{rec}, "")
	require.NoError(t, err)

	got, format, err := migration.DecodeRecord([]byte(stdout), migration.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, migration.FormatYAML, format)
	assert.Equal(t, map[string]any{"version": 1, "name": "Ada"}, got)
}

func TestRunConvert_Batch(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)
	inputs := []string{
		writeFile(t, dir, "a.yaml", "version: 1\nname: A\n"),
		writeFile(t, dir, "b.yaml", "version: 2\nfullName: B\n"),
		writeFile(t, dir, "c.yaml", "version: 3\nfullName: C\n"),
	}

	stdout, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Quiet: true, Jobs: 3}, inputs, "")
	require.NoError(t, err)

	docs := strings.Split(stdout, "---\n")
	require.Len(t, docs, 3)
	for i, name := range []string{"A", "B", "C"} {
		got, _, err := migration.DecodeRecord([]byte(docs[i]), migration.FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, name, got.(map[string]any)["fullName"], "record %d keeps input order", i)
		assert.Equal(t, 3, got.(map[string]any)["version"])
	}
}

func TestRunConvert_OutputFile(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)
	rec := writeFile(t, dir, "user.json", `{"version": 1, "name": "Ada"}`)
	out := filepath.Join(dir, "out.json")

	_, stderr, err := runConvertTest(t, &ConvertFlags{Migrations: m, Output: out, Jobs: 1}, []string{rec}, "")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Output written to: "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 3, "fullName": "Ada", "active": true}`, string(data))
}

func TestRunConvert_Errors(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.yaml", testMigrations)
	rec := writeFile(t, dir, "user.json", `{"version": 1}`)

	t.Run("output with several records", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Output: "x.json"}, []string{rec, rec}, "")
		assert.ErrorContains(t, err, "single record")
	})

	t.Run("output overwrites input", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Output: rec}, []string{rec}, "")
		assert.ErrorContains(t, err, "overwrite")
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Format: "xml"}, []string{rec}, "")
		assert.Error(t, err)
	})

	t.Run("missing record", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m}, []string{filepath.Join(dir, "nope.json")}, "")
		assert.ErrorContains(t, err, "nope.json")
	})

	t.Run("unreachable target", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Target: "1"}, []string{StdinFilePath}, `{"version": 3}`)
		assert.True(t, errors.Is(err, verserrors.ErrPathNotFound))
		assert.ErrorContains(t, err, "<stdin>")
	})

	t.Run("strict targets", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m, Strict: true}, []string{StdinFilePath}, `{"version": 2}`)
		assert.True(t, errors.Is(err, migration.ErrNoMatch))
	})

	t.Run("undetectable version", func(t *testing.T) {
		_, _, err := runConvertTest(t, &ConvertFlags{Migrations: m}, []string{StdinFilePath}, `{"version": true}`)
		assert.True(t, errors.Is(err, verserrors.ErrVersionDetection))
	})
}
