package migration

import (
	"fmt"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/options"
)

// Option is a function that configures a load operation.
type Option func(*loadConfig) error

// loadConfig holds configuration for a load operation.
type loadConfig struct {
	// Input source (exactly one must be set)
	filePath *string
	data     []byte

	logger        vers.Logger
	strictTargets *bool
	engineOptions []vers.Option
}

// WithFilePath specifies a file path as the migration document source.
func WithFilePath(path string) Option {
	return func(cfg *loadConfig) error {
		if path == "" {
			return fmt.Errorf("migration path cannot be empty")
		}
		cfg.filePath = &path
		return nil
	}
}

// WithBytes specifies raw YAML or JSON bytes as the migration document source.
func WithBytes(data []byte) Option {
	return func(cfg *loadConfig) error {
		if len(data) == 0 {
			return fmt.Errorf("migration content cannot be empty")
		}
		cfg.data = data
		return nil
	}
}

// WithLogger sets the logger used by the engine and by compiled actions.
func WithLogger(l vers.Logger) Option {
	return func(cfg *loadConfig) error {
		if l == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		cfg.logger = l
		return nil
	}
}

// WithStrictTargets overrides the document's strictTargets setting.
//
// In strict mode an action whose target matches no nodes fails the step.
func WithStrictTargets(strict bool) Option {
	return func(cfg *loadConfig) error {
		cfg.strictTargets = &strict
		return nil
	}
}

// WithEngineOptions passes extra options to the engine after the document's own.
func WithEngineOptions(opts ...vers.Option) Option {
	return func(cfg *loadConfig) error {
		cfg.engineOptions = append(cfg.engineOptions, opts...)
		return nil
	}
}

// applyOptions applies all options and returns the configuration.
func applyOptions(opts ...Option) (*loadConfig, error) {
	cfg := &loadConfig{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := options.ValidateSingleInputSource(
		"must specify an input source (use WithFilePath or WithBytes)",
		"must specify exactly one input source",
		cfg.filePath != nil, cfg.data != nil,
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadResult is a parsed document and the engine built from it.
type LoadResult struct {
	// Document is the parsed, validated migration document.
	Document *Document

	// Engine has every step of Document registered.
	Engine *vers.Vers

	// SourcePath is the file the document was read from, if any.
	SourcePath string
}

// LoadWithOptions parses a migration document and builds an engine from it
// using functional options.
//
// Example:
//
//	result, err := migration.LoadWithOptions(
//	    migration.WithFilePath("migrations.yaml"),
//	    migration.WithStrictTargets(true),
//	)
//	rec, err = result.Engine.ToLatest(ctx, rec)
func LoadWithOptions(opts ...Option) (*LoadResult, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("migration: invalid options: %w", err)
	}

	result := &LoadResult{}
	if cfg.filePath != nil {
		result.SourcePath = *cfg.filePath
		result.Document, err = ParseFile(*cfg.filePath)
	} else {
		result.Document, err = Parse(cfg.data)
	}
	if err != nil {
		return nil, err
	}

	engineOpts := result.Document.EngineOptions()
	if cfg.logger != nil {
		engineOpts = append(engineOpts, vers.WithLogger(cfg.logger))
	}
	engineOpts = append(engineOpts, cfg.engineOptions...)

	result.Engine, err = vers.New(engineOpts...)
	if err != nil {
		return nil, err
	}

	if err := result.Document.newRegistrar(cfg.strictTargets, cfg.logger).register(result.Document, result.Engine); err != nil {
		return nil, err
	}
	return result, nil
}
