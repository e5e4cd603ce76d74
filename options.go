package vers

import (
	"github.com/TechnologyAdvice/Vers/verserrors"
)

// Option is a function that configures a Vers engine
type Option func(*config) error

// config holds configuration for a Vers engine
type config struct {
	detector       VersionDetector
	versionField   string
	defaultVersion Version
	latest         Version
	logger         Logger
}

// applyOptions applies option functions on top of the defaults
func applyOptions(opts ...Option) (*config, error) {
	cfg := &config{
		versionField: DefaultVersionField,
		logger:       NopLogger{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.detector == nil {
		cfg.detector = FieldDetector{Field: cfg.versionField, Default: cfg.defaultVersion}
	}

	return cfg, nil
}

// WithVersionDetector replaces the default field-based version detector.
// Default: FieldDetector reading the "version" field, falling back to 1
func WithVersionDetector(d VersionDetector) Option {
	return func(cfg *config) error {
		if d == nil {
			return &verserrors.ConfigError{Option: "version detector", Message: "must not be nil"}
		}
		cfg.detector = d
		return nil
	}
}

// WithVersionField sets the record field read by the default detector.
// It has no effect when WithVersionDetector is also given.
// Default: "version"
func WithVersionField(field string) Option {
	return func(cfg *config) error {
		if field == "" {
			return &verserrors.ConfigError{Option: "version field", Message: "must not be empty"}
		}
		cfg.versionField = field
		return nil
	}
}

// WithDefaultVersion sets the version the default detector assumes for
// records without a version field.
// Default: 1
func WithDefaultVersion(v Version) Option {
	return func(cfg *config) error {
		if v.IsZero() {
			return &verserrors.ConfigError{Option: "default version", Message: "must be set"}
		}
		if !v.IsFinite() {
			return &verserrors.ConfigError{Option: "default version", Value: v, Message: "must be a finite number or a string"}
		}
		cfg.defaultVersion = v
		return nil
	}
}

// WithLatest fixes the version treated as latest. Without it, latest is the
// numeric maximum of the registered versions, which requires every
// registered version to be numeric.
func WithLatest(v Version) Option {
	return func(cfg *config) error {
		if v.IsZero() {
			return &verserrors.ConfigError{Option: "latest", Message: "must be set"}
		}
		if !v.IsFinite() {
			return &verserrors.ConfigError{Option: "latest", Value: v, Message: "must be a finite number or a string"}
		}
		cfg.latest = v
		return nil
	}
}

// WithLogger sets the logger used for path selection and step tracing.
// Default: NopLogger
func WithLogger(l Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			l = NopLogger{}
		}
		cfg.logger = l
		return nil
	}
}
