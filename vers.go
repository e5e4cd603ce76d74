package vers

import (
	"context"
	"errors"
	"time"

	"github.com/TechnologyAdvice/Vers/graph"
	"github.com/TechnologyAdvice/Vers/verserrors"
)

// Version identifies a schema revision: a number or a string.
type Version = graph.Version

// Num returns a numeric version.
func Num(n float64) Version { return graph.Num(n) }

// Str returns a string version.
func Str(s string) Version { return graph.Str(s) }

// ParseVersion converts an int, float or string into a Version.
func ParseVersion(v any) (Version, error) { return graph.ParseVersion(v) }

// VersionFromString parses user-typed text: numeric literals are numbers,
// quoted text and anything else is a string.
func VersionFromString(s string) Version { return graph.FromString(s) }

// ConverterFunc transforms a record from one version to the next.
//
// A converter may return a new record, or mutate its input and return
// nil, nil; the engine then continues with the record it passed in. A
// converter may block. Returning an error stops the conversion.
type ConverterFunc func(ctx context.Context, record any) (any, error)

// Path is a chain of converters between two versions.
type Path = graph.Path[ConverterFunc]

// Edge is a single registered converter.
type Edge = graph.Edge[ConverterFunc]

// Step describes one converter applied during a conversion.
type Step struct {
	// From is the version the step started at
	From Version
	// To is the version the step produced
	To Version
	// Mutated is true when the converter returned nothing and changed the record in place
	Mutated bool
	// Duration is how long the converter ran
	Duration time.Duration
}

// Result contains the outcome of a traced conversion.
type Result struct {
	// Record is the converted record. It may be the same reference that was passed in.
	Record any
	// From is the resolved source version
	From Version
	// To is the resolved target version
	To Version
	// Steps lists every converter applied, in order
	Steps []Step
	// Duration is the total time spent applying the path
	Duration time.Duration
}

// Vers converts records between schema versions.
//
// Converters are registered with AddConverter, usually once at startup.
// Conversions find the shortest chain of converters between two versions
// and apply it one step at a time. Records are never copied: converters
// may mutate them in place.
//
// A Vers is safe for concurrent conversions. Conversions of the same
// record must not overlap.
type Vers struct {
	graph    *graph.Graph[ConverterFunc]
	detector VersionDetector
	latest   Version
	logger   Logger
}

// New creates a Vers engine configured by opts.
func New(opts ...Option) (*Vers, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Vers{
		graph:    graph.New[ConverterFunc](),
		detector: cfg.detector,
		latest:   cfg.latest,
		logger:   cfg.logger,
	}, nil
}

// AddConverter registers forward as the converter from -> to and, when back
// is non-nil, back as the converter to -> from. Without back the edge is
// one-way.
//
// Registering a pair again replaces the earlier converter for that direction.
func (v *Vers) AddConverter(from, to Version, forward, back ConverterFunc) error {
	switch {
	case from.IsZero():
		return &verserrors.ConfigError{Option: "from", Message: "version must be set"}
	case to.IsZero():
		return &verserrors.ConfigError{Option: "to", Message: "version must be set"}
	case !from.IsFinite():
		return &verserrors.ConfigError{Option: "from", Value: from, Message: "version must be a finite number or a string"}
	case !to.IsFinite():
		return &verserrors.ConfigError{Option: "to", Value: to, Message: "version must be a finite number or a string"}
	case forward == nil:
		return &verserrors.ConfigError{Option: "forward", Message: "converter must not be nil"}
	}

	v.graph.AddEdge(from, to, forward)
	if back != nil {
		v.graph.AddEdge(to, from, back)
	}
	v.logger.Debug("registered converter", "from", from, "to", to, "bidirectional", back != nil)
	return nil
}

// FromTo converts record from version from to version to. The caller
// vouches for from; the record is not inspected.
func (v *Vers) FromTo(ctx context.Context, from, to Version, record any) (any, error) {
	res, err := v.Convert(ctx, from, to, record)
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

// To converts record to version to, detecting its current version first.
func (v *Vers) To(ctx context.Context, to Version, record any) (any, error) {
	from, err := v.DetectVersion(ctx, record)
	if err != nil {
		return nil, err
	}
	return v.FromTo(ctx, from, to, record)
}

// FromToLatest converts record from version from to the latest version.
func (v *Vers) FromToLatest(ctx context.Context, from Version, record any) (any, error) {
	latest, err := v.Latest()
	if err != nil {
		return nil, err
	}
	return v.FromTo(ctx, from, latest, record)
}

// ToLatest converts record to the latest version, detecting its current version first.
func (v *Vers) ToLatest(ctx context.Context, record any) (any, error) {
	from, err := v.DetectVersion(ctx, record)
	if err != nil {
		return nil, err
	}
	latest, err := v.Latest()
	if err != nil {
		return nil, err
	}
	return v.FromTo(ctx, from, latest, record)
}

// Convert converts record from -> to and reports every step it applied.
func (v *Vers) Convert(ctx context.Context, from, to Version, record any) (*Result, error) {
	path, err := v.Plan(from, to)
	if err != nil {
		v.logger.Debug("no conversion path", "from", from, "to", to, "error", err)
		return nil, err
	}

	result := &Result{From: from, To: to, Record: record}
	if path.Len() == 0 {
		return result, nil
	}

	v.logger.Debug("converting", "path", path.String(), "steps", path.Len())
	start := time.Now()
	result.Steps = make([]Step, 0, path.Len())

	current := record
	for i, e := range path {
		if err := ctx.Err(); err != nil {
			return nil, &verserrors.ConversionStepError{From: e.From, To: e.To, Step: i, Cause: err}
		}

		stepStart := time.Now()
		next, err := e.Payload(ctx, current)
		if err != nil {
			v.logger.Debug("conversion step failed", "step", i, "from", e.From, "to", e.To, "error", err)
			return nil, &verserrors.ConversionStepError{From: e.From, To: e.To, Step: i, Cause: err}
		}

		step := Step{From: e.From, To: e.To, Duration: time.Since(stepStart)}
		if next == nil {
			step.Mutated = true
		} else {
			current = next
		}
		result.Steps = append(result.Steps, step)
		v.logger.Debug("applied step", "step", i, "from", e.From, "to", e.To, "mutated", step.Mutated)
	}

	result.Record = current
	result.Duration = time.Since(start)
	return result, nil
}

// Plan returns the path a conversion from -> to would apply, without
// applying it.
func (v *Vers) Plan(from, to Version) (Path, error) {
	return v.graph.ShortestPath(from, to)
}

// Latest returns the latest version: the fixed one from WithLatest, or the
// numeric maximum of the registered versions.
func (v *Vers) Latest() (Version, error) {
	if !v.latest.IsZero() {
		return v.latest, nil
	}
	return v.graph.MaxNumeric()
}

// ResolveVersion interprets user-typed text as one of the registered
// versions. It behaves like VersionFromString, except that numeric text
// resolves to the string version when only the string form is registered,
// so "2" finds a version declared as Str("2").
func (v *Vers) ResolveVersion(s string) Version {
	ver := graph.FromString(s)
	if ver.IsNumeric() && !v.graph.HasVersion(ver) && v.graph.HasVersion(Str(s)) {
		return Str(s)
	}
	return ver
}

// Versions returns every registered version in first-registered order.
func (v *Vers) Versions() []Version {
	return v.graph.AllVersions()
}

// Edges returns every registered directed converter in registration order.
func (v *Vers) Edges() []Edge {
	return v.graph.Edges()
}

// DetectVersion runs the configured version detector on record. Detector
// failures are reported as *verserrors.VersionDetectionError.
func (v *Vers) DetectVersion(ctx context.Context, record any) (Version, error) {
	ver, err := v.detector.DetectVersion(ctx, record)
	if err != nil {
		if errors.Is(err, verserrors.ErrVersionDetection) {
			return Version{}, err
		}
		return Version{}, &verserrors.VersionDetectionError{Cause: err}
	}
	if ver.IsZero() {
		return Version{}, &verserrors.VersionDetectionError{Message: "detector returned an unset version"}
	}
	return ver, nil
}
