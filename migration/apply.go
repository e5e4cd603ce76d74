package migration

import (
	"context"
	"fmt"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/jsonpath"
)

// compiledAction is an action with its target already parsed.
type compiledAction struct {
	Action
	path *jsonpath.Path
}

// registrar turns document steps into engine converters.
type registrar struct {
	strictTargets bool
	versionField  string
	logger        vers.Logger
}

// Register validates the document and adds a converter to v for every step,
// plus the reverse converter for steps with back actions.
func (d *Document) Register(v *vers.Vers) error {
	return d.newRegistrar(nil, nil).register(d, v)
}

func (d *Document) newRegistrar(strict *bool, logger vers.Logger) *registrar {
	r := &registrar{
		strictTargets: d.StrictTargets,
		versionField:  d.VersionField,
		logger:        logger,
	}
	if strict != nil {
		r.strictTargets = *strict
	}
	if r.versionField == "" {
		r.versionField = vers.DefaultVersionField
	}
	if r.logger == nil {
		r.logger = vers.NopLogger{}
	}
	return r
}

func (r *registrar) register(d *Document, v *vers.Vers) error {
	if v == nil {
		return fmt.Errorf("migration: engine cannot be nil")
	}
	if err := Validate(d); err != nil {
		return err
	}

	for i := range d.Steps {
		step := &d.Steps[i]
		forward, err := r.converter(step, step.From, step.To, step.Forward)
		if err != nil {
			return err
		}
		var back vers.ConverterFunc
		if len(step.Back) > 0 {
			if back, err = r.converter(step, step.To, step.From, step.Back); err != nil {
				return err
			}
		}
		if err := v.AddConverter(step.From, step.To, forward, back); err != nil {
			return fmt.Errorf("migration: steps[%d]: %w", i, err)
		}
	}
	return nil
}

// converter compiles actions into a converter that mutates records in place.
func (r *registrar) converter(step *Step, from, to vers.Version, actions []Action) (vers.ConverterFunc, error) {
	compiled := make([]compiledAction, len(actions))
	for i, a := range actions {
		p, err := jsonpath.Parse(a.Target)
		if err != nil {
			return nil, &ActionError{From: from.String(), To: to.String(), ActionIndex: i, Target: a.Target, Cause: err}
		}
		compiled[i] = compiledAction{Action: a, path: p}
	}
	stamp := step.stamps()
	logger := r.logger.With("from", from.String(), "to", to.String())

	return func(ctx context.Context, record any) (any, error) {
		for i, a := range compiled {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			change, err := applyAction(record, a, i)
			if err != nil {
				return nil, &ActionError{From: from.String(), To: to.String(), ActionIndex: i, Target: a.Target, Cause: err}
			}
			if change.MatchCount == 0 {
				if r.strictTargets {
					return nil, &ActionError{From: from.String(), To: to.String(), ActionIndex: i, Target: a.Target, Cause: ErrNoMatch}
				}
				logger.Debug("action matched no nodes", "action", i, "target", a.Target)
				continue
			}
			logger.Debug("applied action",
				"action", i,
				"target", a.Target,
				"operation", change.Operation.String(),
				"matches", change.MatchCount,
			)
		}
		if stamp {
			if m, ok := record.(map[string]any); ok {
				m[r.versionField] = to.Value()
			}
		}
		return nil, nil
	}, nil
}

// applyAction applies a single action to the record in place.
func applyAction(record any, a compiledAction, index int) (*ChangeRecord, error) {
	change := &ChangeRecord{
		ActionIndex: index,
		Target:      a.Target,
		Operation:   a.Operation(),
	}

	var err error
	switch change.Operation {
	case OpRemove:
		change.MatchCount, err = a.path.Remove(record)
	case OpRename:
		change.MatchCount, err = a.path.Rename(record, a.Rename)
	default:
		change.MatchCount, err = applyUpdate(record, a, change)
	}
	if err != nil {
		return nil, err
	}
	return change, nil
}

// applyUpdate merges objects, appends to arrays and replaces scalars.
// A root target can only be merged into an object record.
func applyUpdate(record any, a compiledAction, change *ChangeRecord) (int, error) {
	if a.path.IsRoot() {
		target, ok := record.(map[string]any)
		update, isMap := a.Update.(map[string]any)
		if !ok || !isMap {
			return 0, fmt.Errorf("root update requires an object record and an object update")
		}
		mergeDeep(target, deepCopyValue(update).(map[string]any))
		return 1, nil
	}

	return a.path.Modify(record, func(elem any) any {
		update := deepCopyValue(a.Update)
		switch target := elem.(type) {
		case map[string]any:
			if m, ok := update.(map[string]any); ok {
				change.Operation = OpUpdate
				return mergeDeep(target, m)
			}
			change.Operation = OpReplace
			return update
		case []any:
			change.Operation = OpAppend
			return append(target, update)
		default:
			change.Operation = OpReplace
			return update
		}
	})
}

// mergeDeep performs a deep merge of source into target.
//
// Properties from source are recursively merged into target:
//   - Same-name properties are replaced
//   - New properties are added
//   - Nested objects are merged recursively
func mergeDeep(target, source map[string]any) map[string]any {
	for key, srcVal := range source {
		if targetVal, exists := target[key]; exists {
			targetMap, targetIsMap := targetVal.(map[string]any)
			srcMap, srcIsMap := srcVal.(map[string]any)
			if targetIsMap && srcIsMap {
				mergeDeep(targetMap, srcMap)
				continue
			}
		}
		target[key] = srcVal
	}
	return target
}

// deepCopyValue copies the generic trees held in actions so records never
// share nodes with the document or with each other.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = deepCopyValue(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = deepCopyValue(v)
		}
		return result
	default:
		return val
	}
}

// Step looks up the declared step for the edge from -> to. Forward edges
// return the step's forward actions; reverse edges of steps with back
// actions return the back actions.
func (d *Document) Step(from, to vers.Version) (*Step, []Action, bool) {
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.From == from && s.To == to {
			return s, s.Forward, true
		}
	}
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.From == to && s.To == from && len(s.Back) > 0 {
			return s, s.Back, true
		}
	}
	return nil, nil, false
}

// EngineOptions returns the engine options the document declares.
func (d *Document) EngineOptions() []vers.Option {
	var opts []vers.Option
	if d.VersionField != "" {
		opts = append(opts, vers.WithVersionField(d.VersionField))
	}
	if !d.Latest.IsZero() {
		opts = append(opts, vers.WithLatest(d.Latest))
	}
	return opts
}

// NewEngine builds an engine configured by the document with all of its
// steps registered. Extra options are applied after the document's own.
func NewEngine(d *Document, extra ...vers.Option) (*vers.Vers, error) {
	if d == nil {
		return nil, fmt.Errorf("migration: document cannot be nil")
	}
	v, err := vers.New(append(d.EngineOptions(), extra...)...)
	if err != nil {
		return nil, err
	}
	if err := d.Register(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Direction tells whether a planned step runs a step's forward or back actions.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionBack    Direction = "back"
)

// PlannedStep pairs one edge of a conversion path with the actions it runs.
type PlannedStep struct {
	From        vers.Version
	To          vers.Version
	Direction   Direction
	Description string
	Actions     []Action
}

// Explain maps every edge of path to the declared step behind it.
// It fails when an edge was not registered from this document.
func (d *Document) Explain(path vers.Path) ([]PlannedStep, error) {
	planned := make([]PlannedStep, 0, path.Len())
	for _, e := range path {
		step, actions, ok := d.Step(e.From, e.To)
		if !ok {
			return nil, fmt.Errorf("migration: no declared step for %s -> %s", e.From, e.To)
		}
		ps := PlannedStep{
			From:        e.From,
			To:          e.To,
			Direction:   DirectionForward,
			Description: step.Description,
			Actions:     actions,
		}
		if step.From != e.From {
			ps.Direction = DirectionBack
		}
		planned = append(planned, ps)
	}
	return planned, nil
}
