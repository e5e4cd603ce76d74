package migration

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	vers "github.com/TechnologyAdvice/Vers"
	"github.com/TechnologyAdvice/Vers/internal/jsonpath"
	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

// getValidator returns the shared struct validator, configured to report
// yaml field names and to understand versions and JSONPath targets.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			ver, ok := field.Interface().(vers.Version)
			if !ok || ver.IsZero() {
				return nil
			}
			return ver.String()
		}, vers.Version{})
		_ = v.RegisterValidation("jsonpath", func(fl validator.FieldLevel) bool {
			_, err := jsonpath.Parse(fl.Field().String())
			return err == nil
		})
		structValidator = v
	})
	return structValidator
}

// Validate checks a migration document for structural errors.
//
// The returned error is a ValidationErrors value listing every problem, or
// nil when the document is valid. Checks include:
//   - Required fields (migrations version, info.title, info.version, steps)
//   - Supported format version (currently only 1.0)
//   - Each step has distinct from and to versions and no duplicate edges
//   - Valid JSONPath syntax in action targets
//   - Each action sets exactly one of update, remove or rename
func Validate(d *Document) error {
	if d == nil {
		return ValidationErrors{{Message: "document is nil"}}
	}

	var errs ValidationErrors

	if err := getValidator().Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Path:    strings.TrimPrefix(fe.Namespace(), "Document."),
				Message: fieldMessage(fe),
			})
		}
	}

	// Every directed edge, forward or back, must come from exactly one
	// step: the engine keeps only the last converter registered for an edge.
	type edge struct{ from, to vers.Version }
	type owner struct {
		step int
		dir  Direction
	}
	seen := make(map[edge]owner)
	claim := func(i int, dir Direction, from, to vers.Version) {
		if from.IsZero() || to.IsZero() || from == to {
			return
		}
		e := edge{from, to}
		if first, dup := seen[e]; dup {
			errs = append(errs, ValidationError{
				Path: fmt.Sprintf("steps[%d]", i),
				Message: fmt.Sprintf("%s edge %s -> %s duplicates steps[%d] %s edge",
					dir, from, to, first.step, first.dir),
			})
			return
		}
		seen[e] = owner{step: i, dir: dir}
	}

	for i, step := range d.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)
		if !step.From.IsZero() && step.From == step.To {
			errs = append(errs, ValidationError{
				Path:    prefix,
				Message: fmt.Sprintf("from and to are both %s", step.From),
			})
		}
		claim(i, DirectionForward, step.From, step.To)
		if len(step.Back) > 0 {
			claim(i, DirectionBack, step.To, step.From)
		}
		errs = append(errs, validateActions(step.Forward, prefix+".forward")...)
		errs = append(errs, validateActions(step.Back, prefix+".back")...)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateActions checks what struct tags cannot express about actions.
func validateActions(actions []Action, prefix string) ValidationErrors {
	var errs ValidationErrors
	for i, action := range actions {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		if n := action.operationCount(); n != 1 {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "action must have exactly one of update, remove or rename",
			})
			continue
		}
		if action.Rename == "" {
			continue
		}
		p, err := jsonpath.Parse(action.Target)
		if err != nil {
			continue // reported by the jsonpath tag
		}
		if _, ok := p.LastKey(); !ok {
			errs = append(errs, ValidationError{
				Path:    path + ".target",
				Message: "rename target must end in a field name",
			})
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", fe.Param())
	case "eq":
		return fmt.Sprintf("unsupported value %q; only %q is supported", fe.Value(), fe.Param())
	case "jsonpath":
		_, err := jsonpath.Parse(fmt.Sprint(fe.Value()))
		return fmt.Sprintf("invalid JSONPath: %v", err)
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// IsValid is a convenience function that returns true if the document has no validation errors.
func IsValid(d *Document) bool {
	return Validate(d) == nil
}
