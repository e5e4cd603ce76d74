package migration

import (
	vers "github.com/TechnologyAdvice/Vers"
)

// SupportedVersion is the migration document format version understood by this package.
const SupportedVersion = "1.0"

// Document is a declarative description of the converters between record versions.
type Document struct {
	// Migrations is the document format version (e.g., "1.0").
	// This field is required.
	Migrations string `yaml:"migrations" json:"migrations" validate:"required,eq=1.0"`

	// Info contains metadata about the document.
	Info Info `yaml:"info" json:"info"`

	// VersionField names the record field holding the version.
	// Defaults to "version".
	VersionField string `yaml:"versionField,omitempty" json:"versionField,omitempty" validate:"omitempty,excludesall=.[]$"`

	// Latest fixes the engine's latest version instead of inferring it.
	Latest vers.Version `yaml:"latest,omitempty" json:"latest,omitempty"`

	// StrictTargets makes actions whose target matches nothing fail the step.
	StrictTargets bool `yaml:"strictTargets,omitempty" json:"strictTargets,omitempty"`

	// Steps are registered in order. At least one step is required.
	Steps []Step `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

// Info contains metadata about a migration document.
type Info struct {
	Title   string `yaml:"title" json:"title" validate:"required"`
	Version string `yaml:"version" json:"version" validate:"required"`
}

// Step declares the actions converting records from one version to another.
// Back actions, when present, register the reverse converter as well.
type Step struct {
	From        vers.Version `yaml:"from" json:"from" validate:"required"`
	To          vers.Version `yaml:"to" json:"to" validate:"required"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`

	// StampVersion controls whether the version field is set to the step's
	// target version after the actions run. Defaults to true.
	StampVersion *bool `yaml:"stampVersion,omitempty" json:"stampVersion,omitempty"`

	Forward []Action `yaml:"forward" json:"forward" validate:"required,min=1,dive"`
	Back    []Action `yaml:"back,omitempty" json:"back,omitempty" validate:"omitempty,dive"`
}

// stamps reports whether the step writes the target version into records.
func (s *Step) stamps() bool {
	return s.StampVersion == nil || *s.StampVersion
}

// Action is a single transformation applied to a record.
//
// Exactly one of Update, Remove or Rename must be set.
type Action struct {
	// Target is a JSONPath expression selecting nodes to operate on.
	Target string `yaml:"target" json:"target" validate:"required,jsonpath"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Update is merged into objects, appended to arrays and replaces scalars.
	Update any `yaml:"update,omitempty" json:"update,omitempty"`

	// Remove deletes the targeted nodes from their parents.
	Remove bool `yaml:"remove,omitempty" json:"remove,omitempty"`

	// Rename moves the targeted key to a new name in the same object.
	Rename string `yaml:"rename,omitempty" json:"rename,omitempty"`
}

// Operation returns the kind of change the action declares.
// Update actions report OpUpdate even when they end up replacing or appending.
func (a Action) Operation() Operation {
	switch {
	case a.Remove:
		return OpRemove
	case a.Rename != "":
		return OpRename
	default:
		return OpUpdate
	}
}

// operationCount counts how many operations the action sets.
func (a Action) operationCount() int {
	n := 0
	if a.Update != nil {
		n++
	}
	if a.Remove {
		n++
	}
	if a.Rename != "" {
		n++
	}
	return n
}

// ChangeRecord describes a single action applied to a record.
type ChangeRecord struct {
	// ActionIndex is the zero-based index of the action in its step.
	ActionIndex int

	// Target is the JSONPath expression that was evaluated.
	Target string

	// Operation is what was done to the matched nodes.
	Operation Operation

	// MatchCount is the number of nodes matched by the target.
	MatchCount int
}
