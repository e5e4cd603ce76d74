package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Version identifies a schema revision. It holds either a number or a string.
//
// Version is comparable: two versions are the same revision iff they are ==.
// A numeric version never equals a string version, so Num(1) != Str("1").
type Version struct {
	str     string
	num     float64
	numeric bool
	set     bool
}

// Num returns a numeric version.
func Num(n float64) Version {
	return Version{num: n, numeric: true, set: true}
}

// Str returns a string version.
func Str(s string) Version {
	return Version{str: s, set: true}
}

// ParseVersion converts a Go value into a Version.
//
// Integers and floats of every width become numeric versions, strings become
// string versions, and a Version is returned as-is. NaN, infinities,
// integers beyond ±MaxExactInteger and any other type are rejected.
func ParseVersion(v any) (Version, error) {
	switch val := v.(type) {
	case Version:
		return val, nil
	case string:
		return Str(val), nil
	case int:
		return parseInt(int64(val))
	case int8:
		return parseInt(int64(val))
	case int16:
		return parseInt(int64(val))
	case int32:
		return parseInt(int64(val))
	case int64:
		return parseInt(val)
	case uint:
		return parseUint(uint64(val))
	case uint8:
		return parseUint(uint64(val))
	case uint16:
		return parseUint(uint64(val))
	case uint32:
		return parseUint(uint64(val))
	case uint64:
		return parseUint(val)
	case float32:
		return parseFloat(float64(val))
	case float64:
		return parseFloat(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Version{}, fmt.Errorf("graph: invalid numeric version %q: %w", val, err)
		}
		return parseFloat(f)
	case nil:
		return Version{}, fmt.Errorf("graph: version is nil")
	default:
		return Version{}, fmt.Errorf("graph: unsupported version type %T", v)
	}
}

// FromString interprets text typed by a user, such as a command-line flag.
// Finite numeric literals become numeric versions; anything else, including
// "NaN" and "Inf", is a string version. Quoting forces a string version:
// `"2"` and `'2'` are both Str("2").
func FromString(s string) Version {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return Str(s[1 : len(s)-1])
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if v, err := parseFloat(f); err == nil {
			return v
		}
	}
	return Str(s)
}

// MaxExactInteger is the largest integer magnitude a numeric version holds
// exactly. Larger integers would collide with their neighbours.
const MaxExactInteger = 1 << 53

func parseInt(n int64) (Version, error) {
	if n > MaxExactInteger || n < -MaxExactInteger {
		return Version{}, fmt.Errorf("graph: integer version %d exceeds ±%d", n, int64(MaxExactInteger))
	}
	return Num(float64(n)), nil
}

func parseUint(n uint64) (Version, error) {
	if n > MaxExactInteger {
		return Version{}, fmt.Errorf("graph: integer version %d exceeds %d", n, uint64(MaxExactInteger))
	}
	return Num(float64(n)), nil
}

func parseFloat(f float64) (Version, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Version{}, fmt.Errorf("graph: version %v is not a finite number", f)
	}
	return Num(f), nil
}

// IsZero reports whether v was never set.
func (v Version) IsZero() bool {
	return !v.set
}

// IsFinite reports whether v is set and, when numeric, neither NaN nor
// infinite. Only finite versions can be found again by equality.
func (v Version) IsFinite() bool {
	return v.set && (!v.numeric || !math.IsNaN(v.num) && !math.IsInf(v.num, 0))
}

// IsNumeric reports whether v holds a number.
func (v Version) IsNumeric() bool {
	return v.set && v.numeric
}

// Number returns the numeric value of v. ok is false for string versions.
func (v Version) Number() (n float64, ok bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	return v.num, true
}

// Value returns v as a plain Go value: float64, int for whole numbers, or string.
// The zero Version returns nil.
func (v Version) Value() any {
	switch {
	case !v.set:
		return nil
	case !v.numeric:
		return v.str
	case v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53:
		return int(v.num)
	default:
		return v.num
	}
}

// String returns the version as written. Whole numbers print without a fraction.
func (v Version) String() string {
	switch {
	case !v.set:
		return "<unset>"
	case v.numeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return v.str
	}
}

// MarshalJSON encodes numeric versions as JSON numbers and string versions as strings.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON decodes a JSON number or string.
func (v *Version) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes the version as a YAML scalar of the matching kind.
func (v Version) MarshalYAML() (any, error) {
	return v.Value(), nil
}

// UnmarshalYAML decodes a YAML scalar. Quoted scalars stay strings, so
// `from: "2"` and `from: 2` are different versions.
func (v *Version) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
