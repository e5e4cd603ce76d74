package vers

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/TechnologyAdvice/Vers/verserrors"
)

// DefaultVersionField is the record field FieldDetector reads by default.
const DefaultVersionField = "version"

// VersionDetector names the current version of a record.
//
// DetectVersion may block, for example to look the version up elsewhere.
// Any error it returns fails the calling conversion.
type VersionDetector interface {
	DetectVersion(ctx context.Context, record any) (Version, error)
}

// VersionDetectorFunc adapts a function to the VersionDetector interface.
type VersionDetectorFunc func(ctx context.Context, record any) (Version, error)

// DetectVersion implements VersionDetector.
func (f VersionDetectorFunc) DetectVersion(ctx context.Context, record any) (Version, error) {
	return f(ctx, record)
}

// Versioned is implemented by records that know their own version.
// FieldDetector consults it before looking at map fields.
type Versioned interface {
	SchemaVersion() Version
}

// FieldDetector reads a record's version from a map key or struct field.
//
// Records implementing Versioned are asked directly. Otherwise the record,
// after following pointers, may be any map with string keys, or a struct
// whose exported field has a json or yaml tag equal to Field, or a name
// equal to it ignoring case. A missing field, a nil value, or a record of any
// other kind yields Default. A field holding something that is not a number
// or a string is an error.
type FieldDetector struct {
	// Field is the key holding the version. Empty means DefaultVersionField.
	Field string
	// Default is returned when the record carries no version. The zero
	// Version means Num(1).
	Default Version
}

// DetectVersion implements VersionDetector.
func (d FieldDetector) DetectVersion(_ context.Context, record any) (Version, error) {
	field := d.Field
	if field == "" {
		field = DefaultVersionField
	}

	var raw any
	var found bool
	switch rec := record.(type) {
	case Versioned:
		if v := rec.SchemaVersion(); !v.IsZero() {
			return v, nil
		}
	case map[string]any:
		raw, found = rec[field]
	case map[any]any:
		raw, found = rec[field]
	default:
		raw, found = lookupField(reflect.ValueOf(record), field)
	}

	if !found || raw == nil {
		return d.fallback(), nil
	}

	v, err := ParseVersion(raw)
	if err != nil {
		return Version{}, &verserrors.VersionDetectionError{
			Message: fmt.Sprintf("field %q", field),
			Cause:   err,
		}
	}
	return v, nil
}

// lookupField finds field in a string-keyed map or a struct, following
// pointers. The value is returned as a plain int64, uint64, float64 or
// string when its kind allows, so named types parse like their base types.
func lookupField(rv reflect.Value, field string) (any, bool) {
	rv, ok := indirect(rv)
	if !ok {
		return nil, false
	}

	var val reflect.Value
	switch rv.Kind() {
	case reflect.Map:
		keyType := rv.Type().Key()
		if keyType.Kind() != reflect.String {
			return nil, false
		}
		val = rv.MapIndex(reflect.ValueOf(field).Convert(keyType))
	case reflect.Struct:
		t := rv.Type()
		for i := range t.NumField() {
			if sf := t.Field(i); sf.IsExported() && fieldMatches(sf, field) {
				val = rv.Field(i)
				break
			}
		}
	}
	if !val.IsValid() {
		return nil, false
	}

	val, ok = indirect(val)
	if !ok {
		return nil, true
	}
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return val.Uint(), true
	case reflect.Float32, reflect.Float64:
		return val.Float(), true
	case reflect.String:
		if val.Type() == reflect.TypeOf(json.Number("")) {
			return json.Number(val.String()), true
		}
		return val.String(), true
	}
	return val.Interface(), true
}

// indirect follows pointers and interfaces. ok is false for nil or invalid values.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// fieldMatches reports whether sf holds field. A json or yaml tag name, when
// present, takes precedence over the Go field name.
func fieldMatches(sf reflect.StructField, field string) bool {
	tagged := false
	for _, key := range []string{"json", "yaml"} {
		name, _, _ := strings.Cut(sf.Tag.Get(key), ",")
		if name == "" {
			continue
		}
		if name == field {
			return true
		}
		tagged = true
	}
	return !tagged && strings.EqualFold(sf.Name, field)
}

func (d FieldDetector) fallback() Version {
	if d.Default.IsZero() {
		return Num(1)
	}
	return d.Default
}

var _ VersionDetector = FieldDetector{}
