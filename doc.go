// Package vers converts records between schema versions.
//
// An application registers converters between pairs of versions once, then
// asks for a record at any version. vers finds the shortest chain of
// converters linking the record's version to the requested one and applies
// it step by step, so callers never spell out the intermediate versions.
//
// # Quick Start
//
//	v, err := vers.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 1 -> 2: split "name" into first and last.
//	_ = v.AddConverter(vers.Num(1), vers.Num(2),
//		func(_ context.Context, rec any) (any, error) {
//			m := rec.(map[string]any)
//			first, last, _ := strings.Cut(m["name"].(string), " ")
//			delete(m, "name")
//			m["first"], m["last"], m["version"] = first, last, 2
//			return nil, nil // mutated in place
//		},
//		func(_ context.Context, rec any) (any, error) {
//			m := rec.(map[string]any)
//			m["name"] = m["first"].(string) + " " + m["last"].(string)
//			delete(m, "first")
//			delete(m, "last")
//			m["version"] = 1
//			return nil, nil
//		})
//
//	rec, err := v.ToLatest(ctx, map[string]any{"version": 1, "name": "Ada Lovelace"})
//
// # Versions
//
// A [Version] is a number or a string. Two versions are the same only when
// they are equal: Num(1) and Str("1") are different versions. The current
// version of a record comes from a [VersionDetector]; the default reads the
// "version" field and assumes 1 when it is missing. The latest version is
// either fixed with [WithLatest] or inferred as the numeric maximum of the
// registered versions, which fails with a configuration error when any
// registered version is a string.
//
// # Paths
//
// Converters form a directed graph. A converter registered without a back
// function is one-way. Conversions take the path with the fewest steps, so
// a registered shortcut (1 -> 4) wins over the chain it skips, and a path
// may step down before stepping up again when that is shorter. Among equally
// short paths the earliest registered edges win, which makes the choice
// reproducible.
//
// # Records
//
// Records are passed to converters as-is and never copied. A converter that
// returns nil has mutated its input in place, and the next step receives the
// same reference. Steps run strictly one after another.
//
// # Errors
//
// Failures are reported with the types in
// [github.com/TechnologyAdvice/Vers/verserrors]: PathNotFoundError,
// VersionDetectionError, ConversionStepError and ConfigError.
//
// # Related Packages
//
//   - [github.com/TechnologyAdvice/Vers/graph] - Version graph and shortest-path search
//   - [github.com/TechnologyAdvice/Vers/migration] - Converters declared in YAML or JSON migration documents
//   - [github.com/TechnologyAdvice/Vers/verserrors] - Structured error types
package vers
