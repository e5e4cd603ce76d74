// Package migration builds converters from declarative migration documents.
//
// A migration document lists steps between record versions. Each step holds
// forward actions and optional back actions; each action selects nodes with
// a JSONPath target and updates, removes or renames them. Registering a
// document adds one converter per step to a [vers.Vers] engine, plus the
// reverse converter when back actions are present.
//
// # Document Format
//
//	migrations: "1.0"
//	info:
//	  title: user records
//	  version: "2024-01"
//	versionField: version   # optional, default "version"
//	latest: 3               # optional, otherwise the highest numeric version
//	strictTargets: false    # optional, fail actions that match nothing
//	steps:
//	  - from: 1
//	    to: 2
//	    forward:
//	      - target: $.name
//	        rename: fullName
//	    back:
//	      - target: $.fullName
//	        rename: name
//	  - from: 2
//	    to: 3
//	    forward:
//	      - target: $
//	        update:
//	          tags: []
//
// # Actions
//
// update merges into objects, appends to arrays and replaces scalars. A root
// target ($) merges into the record itself. remove deletes map keys and
// splices array elements. rename moves a key within its parent object and
// needs a target ending in a field name.
//
// After a step's actions run, the record's version field is set to the
// step's target version unless the step sets stampVersion: false.
//
// # Quick Start
//
//	result, err := migration.LoadWithOptions(migration.WithFilePath("migrations.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	record, _, err := migration.ReadRecordFile("user.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	record, err = result.Engine.ToLatest(ctx, record)
//
// Documents can also be registered on an existing engine with
// [Document.Register], or turned into a new one with [NewEngine].
package migration
