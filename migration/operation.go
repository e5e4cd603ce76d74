package migration

//go:generate go tool stringer -type=Operation -linecomment -output=operation_string.go

// Operation is the kind of change an action performs.
type Operation int

const (
	OpUpdate  Operation = iota // update
	OpRemove                   // remove
	OpRename                   // rename
	OpReplace                  // replace
	OpAppend                   // append
)
