package db

import "fmt"

// ResolutionError reports a structural invariant violated while turning the
// parse tree into a database. Resolution is all-or-nothing; the first
// violation aborts it and no database is returned.
type ResolutionError struct {
	Line   int // source line of the offending record, 0 if unknown
	Entity string
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// CodecError reports a failed encode or decode call. It is local to the
// call: the database and other in-flight codec calls are unaffected.
type CodecError struct {
	Signal string
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("signal %s: %s", e.Signal, e.Reason)
}
