package schema

import (
	"errors"
	"fmt"
)

// ErrAmbiguousPrimaryKey is returned when more than one field of a table is
// annotated primary_key.
var ErrAmbiguousPrimaryKey = errors.New("multiple primary key annotations not allowed")

// AmbiguousPrimaryKeyError describes the conflicting fields.
type AmbiguousPrimaryKeyError struct {
	Table  string // qualified table name
	First  Field  // field that already holds the annotated key
	Second Field  // field that tried to claim it
}

func (e *AmbiguousPrimaryKeyError) Error() string {
	msg := fmt.Sprintf("%s: field %s is annotated %s but %s already is",
		e.Table, e.Second.Name, AnnotationPrimaryKey, e.First.Name)
	if e.Second.Pos != "" {
		msg = e.Second.Pos + ": " + msg
	}

	return msg
}

func (e *AmbiguousPrimaryKeyError) Unwrap() error {
	return ErrAmbiguousPrimaryKey
}
