// Package diagnostic provides structured errors and warnings reported while
// deriving creation projections.
//
// Codes:
//   - CRUDX001: more than one field annotated primary_key
//   - CRUDX002: malformed table declaration
//   - CRUDX101: recognized marker written with arguments, ignored
//   - CRUDX102: unknown annotation name
package diagnostic
