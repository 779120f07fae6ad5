// Package analyze loads Go packages and extracts table declarations.
//
// It uses golang.org/x/tools/go/packages to parse the requested packages and
// walks each file's AST for struct types marked with a table directive:
//
//	//crudx:table
//	type User struct { ... }
//
// Each marked struct becomes a schema.Table whose fields keep their source
// text (type, tag, comments) so that they can be re-emitted verbatim. The
// analyzer does not type-check: a stale generated file in the package never
// prevents regeneration.
//
// Failures at this stage (unparseable source, a directive on a non-struct
// type) are reported as ErrMalformedDeclaration, before any classification.
package analyze
