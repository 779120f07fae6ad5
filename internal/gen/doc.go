// Package gen synthesizes creation projections and renders them as Go code.
//
// A projection of table T is a struct named NewT holding exactly the
// read-write fields of T, in classification order. Fields are copied
// verbatim: type, struct tag, doc comment and line comment.
//
// Generation approach uses text/template + golang.org/x/tools/imports, so the
// output is gofmt'ed and imports of the source file that the projection does
// not need are dropped. One file is generated per source file declaring
// tables; output is deterministic for a given input.
package gen
