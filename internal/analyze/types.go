package analyze

import (
	"errors"
	"fmt"

	"crudx-generator/internal/schema"
)

// ErrMalformedDeclaration is returned when the input cannot be read as a
// table declaration at all.
var ErrMalformedDeclaration = errors.New("malformed declaration")

// DeclarationError describes a declaration that could not be analyzed.
type DeclarationError struct {
	Pos    string // file:line:col, if known
	Name   string // declared name, if known
	Reason string
	Err    error // underlying parse or load error, if any
}

func (e *DeclarationError) Error() string {
	msg := e.Reason
	if e.Name != "" {
		msg = e.Name + ": " + msg
	}

	if e.Pos != "" {
		msg = e.Pos + ": " + msg
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Is reports ErrMalformedDeclaration for every DeclarationError.
func (e *DeclarationError) Is(target error) bool {
	return target == ErrMalformedDeclaration
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// Options configures how tables and annotations are recognized.
type Options struct {
	// Tag is the struct tag key holding field annotations, e.g. "crudx".
	Tag string
	// Directive is the comment directive prefix, e.g. "crudx" for //crudx:table.
	Directive string
	// Dir is the directory packages are resolved from. Empty means the
	// current directory.
	Dir string
}

// DefaultOptions returns the default analyzer options.
func DefaultOptions() Options {
	return Options{
		Tag:       "crudx",
		Directive: "crudx",
	}
}

// Package holds the tables found in one Go package.
type Package struct {
	Path  string  // import path; empty for files parsed on their own
	Name  string  // package name
	Dir   string  // directory of the package sources
	Files []*File // files declaring at least one table, in load order
}

// Tables returns all tables of the package in file then declaration order.
func (p *Package) Tables() []*schema.Table {
	var out []*schema.Table
	for _, f := range p.Files {
		out = append(out, f.Tables...)
	}

	return out
}

// File holds the tables declared in one source file.
type File struct {
	Path    string // absolute file path
	Imports []Import
	Tables  []*schema.Table
}

// Import is an import spec of a source file.
type Import struct {
	Name string // explicit local name, empty if none
	Path string
}
