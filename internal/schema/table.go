package schema

import "go/token"

//go:generate go tool stringer -type=Visibility -trimprefix=Visibility -output=visibility_string.go

// Visibility is the exportedness of a declared identifier.
type Visibility int

const (
	VisibilityUnexported Visibility = iota
	VisibilityExported
)

// VisibilityOf returns the visibility Go assigns to name.
func VisibilityOf(name string) Visibility {
	if token.IsExported(name) {
		return VisibilityExported
	}

	return VisibilityUnexported
}

// Table is a struct type declaration marked as a table.
type Table struct {
	PkgPath    string     // import path of the declaring package
	PkgName    string     // package name
	File       string     // absolute path of the declaring file
	Name       string     // type name, e.g. "User"
	Visibility Visibility // copied onto the projection
	TypeParams string     // "[T any]" for generic structs, otherwise empty
	Fields     []Field    // fields in declaration order
	Pos        string     // file:line of the type spec
}

// QualifiedName returns "pkg.Name", or Name when the package is unknown.
func (t *Table) QualifiedName() string {
	if t.PkgName == "" {
		return t.Name
	}

	return t.PkgName + "." + t.Name
}
