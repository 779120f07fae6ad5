package schema

import "slices"

// Recognized marker annotations.
const (
	AnnotationPrimaryKey   = "primary_key"
	AnnotationReadOnly     = "read_only"
	AnnotationNotDefaulted = "not_defaulted"
)

// KnownAnnotations lists the recognized annotation names.
var KnownAnnotations = []string{AnnotationPrimaryKey, AnnotationReadOnly, AnnotationNotDefaulted}

// implicitKeyNames are the field names adopted as primary key when no field
// is annotated primary_key: id, plus the spellings Go naming gives it.
var implicitKeyNames = []string{"id", "ID", "Id"}

// AnnotationSource tells where an annotation was declared.
type AnnotationSource int

const (
	SourceTag       AnnotationSource = iota // option of the struct tag
	SourceDirective                         // //crudx:<name> comment line
)

// Annotation is a named marker attached to a field.
type Annotation struct {
	Name   string
	Args   string // raw text following the name; empty for a bare marker
	Source AnnotationSource
}

// IsMarker reports whether the annotation carries no arguments.
func (a Annotation) IsMarker() bool {
	return a.Args == ""
}

// Field is a single named member of a table struct.
// A field with an empty Name is embedded.
type Field struct {
	Name        string
	Type        string   // source text of the type expression
	Tag         string   // raw struct tag without the backquotes
	Doc         []string // comment lines above the field, including the slashes
	Comment     string   // trailing line comment, including the slashes
	Annotations []Annotation
	Pos         string // file:line
}

// Embedded reports whether the field has no name of its own.
func (f *Field) Embedded() bool {
	return f.Name == ""
}

// HasAnnotation reports whether the field carries a bare marker called name.
func (f *Field) HasAnnotation(name string) bool {
	return slices.ContainsFunc(f.Annotations, func(a Annotation) bool {
		return a.IsMarker() && a.Name == name
	})
}

// IsPrimaryKey reports whether the field is annotated primary_key.
func (f *Field) IsPrimaryKey() bool {
	return f.HasAnnotation(AnnotationPrimaryKey)
}

// IsReadOnly reports whether the field is annotated read_only.
func (f *Field) IsReadOnly() bool {
	return f.HasAnnotation(AnnotationReadOnly)
}

// IsNotDefaulted reports whether the field is annotated not_defaulted.
func (f *Field) IsNotDefaulted() bool {
	return f.HasAnnotation(AnnotationNotDefaulted)
}

// isImplicitKey reports whether the field is named id, ID or Id.
func (f *Field) isImplicitKey() bool {
	return slices.Contains(implicitKeyNames, f.Name)
}

// IgnoredMarkers returns the recognized annotations on f that carry
// arguments and therefore do not count as markers.
func (f *Field) IgnoredMarkers() []Annotation {
	var out []Annotation

	for _, a := range f.Annotations {
		if !a.IsMarker() && slices.Contains(KnownAnnotations, a.Name) {
			out = append(out, a)
		}
	}

	return out
}

// UnknownAnnotations returns the annotations on f whose name is not
// recognized. They have no effect on classification.
func (f *Field) UnknownAnnotations() []Annotation {
	var out []Annotation

	for _, a := range f.Annotations {
		if !slices.Contains(KnownAnnotations, a.Name) {
			out = append(out, a)
		}
	}

	return out
}
