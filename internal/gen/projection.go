package gen

import (
	"slices"

	"crudx-generator/internal/common"
	"crudx-generator/internal/schema"
)

// projectionPrefix is prepended to a table name to name its projection.
const projectionPrefix = "New"

// Projection is the creation type derived from a table: the table's
// read-write fields, copied verbatim, under a new name.
type Projection struct {
	Table      string // name of the table type
	Name       string
	Visibility schema.Visibility
	TypeParams string
	Fields     []schema.Field
}

// ProjectionName returns the projection name for a table name.
//
// Exported tables get "New" + name. Since Go spells visibility with the
// first letter, an unexported table user gets newUser so the projection
// is not more visible than the table.
func ProjectionName(name string, visibility schema.Visibility) string {
	if visibility == schema.VisibilityExported {
		return projectionPrefix + name
	}

	return common.LowerFirst(projectionPrefix) + common.UpperFirst(name)
}

// Synthesize builds the projection of a classified table.
func Synthesize(name string, visibility schema.Visibility, c *schema.Classified) Projection {
	return Projection{
		Table:      name,
		Name:       ProjectionName(name, visibility),
		Visibility: visibility,
		Fields:     slices.Clone(c.ReadWrite),
	}
}

// SynthesizeTable is Synthesize for a table, carrying its type parameters.
func SynthesizeTable(t *schema.Table, c *schema.Classified) Projection {
	p := Synthesize(t.Name, t.Visibility, c)
	p.TypeParams = t.TypeParams

	return p
}
