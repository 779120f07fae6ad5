package schema

// Classified is the partition of a table's fields.
//
// The key field never appears in ReadWrite or ReadOnly; every other named
// field appears in exactly one of them. Embedded fields appear nowhere.
type Classified struct {
	PrimaryKey PrimaryKey
	ReadWrite  []Field
	ReadOnly   []Field
}

// add appends f to ReadOnly or ReadWrite depending on its read_only marker.
func (c *Classified) add(f Field) {
	if f.IsReadOnly() {
		c.ReadOnly = append(c.ReadOnly, f)
	} else {
		c.ReadWrite = append(c.ReadWrite, f)
	}
}

// Classify partitions the fields of t in a single pass, in declaration order.
//
// A field named id becomes the primary key unless it is not_defaulted or a
// key is already set. A field annotated primary_key replaces it, and the id
// field is then appended as an ordinary field at that point. A second
// primary_key annotation fails with an *AmbiguousPrimaryKeyError.
func Classify(t *Table) (*Classified, error) {
	c := &Classified{PrimaryKey: NoPrimaryKey{}}

	for _, f := range t.Fields {
		if f.Embedded() {
			continue
		}

		_, unset := c.PrimaryKey.(NoPrimaryKey)

		switch {
		case f.isImplicitKey() && unset && !f.IsNotDefaulted():
			c.PrimaryKey = KeyFromName{Field: f}

		case f.IsPrimaryKey():
			switch old := c.PrimaryKey.(type) {
			case NoPrimaryKey:
			case KeyFromAttribute:
				return nil, &AmbiguousPrimaryKeyError{
					Table:  t.QualifiedName(),
					First:  old.Field,
					Second: f,
				}
			case KeyFromName:
				c.add(old.Field)
			}

			c.PrimaryKey = KeyFromAttribute{Field: f}

		default:
			c.add(f)
		}
	}

	return c, nil
}
