package schema

// PrimaryKey records how a table's primary key was determined.
//
// It is one of NoPrimaryKey, KeyFromName or KeyFromAttribute.
type PrimaryKey interface {
	// Key returns the key field, or nil for NoPrimaryKey.
	Key() *Field
	String() string

	primaryKey()
}

// NoPrimaryKey means no field has been identified as the primary key.
type NoPrimaryKey struct{}

// KeyFromName is a field named id adopted because no field claimed the role
// by annotation. It is demoted if an annotated key shows up later.
type KeyFromName struct {
	Field Field
}

// KeyFromAttribute is a field explicitly annotated primary_key.
type KeyFromAttribute struct {
	Field Field
}

func (NoPrimaryKey) Key() *Field       { return nil }
func (k KeyFromName) Key() *Field      { return &k.Field }
func (k KeyFromAttribute) Key() *Field { return &k.Field }

func (NoPrimaryKey) String() string       { return "none" }
func (k KeyFromName) String() string      { return "name(" + k.Field.Name + ")" }
func (k KeyFromAttribute) String() string { return "attribute(" + k.Field.Name + ")" }

func (NoPrimaryKey) primaryKey()     {}
func (KeyFromName) primaryKey()      {}
func (KeyFromAttribute) primaryKey() {}
