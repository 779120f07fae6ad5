// Package schema models table declarations and classifies their fields.
//
// A table is a struct marked with a //crudx:table directive. Each field may
// carry marker annotations, either as options of the crudx struct tag or as
// //crudx:<name> comment directives:
//
//	//crudx:table
//	type User struct {
//	    ID        int64
//	    Email     string    `crudx:"not_defaulted"`
//	    CreatedAt time.Time `crudx:"read_only"`
//	}
//
// Classify walks the fields once, in declaration order, and partitions them
// into an optional primary key, read-write fields and read-only fields. The
// read-write fields are what a creation projection (NewUser) is built from.
//
// Recognized markers:
//   - primary_key: the field is the table's primary key
//   - read_only: the field is server-managed and excluded from creation
//   - not_defaulted: a field named id is not adopted as the primary key
//
// Only bare markers count. An annotation carrying arguments, such as
// primary_key=code, is kept on the field but never matches.
package schema
