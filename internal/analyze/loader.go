package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"crudx-generator/internal/schema"
)

// LoadMode specifies what information to load from packages.
// Type information is not needed: tables are recognized syntactically.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax

// tableDirective is the directive name marking a struct as a table.
const tableDirective = "table"

// Analyzer loads Go sources and extracts table declarations.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer creates a new Analyzer. A nil logger discards output.
func NewAnalyzer(opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{opts: opts, logger: logger}
}

// LoadPackages loads the packages matching patterns and extracts their tables.
// Packages without tables are returned with no files.
func (a *Analyzer) LoadPackages(ctx context.Context, patterns ...string) ([]*Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     a.opts.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for package errors
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, &DeclarationError{Pos: e.Pos, Reason: e.Msg})
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	out := make([]*Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		p := &Package{
			Path: pkg.PkgPath,
			Name: pkg.Name,
			Dir:  packageDir(pkg),
		}

		for _, f := range pkg.Syntax {
			file, err := a.inspectFile(pkg.Fset, pkg.PkgPath, f)
			if err != nil {
				return nil, fmt.Errorf("failed to process package %s: %w", pkg.PkgPath, err)
			}
			if file != nil {
				p.Files = append(p.Files, file)
			}
		}

		a.logger.Debug("loaded package",
			zap.String("package", p.Path),
			zap.Int("files", len(p.Files)),
			zap.Int("tables", len(p.Tables())))

		out = append(out, p)
	}

	return out, nil
}

// ParseSource parses a single Go file and extracts its tables.
// If src is nil the file is read from disk.
func (a *Analyzer) ParseSource(filename string, src any) (*Package, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", filename, err)
	}

	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, abs, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, &DeclarationError{Pos: abs, Reason: "cannot parse source", Err: err}
	}

	p := &Package{
		Name: f.Name.Name,
		Dir:  filepath.Dir(abs),
	}

	file, err := a.inspectFile(fset, "", f)
	if err != nil {
		return nil, err
	}
	if file != nil {
		p.Files = append(p.Files, file)
	}

	return p, nil
}

// inspectFile returns the tables declared in f, or nil if there are none.
// Generated files are skipped.
func (a *Analyzer) inspectFile(fset *token.FileSet, pkgPath string, f *ast.File) (*File, error) {
	if ast.IsGenerated(f) {
		return nil, nil
	}

	out := &File{Path: fset.File(f.Pos()).Name()}

	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}

		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}

			doc := ts.Doc
			if !gd.Lparen.IsValid() {
				doc = gd.Doc
			}
			if !a.isTable(doc) {
				continue
			}

			t, err := a.table(fset, ts)
			if err != nil {
				return nil, err
			}

			t.PkgPath = pkgPath
			t.PkgName = f.Name.Name
			t.File = out.Path
			out.Tables = append(out.Tables, t)

			a.logger.Debug("found table",
				zap.String("table", t.QualifiedName()),
				zap.String("pos", t.Pos),
				zap.Int("fields", len(t.Fields)))
		}
	}

	if len(out.Tables) == 0 {
		return nil, nil
	}

	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, &DeclarationError{Pos: fset.Position(spec.Pos()).String(), Reason: "bad import path", Err: err}
		}

		var name string
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" {
			continue
		}

		out.Imports = append(out.Imports, Import{Name: name, Path: path})
	}

	return out, nil
}

// isTable reports whether doc carries a bare table directive.
func (a *Analyzer) isTable(doc *ast.CommentGroup) bool {
	for _, line := range commentLines(doc) {
		d, ok := schema.ParseDirective(line, a.opts.Directive)
		if ok && d.Name == tableDirective && d.IsMarker() {
			return true
		}
	}

	return false
}

// table builds a schema.Table from a marked type spec.
func (a *Analyzer) table(fset *token.FileSet, ts *ast.TypeSpec) (*schema.Table, error) {
	pos := fset.Position(ts.Pos()).String()
	name := ts.Name.Name

	if ts.Assign.IsValid() {
		return nil, &DeclarationError{Pos: pos, Name: name, Reason: "table directive on a type alias"}
	}

	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, &DeclarationError{Pos: pos, Name: name, Reason: "table directive on a non-struct type"}
	}

	t := &schema.Table{
		Name:       name,
		Visibility: schema.VisibilityOf(name),
		Pos:        pos,
	}

	if ts.TypeParams != nil {
		params, err := fieldListText(fset, ts.TypeParams)
		if err != nil {
			return nil, &DeclarationError{Pos: pos, Name: name, Reason: "cannot print type parameters", Err: err}
		}
		t.TypeParams = "[" + params + "]"
	}

	for _, fld := range st.Fields.List {
		fields, err := a.fields(fset, fld)
		if err != nil {
			return nil, &DeclarationError{Pos: fset.Position(fld.Pos()).String(), Name: name, Reason: "bad field", Err: err}
		}

		t.Fields = append(t.Fields, fields...)
	}

	return t, nil
}

// fields expands one field list entry into a schema.Field per name.
// An embedded field yields a single unnamed Field.
func (a *Analyzer) fields(fset *token.FileSet, fld *ast.Field) ([]schema.Field, error) {
	typ, err := exprText(fset, fld.Type)
	if err != nil {
		return nil, err
	}

	var tag string
	if fld.Tag != nil {
		tag, err = strconv.Unquote(fld.Tag.Value)
		if err != nil {
			return nil, fmt.Errorf("unquoting tag %s: %w", fld.Tag.Value, err)
		}
	}

	doc := commentLines(fld.Doc)
	trailing := commentLines(fld.Comment)
	annotations := schema.Annotations(tag, a.opts.Tag, slices.Concat(doc, trailing), a.opts.Directive)

	base := schema.Field{
		Type:        typ,
		Tag:         tag,
		Doc:         doc,
		Comment:     strings.Join(trailing, " "),
		Annotations: annotations,
	}

	if len(fld.Names) == 0 {
		base.Pos = fset.Position(fld.Type.Pos()).String()
		return []schema.Field{base}, nil
	}

	out := make([]schema.Field, 0, len(fld.Names))
	for _, n := range fld.Names {
		f := base
		f.Name = n.Name
		f.Pos = fset.Position(n.Pos()).String()
		out = append(out, f)
	}

	return out, nil
}

func exprText(fset *token.FileSet, expr ast.Expr) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, expr); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// fieldListText prints a type parameter list without its brackets.
func fieldListText(fset *token.FileSet, fl *ast.FieldList) (string, error) {
	parts := make([]string, 0, len(fl.List))

	for _, f := range fl.List {
		typ, err := exprText(fset, f.Type)
		if err != nil {
			return "", err
		}

		names := make([]string, 0, len(f.Names))
		for _, n := range f.Names {
			names = append(names, n.Name)
		}

		parts = append(parts, strings.Join(names, ", ")+" "+typ)
	}

	return strings.Join(parts, ", "), nil
}

func commentLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}

	out := make([]string, 0, len(cg.List))
	for _, c := range cg.List {
		out = append(out, c.Text)
	}

	return out
}

// packageDir returns the directory holding the package's files.
func packageDir(pkg *packages.Package) string {
	for _, files := range [][]string{pkg.CompiledGoFiles, pkg.GoFiles} {
		if len(files) > 0 {
			return filepath.Dir(files[0])
		}
	}

	return ""
}
