package gen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"crudx-generator/internal/analyze"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// Suffix replaces ".go" in a source file name to name its output,
	// e.g. user.go -> user_crudx.go.
	Suffix string
	// OutputDir is the directory where generated files are written.
	// Empty means next to the source file.
	OutputDir string
	// GenerateComments enables doc comments on generated types.
	GenerateComments bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Suffix:           "_crudx.go",
		GenerateComments: true,
	}
}

// Generator renders projections into Go source files.
type Generator struct {
	config GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a new Generator with the given configuration.
// A nil logger discards output.
func NewGenerator(config GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{config: config, logger: logger}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Dir is the directory the file belongs in.
	Dir string
	// Filename is the name of the file (e.g., "user_crudx.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
	// Source is the file the tables were declared in.
	Source string
}

// Path returns the full path of the file.
func (f GeneratedFile) Path() string {
	return filepath.Join(f.Dir, f.Filename)
}

// OutputFor returns the directory and name of the file generated for source.
func (g *Generator) OutputFor(source string) (dir, filename string) {
	dir = g.config.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}

	return dir, strings.TrimSuffix(filepath.Base(source), ".go") + g.config.Suffix
}

// Generate renders the projections of the tables declared in file.
// Imports of the source file are carried over and pruned if unused.
func (g *Generator) Generate(pkgName string, file *analyze.File, projections []Projection) (*GeneratedFile, error) {
	dir, filename := g.OutputFor(file.Path)

	data := &templateData{
		PackageName:      pkgName,
		Source:           filepath.Base(file.Path),
		Imports:          file.Imports,
		GenerateComments: g.config.GenerateComments,
	}

	for _, p := range projections {
		data.Projections = append(data.Projections, newProjectionData(p))
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	out := &GeneratedFile{Dir: dir, Filename: filename, Source: file.Path}

	formatted, err := imports.Process(out.Path(), buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, filename, buf.Bytes())
		}

		out.Content = buf.Bytes()

		return out, fmt.Errorf("formatting code: %w", err)
	}

	out.Content = formatted

	g.logger.Debug("generated file",
		zap.String("file", out.Path()),
		zap.Int("projections", len(projections)))

	return out, nil
}

// templateData holds all data needed for the file template.
type templateData struct {
	PackageName      string
	Source           string
	Imports          []analyze.Import
	Projections      []projectionData
	GenerateComments bool
}

type projectionData struct {
	Name       string
	Table      string
	TypeParams string
	Fields     []fieldData
}

type fieldData struct {
	Doc     []string
	Name    string
	Type    string
	Tag     string // Go literal, including quotes
	Comment string
}

func newProjectionData(p Projection) projectionData {
	out := projectionData{
		Name:       p.Name,
		Table:      p.Table,
		TypeParams: p.TypeParams,
	}

	for _, f := range p.Fields {
		out.Fields = append(out.Fields, fieldData{
			Doc:     f.Doc,
			Name:    f.Name,
			Type:    f.Type,
			Tag:     tagLiteral(f.Tag),
			Comment: f.Comment,
		})
	}

	return out
}

// tagLiteral quotes a struct tag, preferring a raw string.
func tagLiteral(tag string) string {
	if tag == "" {
		return ""
	}

	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}

	return "`" + tag + "`"
}

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by crudx-generator from {{.Source}}. DO NOT EDIT.

package {{.PackageName}}
{{- if .Imports}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{- end}}
{{range .Projections}}
{{if $.GenerateComments -}}
// {{.Name}} holds the fields needed to create {{.Table}} records.
{{end -}}
type {{.Name}}{{.TypeParams}} struct {
{{- range .Fields}}
{{- range .Doc}}
	{{.}}
{{- end}}
	{{.Name}} {{.Type}}{{if .Tag}} {{.Tag}}{{end}}{{if .Comment}} {{.Comment}}{{end}}
{{- end}}
}
{{end}}`))
