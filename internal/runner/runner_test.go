package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"crudx-generator/internal/analyze"
	"crudx-generator/internal/config"
	"crudx-generator/internal/diagnostic"
	"crudx-generator/internal/schema"
)

const (
	basicPkg = "crudx-generator/examples/basic"
	keysPkg  = "crudx-generator/examples/keys"
)

func testConfig(t *testing.T, patterns ...string) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Patterns = patterns
	cfg.OutDir = t.TempDir()

	return cfg
}

func writeSource(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	return path
}

func run(t *testing.T, cfg config.Config, mode Mode) (*Result, string, error) {
	t.Helper()

	var stdout bytes.Buffer
	res, err := New(cfg, zaptest.NewLogger(t), &stdout).Run(context.Background(), mode)
	require.NotNil(t, res)

	return res, stdout.String(), err
}

func TestRunner_Analyze_YAML(t *testing.T) {
	cfg := testConfig(t, basicPkg, keysPkg)
	cfg.Format = config.FormatYAML

	res, out, err := run(t, cfg, ModeAnalyze)
	require.NoError(t, err)
	assert.Empty(t, res.Files, "analyze renders nothing")

	var got []TableReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))

	byTable := make(map[string]TableReport, len(got))
	for _, rep := range got {
		assert.NotEmpty(t, rep.Pos)
		rep.Pos = ""
		byTable[rep.Table] = rep
	}

	want := map[string]TableReport{
		"basic.User": {
			Table:      "basic.User",
			PrimaryKey: PrimaryKeyReport{Field: "ID", Provenance: "name"},
			ReadWrite:  []string{"Email", "Nickname"},
			ReadOnly:   []string{"CreatedAt", "UpdatedAt"},
			Projection: "NewUser",
		},
		"keys.Account": {
			Table:      "keys.Account",
			PrimaryKey: PrimaryKeyReport{Field: "Code", Provenance: "attribute"},
			ReadWrite:  []string{"Name", "ID", "Tags", "Labels"},
			ReadOnly:   []string{"Updated"},
			Projection: "NewAccount",
		},
		"keys.session": {
			Table:      "keys.session",
			PrimaryKey: PrimaryKeyReport{Provenance: "none"},
			ReadWrite:  []string{"id", "token"},
			ReadOnly:   []string{},
			Projection: "newSession",
		},
		"keys.Page": {
			Table:      "keys.Page",
			PrimaryKey: PrimaryKeyReport{Provenance: "none"},
			ReadWrite:  []string{"Items"},
			ReadOnly:   []string{"Total"},
			Projection: "NewPage",
		},
	}

	if diff := cmp.Diff(want, byTable, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_Analyze_Text(t *testing.T) {
	res, out, err := run(t, testConfig(t, basicPkg), ModeAnalyze)
	require.NoError(t, err)
	require.Len(t, res.Derivations, 1)

	assert.Contains(t, out, "basic.User")
	assert.Contains(t, out, "ID (name)")
	assert.Contains(t, out, "Email, Nickname")
	assert.Contains(t, out, "CreatedAt, UpdatedAt")
	assert.Contains(t, out, "NewUser")
}

func TestRunner_GenerateThenCheck(t *testing.T) {
	cfg := testConfig(t, basicPkg, keysPkg)

	res, _, err := run(t, cfg, ModeGenerate)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	user, err := os.ReadFile(filepath.Join(cfg.OutDir, "user_crudx.go"))
	require.NoError(t, err)
	assert.Contains(t, string(user), "DO NOT EDIT.")
	assert.Contains(t, string(user), "package basic")
	assert.Contains(t, string(user), "type NewUser struct")
	assert.Contains(t, string(user), `"database/sql"`)
	assert.NotContains(t, string(user), `"strings"`, "unused imports are pruned")
	assert.NotContains(t, string(user), "CreatedAt")

	keys, err := os.ReadFile(filepath.Join(cfg.OutDir, "keys_crudx.go"))
	require.NoError(t, err)
	assert.Contains(t, string(keys), "type NewAccount struct")
	assert.Contains(t, string(keys), "type newSession struct")
	assert.Contains(t, string(keys), "type NewPage[T any] struct")
	assert.NotContains(t, string(keys), `"time"`)

	res, _, err = run(t, cfg, ModeCheck)
	require.NoError(t, err)
	assert.Empty(t, res.Stale)
}

func TestRunner_Check_Stale(t *testing.T) {
	cfg := testConfig(t, basicPkg, keysPkg)

	_, _, err := run(t, cfg, ModeGenerate)
	require.NoError(t, err)

	edited := filepath.Join(cfg.OutDir, "user_crudx.go")
	require.NoError(t, os.WriteFile(edited, []byte("package basic\n"), 0o644))
	missing := filepath.Join(cfg.OutDir, "keys_crudx.go")
	require.NoError(t, os.Remove(missing))

	res, _, err := run(t, cfg, ModeCheck)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStale)
	assert.ElementsMatch(t, []string{edited, missing}, res.Stale)
}

func TestRunner_Generate_DryRun(t *testing.T) {
	cfg := testConfig(t, basicPkg)
	cfg.DryRun = true

	_, out, err := run(t, cfg, ModeGenerate)
	require.NoError(t, err)
	assert.Contains(t, out, "=== "+filepath.Join(cfg.OutDir, "user_crudx.go")+" ===")
	assert.Contains(t, out, "type NewUser struct")

	entries, err := os.ReadDir(cfg.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run writes nothing")
}

func TestRunner_Generate_DeterministicAcrossConcurrency(t *testing.T) {
	outputs := make([]string, 0, 3)

	for _, n := range []int{1, 2, 8} {
		cfg := testConfig(t, basicPkg, keysPkg)
		cfg.OutDir = "gen"
		cfg.DryRun = true
		cfg.Concurrency = n

		_, out, err := run(t, cfg, ModeGenerate)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestRunner_SingleFile(t *testing.T) {
	path := writeSource(t, `package model

//crudx:table
type Invoice struct {
	ID     int64
	Number string
	Total  int64 `+"`crudx:\"read_only\"`"+`
}
`)

	cfg := testConfig(t)
	cfg.File = path

	res, _, err := run(t, cfg, ModeGenerate)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "model_crudx.go", res.Files[0].Filename)
	assert.Contains(t, string(res.Files[0].Content), "type NewInvoice struct")
	assert.Contains(t, string(res.Files[0].Content), "Number string")
	assert.NotContains(t, string(res.Files[0].Content), "Total")
}

func TestRunner_AmbiguousPrimaryKey(t *testing.T) {
	path := writeSource(t, `package model

//crudx:table
type Product struct {
	Code string `+"`crudx:\"primary_key\"`"+`
	Slug string `+"`crudx:\"primary_key\"`"+`
}

//crudx:table
type Tag struct {
	ID   int64
	Name string
}
`)

	cfg := testConfig(t)
	cfg.File = path

	res, _, err := run(t, cfg, ModeGenerate)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrAmbiguousPrimaryKey)
	assert.Empty(t, res.Files, "nothing is rendered")

	require.Len(t, res.Diagnostics.Errors, 1)
	d := res.Diagnostics.Errors[0]
	assert.Equal(t, diagnostic.CodeAmbiguousPrimaryKey, d.Code)
	assert.Equal(t, "model.Product", d.Table)
	assert.Equal(t, "Slug", d.Field)
	assert.Contains(t, d.Message, "Code already is")

	entries, err := os.ReadDir(cfg.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunner_IgnoredAnnotationWarning(t *testing.T) {
	path := writeSource(t, `package model

//crudx:table
type Note struct {
	ID   int64
	Body string `+"`crudx:\"read_only=true\"`"+`
}
`)

	cfg := testConfig(t)
	cfg.File = path

	res, _, err := run(t, cfg, ModeAnalyze)
	require.NoError(t, err)

	require.Len(t, res.Diagnostics.Warnings, 1)
	w := res.Diagnostics.Warnings[0]
	assert.Equal(t, diagnostic.CodeIgnoredAnnotation, w.Code)
	assert.Equal(t, "Body", w.Field)
	assert.Contains(t, w.Message, "read_only")

	require.Len(t, res.Derivations, 1)
	assert.Equal(t, []string{"Body"}, names(res.Derivations[0].Classified.ReadWrite))
}

func TestRunner_MalformedDeclaration(t *testing.T) {
	path := writeSource(t, "package model\n\n//crudx:table\ntype Status string\n")

	cfg := testConfig(t)
	cfg.File = path

	res, _, err := run(t, cfg, ModeGenerate)
	require.Error(t, err)
	assert.ErrorIs(t, err, analyze.ErrMalformedDeclaration)

	require.Len(t, res.Diagnostics.Errors, 1)
	d := res.Diagnostics.Errors[0]
	assert.Equal(t, diagnostic.CodeMalformedDeclaration, d.Code)
	assert.Equal(t, "table directive on a non-struct type", d.Message)
	assert.Equal(t, "Status", d.Table)
}

func TestRunner_CancelledContext(t *testing.T) {
	path := writeSource(t, "package model\n\n//crudx:table\ntype Item struct{ Name string }\n")

	cfg := testConfig(t)
	cfg.File = path

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, nil, &bytes.Buffer{}).Run(ctx, ModeGenerate)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunner_UnknownMode(t *testing.T) {
	_, _, err := run(t, testConfig(t, basicPkg), Mode("publish"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "publish"`)
}

func TestRun_LogsWarnings(t *testing.T) {
	path := writeSource(t, "package model\n\n//crudx:table\ntype Note struct {\n\tBody string `crudx:\"read_only(x)\"`\n}\n")

	cfg := testConfig(t)
	cfg.File = path

	core, logs := observer.New(zapcore.InfoLevel)

	var stdout bytes.Buffer
	require.NoError(t, Run(context.Background(), ModeAnalyze, cfg, zap.New(core), &stdout))
	assert.Contains(t, stdout.String(), "model.Note")

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "[CRUDX101]")
	assert.Equal(t, diagnostic.CodeIgnoredAnnotation, warnings[0].ContextMap()["code"])
}

func TestRun_LogsErrorDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		want string
	}{
		{
			name: "ambiguous primary key",
			src:  "package model\n\n//crudx:table\ntype T struct {\n\tA string `crudx:\"primary_key\"`\n\tB string `crudx:\"primary_key\"`\n}\n",
			code: diagnostic.CodeAmbiguousPrimaryKey,
			want: "[model.T] B:",
		},
		{
			name: "malformed declaration",
			src:  "package model\n\n//crudx:table\ntype T int\n",
			code: diagnostic.CodeMalformedDeclaration,
			want: "[T]:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.File = writeSource(t, tt.src)

			core, logs := observer.New(zapcore.InfoLevel)

			err := Run(context.Background(), ModeGenerate, cfg, zap.New(core), &bytes.Buffer{})
			require.Error(t, err)

			errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Message, "["+tt.code+"]")
			assert.Contains(t, errs[0].Message, tt.want)
			assert.Equal(t, tt.code, errs[0].ContextMap()["code"])
		})
	}
}

func TestRunner_UnknownAnnotationSuggestion(t *testing.T) {
	path := writeSource(t, `package model

//crudx:table
type Note struct {
	ID   int64
	Body string `+"`crudx:\"readonly\"`"+`
	//crudx:index
	Title string
}
`)

	cfg := testConfig(t)
	cfg.File = path

	res, _, err := run(t, cfg, ModeAnalyze)
	require.NoError(t, err)

	require.Len(t, res.Diagnostics.Warnings, 2)
	body, title := res.Diagnostics.Warnings[0], res.Diagnostics.Warnings[1]

	assert.Equal(t, diagnostic.CodeUnknownAnnotation, body.Code)
	assert.Equal(t, "Body", body.Field)
	assert.Equal(t, `unknown annotation "readonly"; did you mean "read_only"?`, body.Message)

	assert.Equal(t, "Title", title.Field)
	assert.Equal(t, `unknown annotation "index"`, title.Message)

	assert.Equal(t, []string{"Body", "Title"}, names(res.Derivations[0].Classified.ReadWrite))
}

func TestUnknownMessage(t *testing.T) {
	tests := []struct {
		annotation schema.Annotation
		want       string
	}{
		{
			annotation: schema.Annotation{Name: "index"},
			want:       `unknown annotation "index"`,
		},
		{
			annotation: schema.Annotation{Name: "foo", Args: "=bar"},
			want:       `unknown annotation "foo" with arguments "=bar"`,
		},
		{
			annotation: schema.Annotation{Name: "read", Args: "-only"},
			want:       `unknown annotation "read" with arguments "-only"; did you mean "read_only"?`,
		},
		{
			annotation: schema.Annotation{Name: "readonly", Source: schema.SourceDirective},
			want:       `unknown annotation "readonly"; did you mean "read_only"?`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, unknownMessage(tt.annotation))
		})
	}
}

func TestRunner_Render_OutputConflict(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, nil, &bytes.Buffer{})

	pkgs := []*analyze.Package{
		{Name: "billing", Files: []*analyze.File{{Path: filepath.Join("billing", "model.go")}}},
		{Name: "shipping", Files: []*analyze.File{{Path: filepath.Join("shipping", "model.go")}}},
	}

	_, err := r.render(pkgs, nil)
	require.ErrorIs(t, err, ErrOutputConflict)
	assert.Contains(t, err.Error(), filepath.Join(cfg.OutDir, "model_crudx.go"))

	cfg.OutDir = ""
	files, err := New(cfg, nil, &bytes.Buffer{}).render(pkgs, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
