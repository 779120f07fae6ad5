package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crudx-generator/internal/analyze"
	"crudx-generator/internal/config"
	"crudx-generator/internal/diagnostic"
	"crudx-generator/internal/gen"
	"crudx-generator/internal/match"
	"crudx-generator/internal/schema"
)

// Mode selects what a run does with the derived projections.
type Mode string

const (
	ModeGenerate Mode = "gen"     // write generated files
	ModeCheck    Mode = "check"   // fail if generated files are out of date
	ModeAnalyze  Mode = "analyze" // print the classification of every table
)

// ErrOutputConflict is returned when two source files map to the same
// generated file, as happens with an output directory shared by packages
// holding files of the same name.
var ErrOutputConflict = errors.New("conflicting generated files")

// ErrStale is returned by ModeCheck when generated files differ from disk.
var ErrStale = errors.New("generated files are out of date")

// Derivation is the result of deriving one table.
type Derivation struct {
	Table      *schema.Table
	Classified *schema.Classified
	Projection gen.Projection
}

// Result holds everything a run produced.
type Result struct {
	Packages    []*analyze.Package
	Derivations []Derivation // in source order
	Files       []gen.GeneratedFile
	Stale       []string // paths of out-of-date files, ModeCheck only
	Diagnostics diagnostic.Diagnostics
}

// Runner executes generator runs for a configuration.
type Runner struct {
	cfg       config.Config
	logger    *zap.Logger
	stdout    io.Writer
	analyzer  *analyze.Analyzer
	generator *gen.Generator
}

// New creates a Runner. Reports and dry-run output go to stdout; a nil
// logger discards log output.
func New(cfg config.Config, logger *zap.Logger, stdout io.Writer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := analyze.DefaultOptions()
	opts.Tag = cfg.Tag
	opts.Directive = cfg.Directive

	genCfg := gen.DefaultGeneratorConfig()
	genCfg.Suffix = cfg.Suffix
	genCfg.OutputDir = cfg.OutDir
	genCfg.GenerateComments = cfg.Comments

	return &Runner{
		cfg:       cfg,
		logger:    logger,
		stdout:    stdout,
		analyzer:  analyze.NewAnalyzer(opts, logger.Named("analyze")),
		generator: gen.NewGenerator(genCfg, logger.Named("gen")),
	}
}

// Run loads the configured sources, derives a projection for every table
// and then generates, checks or reports depending on mode.
func Run(ctx context.Context, mode Mode, cfg config.Config, logger *zap.Logger, stdout io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := New(cfg, logger, stdout).Run(ctx, mode)
	if res != nil {
		logDiagnostics(logger, res.Diagnostics)
	}

	return err
}

// logDiagnostics logs every diagnostic at its severity, errors first.
func logDiagnostics(logger *zap.Logger, diags diagnostic.Diagnostics) {
	for _, d := range diags.All() {
		fields := []zap.Field{zap.String("code", d.Code)}

		switch d.Severity {
		case diagnostic.DiagnosticError:
			logger.Error(d.String(), fields...)
		default:
			logger.Warn(d.String(), fields...)
		}
	}
}

// Run executes one run. The returned Result is non-nil even on error and
// carries the diagnostics collected so far.
func (r *Runner) Run(ctx context.Context, mode Mode) (*Result, error) {
	res := &Result{}

	pkgs, err := r.load(ctx)
	if err != nil {
		var declErr *analyze.DeclarationError
		if errors.As(err, &declErr) {
			res.Diagnostics.AddError(diagnostic.CodeMalformedDeclaration, declErr.Reason, declErr.Name, "", declErr.Pos)
		}

		return res, err
	}
	res.Packages = pkgs

	var tables []*schema.Table
	for _, p := range pkgs {
		tables = append(tables, p.Tables()...)
	}

	r.logger.Info("loaded sources", zap.Int("packages", len(pkgs)), zap.Int("tables", len(tables)))

	derivations, diags, err := r.derive(ctx, tables)
	res.Diagnostics.Merge(diags)
	if err != nil {
		return res, err
	}
	res.Derivations = derivations

	if mode == ModeAnalyze {
		return res, r.report(res.Derivations)
	}

	files, err := r.render(pkgs, derivations)
	if err != nil {
		return res, err
	}
	res.Files = files

	switch mode {
	case ModeGenerate:
		return res, r.write(files)

	case ModeCheck:
		stale, err := gen.CheckFiles(files)
		if err != nil {
			return res, err
		}
		res.Stale = stale

		for _, path := range stale {
			r.logger.Warn("stale generated file", zap.String("file", path))
		}

		if len(stale) > 0 {
			return res, fmt.Errorf("%w: %s", ErrStale, strings.Join(stale, ", "))
		}

		r.logger.Info("generated files are up to date", zap.Int("files", len(files)))

		return res, nil

	default:
		return res, fmt.Errorf("unknown mode %q", mode)
	}
}

func (r *Runner) load(ctx context.Context) ([]*analyze.Package, error) {
	if r.cfg.File != "" {
		pkg, err := r.analyzer.ParseSource(r.cfg.File, nil)
		if err != nil {
			return nil, err
		}

		return []*analyze.Package{pkg}, nil
	}

	return r.analyzer.LoadPackages(ctx, r.cfg.Patterns...)
}

// derive classifies and synthesizes every table in parallel. Results and
// diagnostics come back in the order of tables; classification errors of
// all tables are joined in that order.
func (r *Runner) derive(ctx context.Context, tables []*schema.Table) ([]Derivation, diagnostic.Diagnostics, error) {
	out := make([]Derivation, len(tables))
	diags := make([]diagnostic.Diagnostics, len(tables))
	errs := make([]error, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, t := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out[i], errs[i] = deriveTable(t, &diags[i])
			if errs[i] == nil {
				r.logger.Debug("derived projection",
					zap.String("table", t.QualifiedName()),
					zap.Stringer("primary_key", out[i].Classified.PrimaryKey),
					zap.Int("read_write", len(out[i].Classified.ReadWrite)),
					zap.Int("read_only", len(out[i].Classified.ReadOnly)),
					zap.String("projection", out[i].Projection.Name))
			}

			return nil
		})
	}

	var merged diagnostic.Diagnostics

	if err := g.Wait(); err != nil {
		return nil, merged, err
	}

	for _, d := range diags {
		merged.Merge(d)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, merged, err
	}

	return out, merged, nil
}

// deriveTable classifies t and synthesizes its projection.
func deriveTable(t *schema.Table, diags *diagnostic.Diagnostics) (Derivation, error) {
	for _, f := range t.Fields {
		for _, a := range f.IgnoredMarkers() {
			diags.AddWarning(diagnostic.CodeIgnoredAnnotation,
				fmt.Sprintf("annotation %s has arguments %q and is not a marker; ignored", a.Name, a.Args),
				t.QualifiedName(), f.Name, f.Pos)
		}

		for _, a := range f.UnknownAnnotations() {
			diags.AddWarning(diagnostic.CodeUnknownAnnotation, unknownMessage(a), t.QualifiedName(), f.Name, f.Pos)
		}
	}

	c, err := schema.Classify(t)
	if err != nil {
		var ambiguous *schema.AmbiguousPrimaryKeyError
		if errors.As(err, &ambiguous) {
			diags.AddError(diagnostic.CodeAmbiguousPrimaryKey,
				fmt.Sprintf("field %s is annotated %s but %s already is",
					ambiguous.Second.Name, schema.AnnotationPrimaryKey, ambiguous.First.Name),
				t.QualifiedName(), ambiguous.Second.Name, ambiguous.Second.Pos)
		}

		return Derivation{}, fmt.Errorf("classifying %s: %w", t.QualifiedName(), err)
	}

	return Derivation{
		Table:      t,
		Classified: c,
		Projection: gen.SynthesizeTable(t, c),
	}, nil
}

func unknownMessage(a schema.Annotation) string {
	msg := fmt.Sprintf("unknown annotation %q", a.Name)
	if a.Args != "" {
		msg += fmt.Sprintf(" with arguments %q", a.Args)
	}

	// Name and arguments are matched joined, so "read-only" splits as
	// "read" + "-only" and still suggests read_only.
	if s, ok := match.Suggest(a.Name+a.Args, schema.KnownAnnotations); ok {
		msg += fmt.Sprintf("; did you mean %q?", s)
	}

	return msg
}

// render generates one file per source file, in load order. Derivations
// are in the same order as the tables of pkgs.
func (r *Runner) render(pkgs []*analyze.Package, derivations []Derivation) ([]gen.GeneratedFile, error) {
	var files []gen.GeneratedFile

	sources := make(map[string]string) // output path -> source file
	next := 0
	for _, p := range pkgs {
		for _, f := range p.Files {
			projections := make([]gen.Projection, 0, len(f.Tables))
			for range f.Tables {
				projections = append(projections, derivations[next].Projection)
				next++
			}

			file, err := r.generator.Generate(p.Name, f, projections)
			if err != nil {
				return nil, fmt.Errorf("generating %s: %w", f.Path, err)
			}

			if prev, ok := sources[file.Path()]; ok {
				return nil, fmt.Errorf("%w: %s and %s both generate %s", ErrOutputConflict, prev, f.Path, file.Path())
			}
			sources[file.Path()] = f.Path

			files = append(files, *file)
		}
	}

	return files, nil
}

func (r *Runner) write(files []gen.GeneratedFile) error {
	if r.cfg.DryRun {
		for _, f := range files {
			fmt.Fprintf(r.stdout, "=== %s ===\n%s\n", f.Path(), f.Content)
		}

		return nil
	}

	if err := gen.WriteFiles(files, ""); err != nil {
		return err
	}

	for _, f := range files {
		r.logger.Info("wrote file", zap.String("file", f.Path()))
	}

	return nil
}

func (r *Runner) concurrency() int {
	if r.cfg.Concurrency > 0 {
		return r.cfg.Concurrency
	}

	return runtime.GOMAXPROCS(0)
}
