// Package config loads generator settings from defaults, a YAML file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when present and no config file is named explicitly.
const DefaultFile = "crudx.yaml"

// Report formats of the analyze command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config holds generator configuration.
type Config struct {
	// Tag is the struct tag key holding field annotations.
	Tag string `yaml:"tag" env:"CRUDX_TAG"`
	// Directive is the comment directive prefix, as in //crudx:table.
	Directive string `yaml:"directive" env:"CRUDX_DIRECTIVE"`
	// Suffix names generated files: user.go -> user<Suffix>.
	Suffix string `yaml:"suffix" env:"CRUDX_SUFFIX"`
	// OutDir overrides the directory of generated files.
	OutDir string `yaml:"out_dir" env:"CRUDX_OUT_DIR"`
	// Comments enables doc comments on generated types.
	Comments bool `yaml:"comments" env:"CRUDX_COMMENTS"`
	// Concurrency bounds parallel derivations; 0 means GOMAXPROCS.
	Concurrency int `yaml:"concurrency" env:"CRUDX_CONCURRENCY"`
	// Format is the analyze report format, text or yaml.
	Format string `yaml:"format" env:"CRUDX_FORMAT"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"CRUDX_VERBOSE"`

	// DryRun prints generated files instead of writing them.
	DryRun bool `yaml:"-"`
	// File is a single source file to process instead of packages.
	File string `yaml:"-"`
	// Patterns are the package patterns to process.
	Patterns []string `yaml:"-"`
}

type envConfig struct {
	File string `env:"CRUDX_CONFIG"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Tag:       "crudx",
		Directive: "crudx",
		Suffix:    "_crudx.go",
		Comments:  true,
		Format:    FormatText,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current value; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data, cfg)
}

// Parse overlays YAML data onto cfg.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return nil
}

// ParseConfig builds a Config from defaults, the config file, the
// environment and the flags in args.
//
// The config file is the -config flag, else CRUDX_CONFIG, else DefaultFile
// if it exists in the current directory.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	flags := Default()
	var configPath string

	fs.StringVar(&configPath, "config", "", "path to a YAML config file (default: CRUDX_CONFIG or "+DefaultFile+" if present)")
	fs.StringVar(&flags.Tag, "tag", flags.Tag, "struct tag key holding field annotations")
	fs.StringVar(&flags.Directive, "directive", flags.Directive, "comment directive prefix, as in //crudx:table")
	fs.StringVar(&flags.Suffix, "suffix", flags.Suffix, "generated file name suffix")
	fs.StringVar(&flags.OutDir, "out", flags.OutDir, "write generated files to this directory instead of next to the sources")
	fs.StringVar(&flags.File, "file", flags.File, "process a single Go file instead of packages")
	fs.StringVar(&flags.Format, "format", flags.Format, "analyze report format: text or yaml")
	fs.IntVar(&flags.Concurrency, "concurrency", flags.Concurrency, "parallel derivations (0 = GOMAXPROCS)")
	fs.BoolVar(&flags.Comments, "comments", flags.Comments, "emit doc comments on generated types")
	fs.BoolVar(&flags.DryRun, "dry-run", flags.DryRun, "print generated files instead of writing them")
	fs.BoolVar(&flags.Verbose, "v", flags.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Default()

	path, required := configPath, true
	if path == "" {
		path = envCfg.File
	}
	if path == "" {
		path, required = DefaultFile, false
	}

	if err := LoadFile(path, &cfg); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		applyFlag(&cfg, &flags, f.Name)
	})

	cfg.Patterns = fs.Args()
	if len(cfg.Patterns) == 0 && cfg.File == "" {
		cfg.Patterns = []string{"."}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyFlag copies the value of an explicitly set flag from flags to cfg.
func applyFlag(cfg, flags *Config, name string) {
	switch name {
	case "tag":
		cfg.Tag = flags.Tag
	case "directive":
		cfg.Directive = flags.Directive
	case "suffix":
		cfg.Suffix = flags.Suffix
	case "out":
		cfg.OutDir = flags.OutDir
	case "file":
		cfg.File = flags.File
	case "format":
		cfg.Format = flags.Format
	case "concurrency":
		cfg.Concurrency = flags.Concurrency
	case "comments":
		cfg.Comments = flags.Comments
	case "dry-run":
		cfg.DryRun = flags.DryRun
	case "v":
		cfg.Verbose = flags.Verbose
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error

	if !token.IsIdentifier(c.Tag) {
		errs = append(errs, fmt.Errorf("tag %q is not an identifier", c.Tag))
	}

	if !token.IsIdentifier(c.Directive) {
		errs = append(errs, fmt.Errorf("directive %q is not an identifier", c.Directive))
	}

	if !strings.HasSuffix(c.Suffix, ".go") || strings.ContainsRune(c.Suffix, filepath.Separator) {
		errs = append(errs, fmt.Errorf("suffix %q must be a file name suffix ending in .go", c.Suffix))
	}

	if strings.HasSuffix(c.Suffix, "_test.go") {
		errs = append(errs, fmt.Errorf("suffix %q would generate test files", c.Suffix))
	}

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}

	if c.Format != FormatText && c.Format != FormatYAML {
		errs = append(errs, fmt.Errorf("format %q must be %s or %s", c.Format, FormatText, FormatYAML))
	}

	return errors.Join(errs...)
}

// Exitf prints a formatted message to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
