// Package main provides the CLI entrypoint for crudx-generator.
//
// crudx-generator derives a creation projection for every struct marked
// with a //crudx:table directive: a sibling struct holding only the fields
// a caller supplies when creating a row. Primary keys and read-only fields
// are left out.
//
// Usage:
//
//	crudx-generator gen [flags] [packages]
//	crudx-generator check [flags] [packages]
//	crudx-generator analyze [flags] [packages]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crudx-generator/internal/config"
	"crudx-generator/internal/runner"
)

const usage = `crudx-generator derives creation projections from //crudx:table structs.

Commands:
  gen      write <file>_crudx.go next to every source file declaring tables
  check    fail if generated files are missing or out of date
  analyze  print the primary key and field classification of every table

Run 'crudx-generator <command> -h' for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	mode := runner.Mode(os.Args[1])
	switch mode {
	case runner.ModeGenerate, runner.ModeCheck, runner.ModeAnalyze:
	case "help", "-h", "-help", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet("crudx-generator "+string(mode), flag.ExitOnError)
	cfg, err := config.ParseConfig(fs, os.Args[2:])
	if err != nil {
		config.Exitf("parse config: %v", err)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		config.Exitf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, mode, cfg, logger, os.Stdout); err != nil {
		if errors.Is(err, runner.ErrStale) {
			config.Exitf("%v\nrun 'crudx-generator gen' to update them", err)
		}
		config.Exitf("%s: %v", mode, err)
	}
}

// newLogger builds a console logger on stderr. Verbose enables debug
// output with caller information.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.DisableCaller = true
		cfg.EncoderConfig.TimeKey = ""
	}

	return cfg.Build()
}
