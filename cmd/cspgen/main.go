// Command cspgen lowers a model document into a CSPM script.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/config"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
)

// errDiagnostics is returned in strict mode when generation reported diagnostics.
var errDiagnostics = errors.New("generation reported diagnostics")

type options struct {
	modelPath  string
	configPath string
	outPath    string
	logLevel   string
	noPrelude  bool
	annotate   bool
	strict     bool
	watch      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.modelPath, "model", "", "model document (YAML)")
	flag.StringVar(&opts.configPath, "config", "", "generator configuration (YAML); defaults are used when empty")
	flag.StringVar(&opts.outPath, "out", "", "output file; overrides output.path, '-' writes to stdout")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log_level")
	flag.BoolVar(&opts.noPrelude, "no-prelude", false, "omit the helper prelude")
	flag.BoolVar(&opts.annotate, "annotate", false, "annotate skipped occurrences in the output")
	flag.BoolVar(&opts.strict, "strict", false, "exit with status 2 when any diagnostic is reported")
	flag.BoolVar(&opts.watch, "watch", false, "regenerate whenever the model file changes")
	flag.Parse()

	if opts.modelPath == "" {
		fmt.Fprintln(os.Stderr, "cspgen: -model is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cspgen: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		if err := watch(ctx, opts.modelPath, cfg); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := generateFile(ctx, opts.modelPath, cfg, opts.strict); err != nil {
		logger.Error("generation failed", "model", opts.modelPath, "error", err)
		if errors.Is(err, errDiagnostics) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies the flags on top.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.outPath != "" {
		cfg.Output.Path = opts.outPath
		if opts.outPath == "-" {
			cfg.Output.Path = ""
		}
	}
	if opts.noPrelude {
		cfg.Output.Prelude = false
		cfg.Output.DeclareCore = false
	}
	if opts.annotate {
		cfg.Output.Annotate = true
	}
	return cfg, nil
}
