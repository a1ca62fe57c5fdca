package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GoSim-25-26J-441/seqcsp/internal/engine"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/config"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// generateFile lowers the model at modelPath and writes the script to
// cfg.Output.Path, or to stdout when it is empty. Diagnostics are logged; in
// strict mode they also fail the call after the script has been written.
func generateFile(ctx context.Context, modelPath string, cfg *config.Config, strict bool) error {
	res, err := generate(ctx, modelPath, cfg)
	if err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		logger.Warn("diagnostic",
			"group", d.Group,
			"interaction", d.Interaction,
			"property", d.Property,
			"recoverable", d.Recoverable,
			"error", d.Err)
	}

	if err := writeOutput(cfg.Output.Path, res.Output); err != nil {
		return err
	}
	logger.Info("script written",
		"model", modelPath,
		"out", outputName(cfg.Output.Path),
		"interactions_lowered", res.Metrics.InteractionsLowered,
		"diagnostics", len(res.Diagnostics))

	if strict && len(res.Diagnostics) > 0 {
		return fmt.Errorf("%w: %v", errDiagnostics, res.Err())
	}
	return nil
}

func generate(ctx context.Context, modelPath string, cfg *config.Config) (*engine.Result, error) {
	doc, err := config.LoadDocument(modelPath, cfg.FormatConstraint)
	if err != nil {
		return nil, err
	}
	spec, err := config.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build model %s: %w", modelPath, err)
	}

	gen := engine.NewGenerator(engine.Options{
		Workers:      cfg.Workers,
		Prelude:      cfg.Output.Prelude,
		DeclareCore:  cfg.Output.DeclareCore,
		Annotate:     cfg.Output.Annotate,
		DefaultModel: models.SemanticModel(cfg.DefaultModel),
	})
	return gen.Generate(ctx, spec)
}

// writeOutput replaces path atomically, so a watcher of the output never sees
// a partial script.
func writeOutput(path, script string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, script)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
