package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/seqcsp/internal/csp"
	"github.com/GoSim-25-26J-441/seqcsp/internal/lowering"
	"github.com/GoSim-25-26J-441/seqcsp/internal/metrics"
	"github.com/GoSim-25-26J-441/seqcsp/internal/msgset"
	"github.com/GoSim-25-26J-441/seqcsp/internal/property"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// TracerName is the instrumentation scope of generator spans.
const TracerName = "github.com/GoSim-25-26J-441/seqcsp/internal/engine"

// Options configure a Generator
type Options struct {
	// Workers bounds how many interactions of a group are lowered at once.
	Workers int
	// Prelude emits the helper definitions before the group modules.
	Prelude bool
	// DeclareCore emits the InOut datatype and the tock channel with the prelude.
	DeclareCore bool
	// Annotate is passed on to the lowering.
	Annotate bool
	// DefaultModel is used by properties without a semantic model.
	DefaultModel models.SemanticModel
}

// Generator lowers whole specifications into CSPM scripts
type Generator struct {
	opts   Options
	tracer trace.Tracer
	logger *slog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(opts Options) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = models.ModelTraces
	}
	return &Generator{
		opts:   opts,
		tracer: otel.Tracer(TracerName),
		logger: logger.ForComponent("engine"),
	}
}

// SetLogger sets the generator's logger
func (g *Generator) SetLogger(l *slog.Logger) {
	g.logger = l
}

// SetTracer sets the tracer spans are started with
func (g *Generator) SetTracer(t trace.Tracer) {
	g.tracer = t
}

// Generate lowers every group of spec in declaration order. Failures local
// to a group, an interaction or a property become diagnostics and the rest
// of the script is still generated. Cancellation is observed between
// interactions; a cancelled run returns the context's error.
//
// Generate optimises the message sets of spec in place.
func (g *Generator) Generate(ctx context.Context, spec *models.Specification) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("seqcsp.spec", spec.Name),
		attribute.Int("seqcsp.groups", len(spec.Groups)),
	))
	defer span.End()

	g.logger.Info("Starting generation",
		"spec", spec.Name,
		"groups", len(spec.Groups),
		"workers", g.opts.Workers)

	collector := metrics.NewCollector()
	collector.Start()

	var script csp.Script
	if g.opts.Prelude {
		script.Add(csp.Prelude(csp.PreludeOptions{DeclareCore: g.opts.DeclareCore})...)
	}

	result := &Result{}
	groupNames := make([]string, 0, len(spec.Groups))
	for _, group := range spec.Groups {
		groupNames = append(groupNames, group.Name)
		decls, diags, err := g.generateGroup(ctx, spec.Topology, group, collector)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			g.logger.Info("Generation cancelled", "group", group.Name)
			return nil, err
		}
		result.Diagnostics = append(result.Diagnostics, diags...)
		if len(decls) > 0 {
			if len(script.Decls) > 0 {
				script.Add(csp.Blank{})
			}
			script.Add(decls...)
		}
	}

	collector.Stop()
	result.Output = script.String()
	result.Metrics = metrics.ConvertToGenerationMetrics(collector, groupNames)

	span.SetAttributes(attribute.Int("seqcsp.diagnostics", len(result.Diagnostics)))
	if len(result.Diagnostics) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d diagnostics", len(result.Diagnostics)))
	}
	g.logger.Info("Generation finished",
		"spec", spec.Name,
		"interactions_lowered", result.Metrics.InteractionsLowered,
		"interactions_failed", result.Metrics.InteractionsFailed,
		"diagnostics", len(result.Diagnostics),
		"duration", result.Metrics.Duration)
	return result, nil
}

// generateGroup returns the module and assertions of one group. A group whose
// topology view or named sets cannot be built yields only a diagnostic.
func (g *Generator) generateGroup(ctx context.Context, topo *models.Topology, group *models.Group, collector *metrics.Collector) ([]csp.Decl, []Diagnostic, error) {
	ctx, span := g.tracer.Start(ctx, "Group", trace.WithAttributes(
		attribute.String("seqcsp.group", group.Name),
		attribute.Int("seqcsp.interactions", len(group.Interactions)),
	))
	defer span.End()

	log := g.logger.With("group", group.Name)
	groupFailed := func(err error) ([]csp.Decl, []Diagnostic, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Group failed", "error", err)
		return nil, []Diagnostic{newDiagnostic(group.Name, "", "", err)}, nil
	}

	optimised := msgset.OptimiseGroup(group)
	log.Debug("Message sets optimised", "sets", optimised)

	l, err := lowering.NewForGroup(topo, group, lowering.Options{Annotate: g.opts.Annotate})
	if err != nil {
		return groupFailed(err)
	}
	sets, err := l.LowerSets()
	if err != nil {
		return groupFailed(err)
	}

	lowered, errs, err := g.lowerInteractions(ctx, l, group, collector)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	ok := make([]*lowering.Lowered, 0, len(lowered))
	failed := make(map[*models.Interaction]bool)
	for k, i := range group.Interactions {
		if errs[k] != nil {
			failed[i] = true
			diags = append(diags, newDiagnostic(group.Name, i.Name, "", errs[k]))
			log.Warn("Interaction failed", "interaction", i.Name, "error", errs[k])
			continue
		}
		ok = append(ok, lowered[k])
	}

	decls := []csp.Decl{l.Module(sets, ok)}

	var asserts []csp.Decl
	for _, p := range group.Properties {
		if failed[p.Interaction] {
			metrics.RecordProperty(collector, group.Name, true)
			diags = append(diags, newDiagnostic(group.Name, "", p.Name,
				fmt.Errorf("%w: %s", ErrInteractionFailed, p.Interaction.Name)))
			continue
		}
		prop := *p
		if prop.Model == "" {
			prop.Model = g.opts.DefaultModel
		}
		a, err := property.Lower(l.Names(), &prop)
		if err != nil {
			metrics.RecordProperty(collector, group.Name, true)
			diags = append(diags, newDiagnostic(group.Name, "", p.Name, err))
			continue
		}
		metrics.RecordProperty(collector, group.Name, false)
		asserts = append(asserts, a)
	}
	if len(asserts) > 0 {
		decls = append(decls, csp.Blank{})
		decls = append(decls, asserts...)
	}

	span.SetAttributes(attribute.Int("seqcsp.failed", len(failed)))
	log.Info("Group lowered",
		"interactions", len(ok),
		"failed", len(failed),
		"properties", len(asserts))
	return decls, diags, nil
}

// lowerInteractions lowers the interactions of a group with at most
// Workers goroutines. Results and errors are indexed like
// group.Interactions; the returned error is only set on cancellation.
func (g *Generator) lowerInteractions(ctx context.Context, l *lowering.Lowerer, group *models.Group, collector *metrics.Collector) ([]*lowering.Lowered, []error, error) {
	n := len(group.Interactions)
	lowered := make([]*lowering.Lowered, n)
	errs := make([]error, n)

	var eg errgroup.Group
	eg.SetLimit(g.opts.Workers)
	for k, i := range group.Interactions {
		if err := ctx.Err(); err != nil {
			break
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, span := g.tracer.Start(ctx, "LowerInteraction", trace.WithAttributes(
				attribute.String("seqcsp.group", group.Name),
				attribute.String("seqcsp.interaction", i.Name),
				attribute.Int("seqcsp.lifelines", len(i.Lifelines)),
			))
			defer span.End()

			start := time.Now()
			lowered[k], errs[k] = l.LowerInteraction(i)
			metrics.RecordInteraction(collector, group.Name, time.Since(start), errs[k])
			if errs[k] != nil {
				span.RecordError(errs[k])
				span.SetStatus(codes.Error, errs[k].Error())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return lowered, errs, nil
}
