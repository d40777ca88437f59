// Package pipeline runs the updater end to end: fetch the catalog, derive
// resource rows, classify, order and key them, render every template
// family, and build the overview.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"startercode/internal/catalog"
	"startercode/internal/classifier"
	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
	"startercode/internal/normalizer"
	"startercode/internal/output"
	"startercode/internal/overview"
	"startercode/internal/render"

	"github.com/google/uuid"
)

// Stage names passed to an Observer.
const (
	StageRender = "render"
	StageWrite  = "write"
)

// ErrFetch wraps catalog source failures.
var ErrFetch = errors.New("catalog fetch failed")

// Observer follows per-row progress of the long stages.
type Observer interface {
	Start(stage string, total int)
	Step()
	Finish()
}

type nopObserver struct{}

func (nopObserver) Start(string, int) {}
func (nopObserver) Step()             {}
func (nopObserver) Finish()           {}

// Result is the in-memory outcome of a run.
type Result struct {
	Report   *Report
	Rows     []*models.RenderedRow
	Overview *models.OverviewDocument
	Readme   string
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg        *config.Config
	source     catalog.Source
	processor  *normalizer.Processor
	classifier *classifier.Classifier
	renderer   *render.Renderer
	builder    *overview.Builder
	observer   Observer
	logger     *logger.Logger
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock fixes the time written into rendered documents.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithObserver reports stage progress to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New creates a pipeline reading from source.
func New(cfg *config.Config, source catalog.Source, log *logger.Logger, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:        cfg,
		source:     source,
		processor:  normalizer.NewProcessor(cfg, log),
		classifier: classifier.New(cfg.Classification),
		observer:   nopObserver{},
		logger:     log,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	templates, err := render.LoadTemplates(cfg.Templates.Dir)
	if err != nil {
		return nil, err
	}

	p.renderer, err = render.NewRenderer(cfg, templates, render.WithClock(p.now))
	if err != nil {
		return nil, err
	}

	for name, tokens := range p.renderer.UnresolvedTokens() {
		p.logger.Warn("template has unresolved placeholders; its rows will fail", "template", name, "tokens", tokens)
	}

	p.builder = overview.NewBuilder(cfg, templates, overview.WithClock(p.now))

	return p, nil
}

// Builder returns the overview builder used by the pipeline.
func (p *Pipeline) Builder() *overview.Builder {
	return p.builder
}

// Run executes every stage in memory. Per-row render failures are recorded
// in the report; a key collision aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), StartedAt: start}
	log := p.logger.With("run", report.RunID)

	log.Info("fetching catalog")

	datasets, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	report.Datasets = len(datasets)

	rows, issues := p.processor.Process(datasets)
	report.Rows = len(rows)
	report.Issues = len(issues)

	part := p.classifier.Partition(rows)
	report.PerCategory = part.PerCategory
	report.Unclassified = part.Unclassified
	report.Ambiguous = part.Ambiguous

	if part.Ambiguous > 0 {
		log.Warn("rows matched more than one category", "count", part.Ambiguous)
	}

	log.Info("rows classified", "classified", len(part.Classified), "unclassified", part.Unclassified)

	normalizer.SortRows(part.Classified)

	if err := normalizer.AssignKeys(part.Classified); err != nil {
		return nil, err
	}

	rendered := p.render(ctx, part.Classified, report, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := p.builder.Build(rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to build overview: %w", err)
	}

	readme, err := p.builder.Readme(len(rendered))
	if err != nil {
		return nil, fmt.Errorf("failed to build readme: %w", err)
	}

	report.Duration = time.Since(start)

	log.Info("run complete", "rendered", report.Rendered, "failed", report.Failed, "duration", report.Duration)

	return &Result{Report: report, Rows: rendered, Overview: doc, Readme: readme}, nil
}

func (p *Pipeline) render(ctx context.Context, rows []*models.ResourceRow, report *Report, log *logger.Logger) []*models.RenderedRow {
	rendered := make([]*models.RenderedRow, 0, len(rows))

	p.observer.Start(StageRender, len(rows))
	defer p.observer.Finish()

	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}

		rr, err := p.renderer.Render(row)

		p.observer.Step()

		if err != nil {
			log.Warn("row not rendered", "key", row.Key, "error", err)
			report.Failures = append(report.Failures, Failure{Key: row.Key, Err: err})
			report.Failed++

			continue
		}

		rendered = append(rendered, rr)
		report.Rendered++
	}

	return rendered
}

// Write persists a result below the configured work directory: every
// rendered document, then the README, then the overview.
func (p *Pipeline) Write(res *Result) error {
	w := output.NewWriter(p.cfg.Output.WorkDir, p.logger)

	p.observer.Start(StageWrite, len(res.Rows))

	n, err := w.WriteRows(res.Rows, p.observer.Step)
	res.Report.Written = n

	p.observer.Finish()

	if err != nil {
		return err
	}

	if err := w.WriteReadme(res.Readme); err != nil {
		return err
	}

	res.Report.Written++

	if err := w.WriteOverview(res.Overview); err != nil {
		return err
	}

	res.Report.Written++

	p.logger.Info("output written", "dir", w.Root(), "files", res.Report.Written)

	return nil
}
