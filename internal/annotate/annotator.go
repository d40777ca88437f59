package annotate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"startercode/internal/config"
	"startercode/internal/logger"
	"startercode/internal/models"
	"startercode/internal/overview"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const maxConcurrentPatches = 4

// Annotation is the text written to one resource.
type Annotation struct {
	Key        string
	ResourceID string
	// Value is the merged field value sent to the catalog.
	Value string
}

// Result summarises an Apply call.
type Result struct {
	Errors  []error
	Patched int
	Skipped int
	DryRun  bool
}

// Annotator builds and pushes annotations.
type Annotator struct {
	client  Client
	cfg     *config.Config
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewAnnotator creates an annotator that talks to the configured endpoint.
func NewAnnotator(cfg *config.Config, log *logger.Logger) *Annotator {
	return NewAnnotatorWithClient(cfg, NewCKANClient(cfg.Annotate.APIURL, cfg.Annotate.APIToken, log), log)
}

// NewAnnotatorWithClient creates an annotator with a custom client (useful for testing).
func NewAnnotatorWithClient(cfg *config.Config, client Client, log *logger.Logger) *Annotator {
	limit := rate.Limit(cfg.Annotate.RateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}

	return &Annotator{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
	}
}

// Text returns the badge line for a rendered row, or "" when the row has
// no Python document to launch.
func Text(prefix string, links overview.Links) string {
	if links.Colab == "" || links.Binder == "" {
		return ""
	}

	return prefix + " " + links.ColabBadge() + " " + links.BinderBadge()
}

// Merge replaces any earlier badge line in existing with text.
func Merge(existing, text, prefix string) string {
	var kept []string

	for _, line := range strings.Split(existing, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			continue
		}

		kept = append(kept, line)
	}

	base := strings.TrimSpace(strings.Join(kept, "\n"))
	if base == "" {
		return text
	}

	return base + "\n\n" + text
}

// Build derives one annotation per rendered row that has launch links.
func (a *Annotator) Build(rows []*models.RenderedRow) []Annotation {
	prefix := a.cfg.Annotate.MessagePrefix
	out := make([]Annotation, 0, len(rows))

	for _, rr := range rows {
		text := Text(prefix, overview.NewLinks(a.cfg, rr))
		if text == "" {
			continue
		}

		existing := rr.Row.Resource.Field(a.cfg.Annotate.Field).Value

		out = append(out, Annotation{
			Key:        rr.Row.Key,
			ResourceID: rr.Row.Resource.ID.Value,
			Value:      Merge(existing, text, prefix),
		})
	}

	return out
}

// Apply pushes annotations. In dry-run mode nothing is sent and every
// annotation is logged and counted as skipped.
func (a *Annotator) Apply(ctx context.Context, annotations []Annotation) (*Result, error) {
	result := &Result{DryRun: a.cfg.Annotate.DryRun}

	if result.DryRun {
		for _, ann := range annotations {
			a.logger.Info("dry run: would annotate resource", "key", ann.Key, "resource", ann.ResourceID)
		}

		result.Skipped = len(annotations)

		return result, nil
	}

	a.logger.Info(fmt.Sprintf("Annotating %d resources...", len(annotations)))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(maxConcurrentPatches)

	for _, ann := range annotations {
		ann := ann

		if err := a.limiter.Wait(ctx); err != nil {
			_ = g.Wait()

			return result, fmt.Errorf("annotate interrupted: %w", err)
		}

		g.Go(func() error {
			err := a.client.Patch(ctx, ann.ResourceID, map[string]string{a.cfg.Annotate.Field: ann.Value})

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				a.logger.Error("failed to annotate resource", "key", ann.Key, "error", err)
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", ann.Key, err))

				return nil
			}

			result.Patched++

			return nil
		})
	}

	_ = g.Wait()

	return result, nil
}
