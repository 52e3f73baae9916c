// Package loader fetches cases from the upstream, builds a report and
// publishes it to the store under a generation token.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/metrics"
	"github.com/aldeia/relatos-dashboard/report"
	"golang.org/x/sync/errgroup"
)

// Compile-time check to ensure Loader implements ReportLoader
var _ interfaces.ReportLoader = (*Loader)(nil)

// Options tunes a Loader.
type Options struct {
	// CaseLimit is passed as the list limit.
	CaseLimit int

	// Concurrency caps parallel detail fetches. Zero means unbounded.
	Concurrency int

	// RecentCases and PreviewLength shape the overview. Zero uses the
	// report package defaults.
	RecentCases   int
	PreviewLength int
}

// Batch is the result of one load.
type Batch struct {
	// Listed is the list response in upstream order, every status included.
	Listed []entities.Case

	// Analyzed holds the completed cases, as detail records where available.
	Analyzed []entities.Case
}

// Loader builds reports from the upstream case list.
type Loader struct {
	api       interfaces.CasesAPI
	store     interfaces.DataStore
	validator interfaces.DataValidator
	opts      Options
	now       func() time.Time
}

// New creates a loader.
func New(api interfaces.CasesAPI, store interfaces.DataStore, validator interfaces.DataValidator, opts Options) *Loader {
	if opts.CaseLimit <= 0 {
		opts.CaseLimit = 200
	}
	if opts.Concurrency < 0 {
		opts.Concurrency = 0
	}
	return &Loader{
		api:       api,
		store:     store,
		validator: validator,
		opts:      opts,
		now:       time.Now,
	}
}

// Load lists cases, keeps the completed ones and fetches each one's detail.
// A detail that fails to load is replaced by its list entry, which carries no
// structured data. A case stays analyzed whatever status its detail reports.
// Only a failed list or a cancelled ctx is an error.
func (l *Loader) Load(ctx context.Context) (*Batch, error) {
	list, err := l.api.ListCases(ctx, l.opts.CaseLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	var completed []entities.Case
	for _, c := range list.Cases {
		if c.IsComplete() {
			completed = append(completed, c)
		}
	}

	details := make([]entities.Case, len(completed))
	var g errgroup.Group
	if l.opts.Concurrency > 0 {
		g.SetLimit(l.opts.Concurrency)
	}

	for i, c := range completed {
		g.Go(func() error {
			detail, err := l.api.GetCase(ctx, c.ID)
			if err != nil {
				logging.Warn("Failed to load case detail, using list entry",
					"case_id", c.ID, "error", err)
				details[i] = c
				return nil
			}
			details[i] = *detail
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("case load interrupted: %w", err)
	}
	return &Batch{Listed: list.Cases, Analyzed: details}, nil
}

// Refresh runs a full load and applies the result if no newer load was
// issued meanwhile. On error the current snapshot is left untouched.
func (l *Loader) Refresh(ctx context.Context) (*entities.Report, bool, error) {
	start := time.Now()
	l.store.BeginLoad()
	defer l.store.EndLoad()

	gen := l.store.NextGeneration()
	logging.Info("Starting report load", "generation", gen)

	batch, err := l.Load(ctx)
	metrics.ReportRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReportRefreshTotal.WithLabelValues(metrics.ResultError).Inc()
		logging.Error("Report load failed", "generation", gen, "error", err)
		return nil, false, err
	}

	l.validator.ReportDataQuality(batch.Analyzed)

	rep := report.Build(batch.Analyzed, gen, l.now())
	rep.Overview = report.NewOverview(batch.Listed, l.opts.RecentCases, l.opts.PreviewLength)
	if !l.store.Apply(gen, rep) {
		metrics.ReportRefreshTotal.WithLabelValues(metrics.ResultStale).Inc()
		metrics.ReportStaleResults.Inc()
		logging.Info("Discarding stale report", "generation", gen,
			"current_generation", l.store.CurrentGeneration())
		return rep, false, nil
	}

	metrics.ReportRefreshTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.ReportCases.Set(float64(len(rep.Cases)))
	logging.Info("Report applied",
		"generation", gen,
		"cases", len(rep.Cases),
		"symptoms", len(rep.Symptoms),
		"categories", len(rep.Categories),
		"indigenous_terms", len(rep.IndigenousTerms),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep, true, nil
}
