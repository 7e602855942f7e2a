package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

// Extractor produces the canonical records of one country.
type Extractor interface {
	Extract(ctx context.Context, country domain.Country, tr *domain.Translator) ([]domain.Record, error)
}

// Loader writes the outputs of a run to a destination.
type Loader interface {
	Load(ctx context.Context, out report.Output) error
}

// Summary describes one finished run.
type Summary struct {
	RunID              string         `json:"run_id"`
	StartedAt          time.Time      `json:"started_at"`
	DurationSeconds    float64        `json:"duration_seconds"`
	Success            bool           `json:"success"`
	Error              string         `json:"error,omitempty"`
	Records            int            `json:"records"`
	Clean              int            `json:"clean"`
	Suspect            int            `json:"suspect"`
	PerCountry         map[string]int `json:"per_country,omitempty"`
	Flags              map[string]int `json:"flags,omitempty"`
	WithoutCoordinates int            `json:"without_coordinates"`
	TranslationMisses  int            `json:"translation_misses"`
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock used for run timing.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline runs extract, georeference, merge, validate, report and load once
// per Run call.
type Pipeline struct {
	def       *config.Pipeline
	lookups   Lookups
	extractor Extractor
	loaders   []Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	ready atomic.Bool
	mu    sync.Mutex
	last  *Summary
}

// New creates a Pipeline for the given definition and stages.
func New(def *config.Pipeline, lookups Lookups, e Extractor, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		def:       def,
		lookups:   lookups,
		extractor: e,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the most recent finished run.
func (p *Pipeline) LastRun() (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Summary{}, false
	}
	return *p.last, true
}

// Run executes one full pass and hands the outputs to every loader.
func (p *Pipeline) Run(ctx context.Context) (report.Output, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := p.clock.Now()
	summary := Summary{RunID: runID, StartedAt: start.UTC()}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	logger.Info("pipeline started", "countries", p.def.Countries())

	out, err := p.run(ctx, logger, &summary)

	summary.DurationSeconds = p.clock.Since(start).Seconds()
	p.metrics.RunDuration.Observe(summary.DurationSeconds)
	if err != nil {
		summary.Error = err.Error()
		p.metrics.LastRunSuccess.Set(0)
		logger.Error("pipeline failed", "error", err)
	} else {
		summary.Success = true
		p.metrics.LastRunSuccess.Set(1)
		p.ready.Store(true)
		logger.Info("pipeline finished",
			"records", summary.Records,
			"clean", summary.Clean,
			"suspect", summary.Suspect,
			"duration", p.clock.Since(start),
		)
	}

	p.mu.Lock()
	p.last = &summary
	p.mu.Unlock()
	return out, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, summary *Summary) (report.Output, error) {
	tr := p.lookups.Translator(p.missHook(logger))

	perCountry, err := p.extract(ctx, logger, tr)
	if err != nil {
		return report.Output{}, err
	}
	summary.PerCountry = make(map[string]int, len(perCountry))
	for i, c := range p.def.Countries() {
		summary.PerCountry[string(c)] = len(perCountry[i])
	}
	misses := tr.Misses()
	summary.TranslationMisses = len(misses)
	if len(misses) > 0 {
		logger.Info("translation tables incomplete", "distinct_misses", len(misses))
	}

	merged := domain.Merge(perCountry...)
	logger.Info("sources merged", "records", len(merged))

	located := p.georeference(logger, merged)
	summary.WithoutCoordinates = countWithoutCoordinates(located)

	validated := domain.NewValidator(p.def.Rules).Validate(located)
	summary.Flags = domain.FlagCounts(validated)
	for _, rule := range slices.Sorted(maps.Keys(summary.Flags)) {
		p.metrics.ValidationFlags.WithLabelValues(rule).Add(float64(summary.Flags[rule]))
	}

	opts := p.def.Report
	opts.Reference = p.lookups.Reference
	out := report.Build(validated, opts)
	summary.Records, summary.Clean, summary.Suspect = len(out.Records), out.Clean, out.Suspect
	logger.Info("records validated",
		"clean", out.Clean,
		"suspect", out.Suspect,
		"deviations", len(out.Deviations),
	)

	for _, l := range p.loaders {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("load outputs: %w", err)
		}
		if err := l.Load(ctx, out); err != nil {
			return out, fmt.Errorf("load outputs: %w", err)
		}
	}
	return out, nil
}

// extract runs the country extractions concurrently. Results land in slots
// ordered like Countries so the merge order does not depend on scheduling.
func (p *Pipeline) extract(ctx context.Context, logger *slog.Logger, tr *domain.Translator) ([][]domain.Record, error) {
	countries := p.def.Countries()
	slots := make([][]domain.Record, len(countries))

	g, gctx := errgroup.WithContext(ctx)
	for i, country := range countries {
		g.Go(func() error {
			records, err := p.extractor.Extract(gctx, country, tr)
			if err != nil {
				logger.Error("extract failed", "country", country, "error", err)
				return fmt.Errorf("extract %s: %w", country, err)
			}
			slots[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, country := range countries {
		counts := make(map[string]int)
		for j := range slots[i] {
			counts[slots[i][j].DataSource]++
		}
		for _, ds := range slices.Sorted(maps.Keys(counts)) {
			p.metrics.RecordsExtracted.WithLabelValues(string(country), ds).Add(float64(counts[ds]))
		}
		logger.Info("source extracted", "country", country, "records", len(slots[i]))
	}
	return slots, nil
}

func (p *Pipeline) georeference(logger *slog.Logger, records []domain.Record) []domain.Record {
	located := p.lookups.Georeferencer.Apply(records)

	strategies := make(map[string]int)
	for i := range located {
		strategy := located[i].GeoSource
		if strategy == "" {
			strategy = "none"
		}
		strategies[strategy]++
	}
	for _, s := range slices.Sorted(maps.Keys(strategies)) {
		p.metrics.Georeferenced.WithLabelValues(s).Add(float64(strategies[s]))
	}

	p.metrics.RecordsWithoutCoordinate.Reset()
	for _, n := range domain.NullCoordinates(located) {
		p.metrics.RecordsWithoutCoordinate.WithLabelValues(n.DataSource, n.EnergySource).Set(float64(n.Count))
		logger.Warn("records without coordinates",
			"data_source", n.DataSource,
			"energy_source", n.EnergySource,
			"count", n.Count,
		)
	}
	return located
}

func (p *Pipeline) missHook(logger *slog.Logger) func(domain.Miss) {
	return func(m domain.Miss) {
		p.metrics.TranslationMisses.WithLabelValues(m.Kind, string(m.Country)).Inc()
		logger.Debug("translation missing", "kind", m.Kind, "country", m.Country, "name", m.Original)
	}
}

func countWithoutCoordinates(records []domain.Record) int {
	n := 0
	for i := range records {
		if !records[i].HasCoordinates() {
			n++
		}
	}
	return n
}
