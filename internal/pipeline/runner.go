package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/forecast"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/imputation"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/merge"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/observations"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// TracerName names the spans emitted by the batch runner
const TracerName = "pricewatch.pipeline"

// Stage names a per-item processing step
type Stage string

const (
	StageImpute   Stage = "impute"
	StageMerge    Stage = "merge"
	StageForecast Stage = "forecast"
)

// Failure records an item that was dropped from a batch
type Failure struct {
	Item    string `json:"item"`
	Stage   Stage  `json:"stage"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func newFailure(item string, stage Stage, err error) Failure {
	return Failure{Item: item, Stage: stage, Message: err.Error(), Err: err}
}

// Batch is the reduced output of one imputation run
type Batch struct {
	RunID  string
	Series []domain.ItemSeries
	// Failures are sorted by item
	Failures []Failure
	// UnmatchedOfficial are official records whose item produced no series
	UnmatchedOfficial []domain.Observation
	Official          []domain.Observation
	Cutoff            time.Time
	Reports           map[string]merge.Report
}

// Item returns the merged series of one item
func (b *Batch) Item(name string) (domain.ItemSeries, bool) {
	i := sort.Search(len(b.Series), func(i int) bool { return b.Series[i].Item >= name })
	if i < len(b.Series) && b.Series[i].Item == name {
		return b.Series[i], true
	}
	return domain.ItemSeries{}, false
}

// Items returns the names of every item with a series
func (b *Batch) Items() []string {
	out := make([]string, len(b.Series))
	for i, s := range b.Series {
		out[i] = s.Item
	}
	return out
}

// ForecastBatch is the reduced output of a forecast run
type ForecastBatch struct {
	Results  []*forecast.Result
	Failures []Failure
}

// Options carries the optional collaborators of a Runner
type Options struct {
	Metrics  *Metrics
	Business *infrastructure.BusinessMetrics
	Logger   *slog.Logger
}

// Runner fans items out over a bounded worker pool
type Runner struct {
	imputer       *imputation.Engine
	merger        *merge.Merger
	forecaster    *forecast.Engine
	workers       int
	referenceYear int
	metrics       *Metrics
	business      *infrastructure.BusinessMetrics
	tracer        trace.Tracer
	logger        *slog.Logger
}

// NewRunner creates a runner from the imputation, merge, forecast and
// pipeline sections of cfg
func NewRunner(cfg *config.Config, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Runner{
		imputer:       imputation.NewEngine(cfg.Imputation, logger),
		merger:        merge.NewMerger(logger),
		forecaster:    forecast.NewEngine(cfg.Forecast, logger),
		workers:       workers,
		referenceYear: cfg.Merge.ReferenceYear,
		metrics:       metrics,
		business:      opts.Business,
		tracer:        otel.Tracer(TracerName),
		logger:        infrastructure.WithComponent(logger, "pipeline"),
	}
}

// Forecaster returns the engine used by Forecast
func (r *Runner) Forecaster() *forecast.Engine {
	return r.forecaster
}

type itemOutcome struct {
	series  domain.ItemSeries
	report  merge.Report
	failure *Failure
	skipped bool
}

// Run reindexes, imputes, smooths and merges every item of store. Item
// failures are collected in the batch; only an empty store or a cancelled
// context fail the run.
func (r *Runner) Run(ctx context.Context, store *observations.Store, official []domain.Observation) (*Batch, error) {
	if store == nil || store.IsEmpty() {
		return nil, apperrors.ErrEmptyStore
	}

	runID := infrastructure.NewCorrelationID()
	ctx = infrastructure.WithRunID(ctx, runID)
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.run_id", runID)),
	)
	defer span.End()

	stats := imputation.BuildStatistics(store.All())
	official = merge.Dedupe(official)
	refYear := r.referenceYear
	if refYear == 0 {
		refYear = store.LatestYear()
	}
	cutoff := merge.Cutoff(official, refYear)

	officialByItem := make(map[string][]domain.Observation)
	for _, rec := range official {
		officialByItem[rec.Item] = append(officialByItem[rec.Item], rec)
	}

	items := store.Items()
	slots := make([]itemOutcome, len(items))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, item := range items {
		i, item := i, item
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				slots[i].skipped = true
				return nil
			}
			slots[i] = r.processItem(ctx, item, store, stats, officialByItem[item], cutoff)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		r.logger.WarnContext(ctx, "Batch cancelled", slog.String("error", err.Error()))
		return nil, err
	}

	batch := &Batch{
		RunID:    runID,
		Official: official,
		Cutoff:   cutoff,
		Reports:  make(map[string]merge.Report, len(items)),
	}
	merged := make(map[string]bool, len(items))
	for i, out := range slots {
		if out.failure != nil {
			batch.Failures = append(batch.Failures, *out.failure)
			continue
		}
		if out.skipped {
			continue
		}
		batch.Series = append(batch.Series, out.series)
		batch.Reports[items[i]] = out.report
		merged[items[i]] = true
	}
	for _, rec := range official {
		if !merged[rec.Item] {
			batch.UnmatchedOfficial = append(batch.UnmatchedOfficial, rec)
		}
	}

	elapsed := time.Since(start)
	r.recordRun(ctx, "impute", elapsed, len(batch.Failures))
	span.SetAttributes(
		attribute.Int("pipeline.items", len(items)),
		attribute.Int("pipeline.failures", len(batch.Failures)),
		attribute.Int("pipeline.unmatched_official", len(batch.UnmatchedOfficial)),
	)
	span.SetStatus(codes.Ok, "batch completed")

	r.logger.InfoContext(ctx, "Batch completed",
		slog.Int("items", len(items)),
		slog.Int("series", len(batch.Series)),
		slog.Int("failures", len(batch.Failures)),
		slog.Int("official_records", len(official)),
		slog.Int("unmatched_official", len(batch.UnmatchedOfficial)),
		slog.String("cutoff", formatCutoff(cutoff)),
		slog.Duration("elapsed", elapsed))

	return batch, nil
}

// processItem runs the sequential stages of one item
func (r *Runner) processItem(ctx context.Context, item string, store *observations.Store, stats *imputation.SeasonalStatistics, official []domain.Observation, cutoff time.Time) itemOutcome {
	ctx, span := r.tracer.Start(ctx, "pipeline.item",
		trace.WithAttributes(attribute.String("item", item)))
	defer span.End()

	stageStart := time.Now()
	series, err := r.imputer.ImputeItem(item, store.Observations(item), store.Years(item), stats)
	r.metrics.StageDuration.WithLabelValues(string(StageImpute)).Observe(time.Since(stageStart).Seconds())
	if err != nil {
		r.metrics.ItemsProcessed.WithLabelValues(string(StageImpute), "failed").Inc()
		infrastructure.RecordError(ctx, err)
		r.logger.WarnContext(ctx, "Item failed",
			slog.String("item", item),
			slog.String("stage", string(StageImpute)),
			slog.String("error", err.Error()))
		f := newFailure(item, StageImpute, err)
		return itemOutcome{failure: &f}
	}
	r.metrics.ItemsProcessed.WithLabelValues(string(StageImpute), "ok").Inc()

	stageStart = time.Now()
	merged, report := r.merger.ApplyWithReport(series, official, cutoff)
	r.metrics.StageDuration.WithLabelValues(string(StageMerge)).Observe(time.Since(stageStart).Seconds())
	r.metrics.ItemsProcessed.WithLabelValues(string(StageMerge), "ok").Inc()
	r.metrics.OfficialOverrides.Add(float64(report.Overrides))
	r.metrics.TruncatedPoints.Add(float64(report.Truncated))
	infrastructure.AddSpanEvent(ctx, "official prices merged",
		attribute.Int("overrides", report.Overrides),
		attribute.Int("materialised_years", len(report.MaterialisedYears)),
		attribute.Int("truncated", report.Truncated))

	for _, p := range merged.Points() {
		switch {
		case p.WasImputed:
			r.metrics.PointsFilled.WithLabelValues(string(p.Source)).Inc()
		case p.WasAdjusted:
			r.metrics.PointsAdjusted.Inc()
		}
	}

	span.SetAttributes(
		attribute.Int("item.years", len(merged.Years)),
		attribute.Int("item.official_overrides", report.Overrides),
	)
	return itemOutcome{series: merged, report: report}
}

// Forecast projects every series of batch
func (r *Runner) Forecast(ctx context.Context, batch *Batch) (*ForecastBatch, error) {
	histories := make(map[string][]domain.DailySeriesPoint, len(batch.Series))
	for _, s := range batch.Series {
		histories[s.Item] = s.Points()
	}
	return r.ForecastItems(ctx, histories)
}

// ForecastItems projects each history in parallel. Items are processed in
// name order and results come back in the same order.
func (r *Runner) ForecastItems(ctx context.Context, histories map[string][]domain.DailySeriesPoint) (*ForecastBatch, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.forecast",
		trace.WithAttributes(attribute.Int("pipeline.items", len(histories))))
	defer span.End()
	start := time.Now()

	items := make([]string, 0, len(histories))
	for item := range histories {
		items = append(items, item)
	}
	sort.Strings(items)

	type slot struct {
		result *forecast.Result
		err    error
	}
	slots := make([]slot, len(items))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, item := range items {
		i, item := i, item
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			stageStart := time.Now()
			res, err := r.forecaster.Forecast(ctx, item, histories[item])
			r.metrics.StageDuration.WithLabelValues(string(StageForecast)).Observe(time.Since(stageStart).Seconds())
			slots[i] = slot{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	out := &ForecastBatch{}
	for i, s := range slots {
		if s.err != nil {
			r.metrics.ItemsProcessed.WithLabelValues(string(StageForecast), "failed").Inc()
			r.logger.WarnContext(ctx, "Forecast failed",
				slog.String("item", items[i]),
				slog.String("error", s.err.Error()))
			out.Failures = append(out.Failures, newFailure(items[i], StageForecast, s.err))
			continue
		}
		r.metrics.ItemsProcessed.WithLabelValues(string(StageForecast), "ok").Inc()
		if s.result.Metric != nil {
			r.metrics.ForecastMAPE.WithLabelValues(items[i]).Set(*s.result.Metric)
		}
		for _, w := range s.result.Warnings {
			r.logger.DebugContext(ctx, "Forecast warning", slog.String("item", items[i]), slog.String("warning", w.Message))
		}
		out.Results = append(out.Results, s.result)
	}
	if r.business != nil {
		r.business.ForecastsTotal.Add(ctx, int64(len(out.Results)))
	}

	elapsed := time.Since(start)
	r.recordRun(ctx, "forecast", elapsed, len(out.Failures))
	r.logger.InfoContext(ctx, "Forecasts completed",
		slog.Int("items", len(items)),
		slog.Int("results", len(out.Results)),
		slog.Int("failures", len(out.Failures)),
		slog.Duration("elapsed", elapsed))

	return out, nil
}

func (r *Runner) recordRun(ctx context.Context, kind string, elapsed time.Duration, failures int) {
	if r.business == nil {
		return
	}
	status := "success"
	if failures > 0 {
		status = "partial"
	}
	attrs := metric.WithAttributes(
		attribute.String("run", kind),
		attribute.String("status", status),
	)
	r.business.BatchRunsTotal.Add(ctx, 1, attrs)
	r.business.BatchRunDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func formatCutoff(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return t.Format(domain.DateLayout)
}

// String summarises the batch for CLI output
func (b *Batch) String() string {
	return fmt.Sprintf("%d series, %d failures, %d unmatched official records",
		len(b.Series), len(b.Failures), len(b.UnmatchedOfficial))
}
