package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/app"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/dataprocessing"
	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/infrastructure"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/pipeline"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

// forecastFlags override the forecast section of the config
type forecastFlags struct {
	horizon int
	holdout int
}

func (f *forecastFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.horizon, "horizon", 0, "days to forecast (0 keeps the config value)")
	cmd.Flags().IntVar(&f.holdout, "holdout", 0, "trailing days held out for the MAPE backtest (0 keeps the config value)")
}

func (f *forecastFlags) apply(cfg *config.Config) {
	if f.horizon > 0 {
		cfg.Forecast.Horizon = f.horizon
	}
	if f.holdout > 0 {
		cfg.Forecast.Holdout = f.holdout
	}
}

// withEnvironment runs fn with a fresh environment and always closes it
func withEnvironment(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *environment) error, overrides ...func(*config.Config)) error {
	env, err := setup(flags, overrides...)
	if err != nil {
		return err
	}
	ctx := infrastructure.WithTraceID(cmd.Context(), infrastructure.NewCorrelationID())
	defer env.close(ctx)
	return fn(ctx, env)
}

// imputeCmd reconstructs the daily series and writes the cleaned outputs
func imputeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "impute",
		Short: "Fill missing daily prices and apply the official index",
		Long: `Parses the price workbook and the daily index, reconstructs every
(item, year) series and writes the cleaned CSVs, the reconciled workbook
and prices.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				batch, err := runImpute(ctx, env)
				if err != nil {
					return err
				}
				printBatch(cmd.OutOrStdout(), batch)
				return nil
			})
		},
	}
}

// forecastCmd projects every cleaned series forward
func forecastCmd(flags *globalFlags) *cobra.Command {
	ff := &forecastFlags{}
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast every item from the cleaned series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				fb, err := runForecast(ctx, env)
				if err != nil {
					return err
				}
				printForecasts(cmd.OutOrStdout(), fb)
				return nil
			}, ff.apply)
		},
	}
	ff.register(cmd)
	return cmd
}

// syncCmd runs impute, forecast and the current-prices export in order
func syncCmd(flags *globalFlags) *cobra.Command {
	ff := &forecastFlags{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Impute, forecast and export current prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				batch, err := runImpute(ctx, env)
				if err != nil {
					return err
				}
				printBatch(cmd.OutOrStdout(), batch)

				fb, err := runForecast(ctx, env)
				if err != nil {
					return err
				}
				printForecasts(cmd.OutOrStdout(), fb)

				cleaned, err := dataprocessing.LoadCleanedDir(env.paths.CleanDir)
				if err != nil {
					return err
				}
				path, err := env.exporter.WriteCurrentPrices(batch.Official, cleaned)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current prices written to %s\n", path)
				return nil
			}, ff.apply)
		},
	}
	ff.register(cmd)
	return cmd
}

func summaryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Per-item observation statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				store, err := env.loadStore(ctx)
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ITEM\tOBSERVATIONS\tFIRST\tLATEST\tMIN\tMAX\tAVG")
				for _, s := range store.Summarize() {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
						s.Item, s.Observations, s.FirstYear, s.LatestYear, s.MinPrice, s.MaxPrice, s.AvgPrice)
				}
				return w.Flush()
			})
		},
	}
}

func compareCmd(flags *globalFlags) *cobra.Command {
	var base, target int
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Change of each item's annual mean price between two years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				store, err := env.loadStore(ctx)
				if err != nil {
					return err
				}
				rows, err := store.CompareYears(base, target)
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintf(w, "ITEM\t%d\t%d\tDELTA\tCHANGE\n", base, target)
				for _, c := range rows {
					fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.2f\t%+.2f%%\n",
						c.Item, c.BasePrice, c.TargetPrice, c.Delta, c.PctChange)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&base, "base", 0, "base year")
	cmd.Flags().IntVar(&target, "target", 0, "target year")
	cmd.MarkFlagRequired("base")
	cmd.MarkFlagRequired("target")
	return cmd
}

func itemCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "item NAME",
		Short: "List the observations of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				store, err := env.loadStore(ctx)
				if err != nil {
					return err
				}
				obs := store.FilterByItem(args[0])
				if len(obs) == 0 {
					return apperrors.NewNotFoundError(fmt.Sprintf("item %q", args[0]))
				}
				return printObservations(cmd.OutOrStdout(), obs)
			})
		},
	}
}

func yearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "year YYYY",
		Short: "List every observation of one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.NewAppValidationError(fmt.Sprintf("invalid year %q", args[0]))
			}
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				store, err := env.loadStore(ctx)
				if err != nil {
					return err
				}
				obs := store.FilterByYear(year)
				if len(obs) == 0 {
					return apperrors.NewNotFoundError(fmt.Sprintf("year %d", year))
				}
				return printObservations(cmd.OutOrStdout(), obs)
			})
		},
	}
}

// serveCmd runs the batch once and serves it over HTTP
func serveCmd(flags *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch and serve the read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnvironment(cmd, flags, func(ctx context.Context, env *environment) error {
				store, err := env.loadStore(ctx)
				if err != nil {
					return err
				}
				official, err := env.loadOfficial(ctx)
				if err != nil {
					return err
				}
				batch, err := env.runner.Run(ctx, store, official)
				if err != nil {
					return err
				}

				application, err := app.NewApplication(env.cfg, app.Dependencies{
					Batch:      batch,
					Forecaster: env.runner.Forecaster(),
					Gatherer:   env.registry,
					OTel:       env.otel,
					Logger:     env.logger,
				})
				if err != nil {
					return err
				}
				// the application shuts the providers down
				env.otel = nil
				return application.Run(ctx)
			}, func(cfg *config.Config) {
				if port > 0 {
					cfg.Server.Port = port
				}
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (0 keeps the config value)")
	return cmd
}

// runImpute runs the batch and writes the cleaned series, the reconciled
// workbook and prices.json
func runImpute(ctx context.Context, env *environment) (*pipeline.Batch, error) {
	store, err := env.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	official, err := env.loadOfficial(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := env.runner.Run(ctx, store, official)
	if err != nil {
		return nil, err
	}

	written, err := env.exporter.WriteSeries(batch.Series)
	if err != nil {
		return nil, err
	}
	workbook, err := env.exporter.WriteWorkbook(batch.Series)
	if err != nil {
		return nil, err
	}
	prices, err := env.exporter.WritePricesJSON(batch.Series)
	if err != nil {
		return nil, err
	}

	env.logger.InfoContext(ctx, "Impute outputs written",
		slog.String("run_id", batch.RunID),
		slog.Int("series_files", len(written)),
		slog.String("workbook", workbook),
		slog.String("prices_json", prices))
	return batch, nil
}

// runForecast forecasts every item found in the cleaned directory and
// writes the forecast CSVs, summary.csv and forecasts.json
func runForecast(ctx context.Context, env *environment) (*pipeline.ForecastBatch, error) {
	cleaned, err := dataprocessing.LoadCleanedDir(env.paths.CleanDir)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return nil, apperrors.ErrEmptyStore
	}

	fb, err := env.runner.ForecastItems(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ForecastResult, len(fb.Results))
	for i, res := range fb.Results {
		results[i] = res.ForecastResult
	}
	names := env.exporter.LoadDisplayNames()

	if _, err := env.exporter.WriteForecasts(results, names); err != nil {
		return nil, err
	}
	if _, err := env.exporter.WriteForecastsJSON(results, names, env.cfg.Forecast.Horizon); err != nil {
		return nil, err
	}
	return fb, nil
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printObservations(out io.Writer, obs []domain.Observation) error {
	w := newTable(out)
	fmt.Fprintln(w, "ITEM\tDATE\tPRICE")
	for _, o := range obs {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", o.Item, o.Date.Format(domain.DateLayout), o.Price)
	}
	return w.Flush()
}

func printBatch(out io.Writer, batch *pipeline.Batch) {
	cutoff := "none"
	if !batch.Cutoff.IsZero() {
		cutoff = batch.Cutoff.Format(domain.DateLayout)
	}
	fmt.Fprintf(out, "Run %s: %d series, %d failures, cutoff %s\n",
		batch.RunID, len(batch.Series), len(batch.Failures), cutoff)
	for _, f := range batch.Failures {
		fmt.Fprintf(out, "  %s (%s): %s\n", f.Item, f.Stage, f.Message)
	}
	if n := len(batch.UnmatchedOfficial); n > 0 {
		fmt.Fprintf(out, "  %d official records matched no item\n", n)
	}
}

func printForecasts(out io.Writer, fb *pipeline.ForecastBatch) {
	fmt.Fprintf(out, "Forecast %d items, %d failures\n", len(fb.Results), len(fb.Failures))
	for _, f := range fb.Failures {
		fmt.Fprintf(out, "  %s: %s\n", f.Item, f.Message)
	}
}
