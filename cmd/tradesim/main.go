// Command tradesim is a thin Cobra CLI wrapping internal/engine: flag
// parsing and dependency wiring only, no business logic, mirroring the
// teacher's cmd/server/main.go wiring sequence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/tradesim/internal/api"
	"github.com/aristath/tradesim/internal/backup"
	"github.com/aristath/tradesim/internal/config"
	"github.com/aristath/tradesim/internal/diagnostics"
	"github.com/aristath/tradesim/internal/engine"
	"github.com/aristath/tradesim/pkg/logger"
)

var (
	flagDataDir    string
	flagStrategy   string
	flagSymbol     string
	flagMarket     string
	flagResolution string
	flagQuantity   float64
	flagFraction   float64
	flagDistance   float64
	flagFastPeriod int
	flagSlowPeriod int
	flagWarmupBars int
)

func main() {
	root := &cobra.Command{
		Use:   "tradesim",
		Short: "event-driven backtesting and paper-trading engine",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a strategy",
	}
	runCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override TRADESIM_DATA_DIR")
	runCmd.PersistentFlags().StringVar(&flagStrategy, "strategy", "buyandhold", "reference strategy to run (buyandhold, limitentry, stoppair, splitaware, emacrossover)")
	runCmd.PersistentFlags().StringVar(&flagSymbol, "symbol", "SPY", "ticker to trade")
	runCmd.PersistentFlags().StringVar(&flagMarket, "market", "usa", "market calendar code")
	runCmd.PersistentFlags().StringVar(&flagResolution, "resolution", "daily", "bar resolution (tick, second, minute, hour, daily)")
	runCmd.PersistentFlags().Float64Var(&flagQuantity, "quantity", 100, "order quantity for quantity-based strategies")
	runCmd.PersistentFlags().Float64Var(&flagFraction, "fraction", 0.5, "portfolio fraction for holdings-based strategies")
	runCmd.PersistentFlags().Float64Var(&flagDistance, "distance", 5, "price offset for limit/stop strategies")
	runCmd.PersistentFlags().IntVar(&flagFastPeriod, "fast-period", 10, "fast EMA period")
	runCmd.PersistentFlags().IntVar(&flagSlowPeriod, "slow-period", 30, "slow EMA period")
	runCmd.PersistentFlags().IntVar(&flagWarmupBars, "warmup-bars", 30, "warm-up bar count")

	runCmd.AddCommand(
		newBacktestCmd(),
		newPaperCmd(),
	)
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBacktestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "run a historical backtest against local files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRunConfig()
			if err != nil {
				return err
			}

			resolution, err := parseResolution(flagResolution)
			if err != nil {
				return err
			}
			algo, err := buildStrategy(flagStrategy, strategyParams{
				Symbol: flagSymbol, Market: flagMarket, Resolution: resolution,
				Quantity: flagQuantity, Fraction: flagFraction, Distance: flagDistance,
				FastPeriod: flagFastPeriod, SlowPeriod: flagSlowPeriod, WarmupBars: flagWarmupBars,
			})
			if err != nil {
				return err
			}

			provider := newCSVDataProvider(cfg.DataDir)
			eng := engine.New(cfg, algo, provider, log)

			result, err := eng.Run()
			if err != nil {
				return fmt.Errorf("backtest failed: %w", err)
			}

			log.Info().
				Str("finalEquity", result.Statistics["finalEquity"]).
				Str("totalReturn", result.Statistics["totalReturn"]).
				Int("orders", len(result.Orders)).
				Msg("backtest complete")

			if cfg.S3Bucket != "" {
				if err := archiveResult(cmd.Context(), cfg, log); err != nil {
					log.Warn().Err(err).Msg("result archival failed")
				}
			}
			return nil
		},
	}
}

func newPaperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paper",
		Short: "replay local data files with a read-only status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRunConfig()
			if err != nil {
				return err
			}

			resolution, err := parseResolution(flagResolution)
			if err != nil {
				return err
			}
			algo, err := buildStrategy(flagStrategy, strategyParams{
				Symbol: flagSymbol, Market: flagMarket, Resolution: resolution,
				Quantity: flagQuantity, Fraction: flagFraction, Distance: flagDistance,
				FastPeriod: flagFastPeriod, SlowPeriod: flagSlowPeriod, WarmupBars: flagWarmupBars,
			})
			if err != nil {
				return err
			}

			provider := newCSVDataProvider(cfg.DataDir)
			eng := engine.New(cfg, algo, provider, log)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			apiAddr := fmt.Sprintf("%s:%d", cfg.LiveAPIHost, cfg.LiveAPIPort)
			apiSrv := api.New(apiAddr, eng, log)
			go func() {
				if err := apiSrv.ListenAndServe(); err != nil {
					log.Error().Err(err).Msg("status API stopped")
				}
			}()
			log.Info().Str("addr", apiAddr).Msg("status API listening")

			monitor, err := diagnostics.New(30*time.Second, diagnostics.DefaultThresholds, log)
			if err != nil {
				log.Warn().Err(err).Msg("diagnostics monitor unavailable")
			} else {
				go monitor.Run(ctx)
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			runErrCh := make(chan error, 1)
			go func() {
				_, err := eng.Run()
				runErrCh <- err
			}()

			select {
			case <-quit:
				log.Info().Msg("shutdown signal received")
			case err := <-runErrCh:
				if err != nil {
					log.Error().Err(err).Msg("run ended with error")
				}
			}

			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return apiSrv.Shutdown(shutdownCtx)
		},
	}
}

func loadRunConfig() (*config.RunConfig, zerolog.Logger, error) {
	cfg, err := config.Load(flagDataDir)
	if err != nil {
		log := logger.New(logger.Config{Level: "info", Pretty: true})
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, log, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	return cfg, log, nil
}

func archiveResult(ctx context.Context, cfg *config.RunConfig, log zerolog.Logger) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return fmt.Errorf("archiveResult: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	archiver := backup.New(client, cfg.S3Bucket, "results/", log)

	resultPath := filepath.Join(cfg.ResultsDir, "result.json")
	key, err := archiver.UploadResult(ctx, resultPath, time.Now())
	if err != nil {
		return fmt.Errorf("archiveResult: %w", err)
	}
	log.Info().Str("key", key).Msg("result archived to S3")
	return nil
}
