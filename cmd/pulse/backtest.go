package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/backtest"
	"github.com/newthinker/pulse/internal/chart"
	"github.com/newthinker/pulse/internal/logger"
)

var (
	backtestForm backtest.Form
	backtestOut  string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest on the backend and write its charts",
	Long: `Run a backtest on the backend and write the price and equity charts
as a standalone HTML page. Empty flags take the same defaults as the web form.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestForm.Symbol, "symbol", "", "symbol to backtest (default "+backtest.DefaultSymbol+")")
	f.StringVar(&backtestForm.Interval, "interval", "", "candle interval (default "+backtest.DefaultInterval+")")
	f.StringVar(&backtestForm.ShortWindow, "short", "", "short SMA window (default "+strconv.Itoa(backtest.DefaultShortWindow)+")")
	f.StringVar(&backtestForm.LongWindow, "long", "", "long SMA window (default "+strconv.Itoa(backtest.DefaultLongWindow)+")")
	f.StringVar(&backtestForm.ForecastDays, "forecast-days", "", "forecast horizon in days (default "+strconv.Itoa(backtest.DefaultForecastDays)+")")
	f.StringVar(&backtestForm.Capital, "capital", "", "initial capital (default 10000)")
	f.BoolVar(&backtestForm.Save, "save", false, "ask the backend to save the run and archive the charts")
	f.StringVarP(&backtestOut, "out", "o", "backtest.html", "output HTML file")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	client, err := newBackend(cfg, log)
	if err != nil {
		return err
	}
	store, err := newArchive(cfg, log)
	if err != nil {
		return err
	}
	renderer := newRenderer(client, store, nil, log)

	canvas := chart.NewCanvas()
	alerter := backtest.AlertFunc(func(msg string) {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	defer cancel()

	out, err := renderer.Run(ctx, backtestForm, canvas, alerter)
	if err != nil {
		return err
	}

	f, err := os.Create(backtestOut)
	if err != nil {
		return fmt.Errorf("creating %s: %w", backtestOut, err)
	}
	defer f.Close()

	title := fmt.Sprintf("%s backtest (%s)", out.Request.Symbol, out.Request.Interval)
	if err := chart.WriteHTML(f, title, canvas, out.Result.Metrics); err != nil {
		return fmt.Errorf("writing %s: %w", backtestOut, err)
	}

	log.Info("backtest written",
		zap.String("file", backtestOut),
		zap.String("run_id", out.RunID),
		zap.Int("candles", len(out.Result.Candles)),
	)
	if out.ArchiveKey != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "archived as %s\n", out.ArchiveKey)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", backtestOut)
	return nil
}
