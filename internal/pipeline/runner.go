// Package pipeline wires the acquisition, history, scoring, selection and
// evaluation stages into one run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avaldes/gainers/internal/backtest"
	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/export"
	"github.com/avaldes/gainers/internal/external/yahoo"
	"github.com/avaldes/gainers/internal/gainers"
	"github.com/avaldes/gainers/internal/history"
	"github.com/avaldes/gainers/internal/risk"
	"github.com/avaldes/gainers/internal/selection"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/httputil"
	"github.com/avaldes/gainers/pkg/logger"
)

// Result collects the outputs of one full pipeline run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	List      contracts.RankedList
	Table     *history.Table
	Scores    []contracts.ScoreRecord
	Selection contracts.Selection
	Backtest  backtest.Result

	BatchFailures []history.BatchError
	Artifacts     []string
}

// Runner executes the pipeline end to end.
type Runner struct {
	cfg *config.Config
	log *logger.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		cfg: cfg,
		log: log.WithField("component", "pipeline"),
	}
}

// Run executes the full pipeline and writes artifacts into the configured
// output directory.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunInto(ctx, r.cfg.OutputDir)
}

// RunInto executes the full pipeline and writes artifacts into dir. A
// mandatory list page failure or a too-short price history aborts the run;
// per-batch history failures only leave columns missing.
func (r *Runner) RunInto(ctx context.Context, dir string) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := r.log.WithField("run_id", res.RunID)
	log.WithField("output_dir", dir).Info("Pipeline run started")

	client := httputil.New(r.cfg, log)
	session := yahoo.NewSession(client, log, r.cfg.List.RowWait)
	defer session.Close()

	list, err := gainers.NewAcquirer(session, r.cfg.List, log).Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire gainers list: %w", err)
	}
	res.List = list

	table, scores, failures, err := r.scoreSymbols(ctx, client, log, list.Symbols(), list.Names())
	if err != nil {
		return nil, err
	}
	res.Table = table
	res.Scores = scores
	res.BatchFailures = failures

	res.Selection = selection.NewSelector(r.cfg.Rank.SelectionSize, log).Select(scores)
	res.Backtest = backtest.NewEvaluator(r.cfg.Rank, log).Evaluate(table, res.Selection)

	writer := export.NewWriter(dir, log)
	path, err := writer.WriteRankedList(list)
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, path)

	path, err = writer.WriteHistory(table, list.Names())
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, path)

	paths, err := writer.WritePortfolio(res.Selection, res.Backtest)
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, paths...)

	res.Duration = time.Since(res.StartedAt)
	log.WithFields(map[string]interface{}{
		"symbols":        len(list.Entries),
		"scored":         len(scores),
		"selected":       len(res.Selection.Records),
		"batch_failures": len(failures),
		"duration":       res.Duration.String(),
	}).Info("Pipeline run completed")
	return res, nil
}

// RunList executes only the list acquisition and writes gainers.csv.
func (r *Runner) RunList(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := r.log.WithField("run_id", res.RunID)

	client := httputil.New(r.cfg, log)
	session := yahoo.NewSession(client, log, r.cfg.List.RowWait)
	defer session.Close()

	list, err := gainers.NewAcquirer(session, r.cfg.List, log).Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire gainers list: %w", err)
	}
	res.List = list

	path, err := export.NewWriter(r.cfg.OutputDir, log).WriteRankedList(list)
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, path)
	res.Duration = time.Since(res.StartedAt)
	return res, nil
}

// RunHistory fetches and exports the trailing price window for an explicit
// symbol set.
func (r *Runner) RunHistory(ctx context.Context, symbols []string) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := r.log.WithField("run_id", res.RunID)

	client := httputil.New(r.cfg, log)
	defer client.CloseIdleConnections()

	chart := yahoo.NewChartClient(client, log, r.cfg.History.ChartURL)
	table, failures := history.NewFetcher(chart, r.cfg.History, log).Fetch(ctx, symbols)
	res.Table = table
	res.BatchFailures = failures

	names := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		names[sym] = sym
	}
	path, err := export.NewWriter(r.cfg.OutputDir, log).WriteHistory(table, names)
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, path)
	res.Duration = time.Since(res.StartedAt)
	return res, nil
}

func (r *Runner) scoreSymbols(
	ctx context.Context,
	client *httputil.Client,
	log *logger.Logger,
	symbols []string,
	names map[string]string,
) (*history.Table, []contracts.ScoreRecord, []history.BatchError, error) {
	chart := yahoo.NewChartClient(client, log, r.cfg.History.ChartURL)
	table, failures := history.NewFetcher(chart, r.cfg.History, log).Fetch(ctx, symbols)
	for _, f := range failures {
		log.WithFields(map[string]interface{}{
			"symbols": f.Symbols,
			"error":   f.Err.Error(),
		}).Warn("History batch skipped")
	}

	scores, err := risk.NewCalculator(r.cfg.Rank, log).Score(table, names)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("score symbols: %w", err)
	}
	return table, scores, failures, nil
}
