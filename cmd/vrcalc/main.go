// Command vrcalc runs the benefit engine once over a directory of source
// spreadsheets and writes the monthly workbook.
//
//	vrcalc -dir ./planilhas -start 2025-04-15 -end 2025-05-15 -out ./out
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/warp/benefit-engine/benefit"
	"github.com/warp/benefit-engine/config"
	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/logging"
	"github.com/warp/benefit-engine/report"
	"github.com/warp/benefit-engine/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vrcalc:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		dir        = flag.String("dir", ".", "directory holding the source spreadsheets")
		start      = flag.String("start", "", "period start (YYYY-MM-DD)")
		end        = flag.String("end", "", "period end (YYYY-MM-DD)")
		competence = flag.String("competence", "", "competence label MM/YYYY (default: month of -end)")
		out        = flag.String("out", ".", "output directory for the workbook")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *start != "" {
		cfg.Benefit.PeriodStart = *start
	}
	if *end != "" {
		cfg.Benefit.PeriodEnd = *end
	}
	if *competence != "" {
		cfg.Benefit.Competence = *competence
	}
	period, ok, err := cfg.Period()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: -start and -end are required", generic.ErrInvalidPeriod)
	}

	logCfg := cfg.Logging()
	if logCfg.Format == "" || logCfg.Format == "json" {
		logCfg.Format = "console"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	regions, err := cfg.Regions()
	if err != nil {
		return err
	}

	bundle, skipped, err := source.LoadDir(*dir)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		logger.Warn("file does not match any dataset", zap.String("file", name))
	}
	for kind, file := range bundle.Files() {
		logger.Info("source loaded", zap.String("source", kind), zap.String("file", file))
	}
	batches, err := bundle.Batches()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := benefit.NewEngine(cfg.Rules(period), regions, benefit.WithLogger(logger))
	result, err := engine.Run(ctx, batches)
	if err != nil {
		return err
	}

	label := cfg.Competence(period)
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	path := filepath.Join(*out, report.FileName(label))
	if err := report.WriteFile(path, result.Records, label); err != nil {
		return err
	}

	logger.Info("workbook written",
		zap.String("path", path),
		zap.Int("employees", result.Summary.Employees),
		zap.String("total", report.FormatBRL(result.Summary.Total)),
		zap.String("employer_cost", report.FormatBRL(result.Summary.EmployerCost)),
		zap.String("employee_cost", report.FormatBRL(result.Summary.EmployeeCost)),
	)
	return nil
}
