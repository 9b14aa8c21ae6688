package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	registryapp "github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/datadik/portal/internal/infrastructure/csvimport"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		logLevel string
		timeout  time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Import deadline")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: import-schools [flags] <file.csv|file.xlsx> [sheet]")
		flag.PrintDefaults()
	}
	flag.Parse()

	path, sheet, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	reconciler := registryapp.NewReconciler(
		persistence.NewGormOrganizationRepository(db.DB),
		persistence.NewGormSchoolDataRepository(db.DB),
		log,
	)
	importer := registryapp.NewImportService(reconciler, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := importFile(ctx, importer, path, sheet)
	if err != nil && result == nil {
		log.Fatal("Import failed", zap.String("path", path), zap.Error(err))
	}

	for _, rowErr := range result.Errors {
		log.Warn("Row skipped",
			zap.Int("row", rowErr.Row),
			zap.String("column", rowErr.Column),
			zap.String("message", rowErr.Message),
		)
	}
	log.Info("Import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("created", result.CreatedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("errors", result.ErrorRows),
		zap.Bool("truncated", result.IsTruncated),
	)
	if err != nil {
		log.Fatal("Import interrupted", zap.Error(err))
	}
	if result.ErrorRows > 0 {
		os.Exit(2)
	}
}

type rosterImporter interface {
	Import(ctx context.Context, in io.Reader) (*registryapp.ImportResult, error)
	ImportWorkbook(ctx context.Context, in io.Reader, sheet string) (*registryapp.ImportResult, error)
}

func parseArgs(args []string) (path, sheet string, err error) {
	switch len(args) {
	case 1:
		path = args[0]
	case 2:
		path, sheet = args[0], args[1]
	default:
		return "", "", errors.New("expected a roster file and an optional sheet name")
	}
	if sheet != "" && !csvimport.IsWorkbookName(path) {
		return "", "", fmt.Errorf("sheet %q given for non-xlsx file %s", sheet, path)
	}
	return path, sheet, nil
}

// importFile picks the reader from the file extension
func importFile(ctx context.Context, imp rosterImporter, path, sheet string) (*registryapp.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if csvimport.IsWorkbookName(path) {
		return imp.ImportWorkbook(ctx, f, sheet)
	}
	return imp.Import(ctx, f)
}
