package sampledata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/campaignboard/pkg/logger"
)

// Run writes every export into config.OutDir and returns what it wrote.
func Run(ctx context.Context, config *Config) ([]File, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	logger.Get().Info(ctx, "generating sample data",
		logger.String("outDir", config.OutDir),
		logger.Any("years", config.Years),
		logger.Int64("seed", config.Seed))

	if err := os.MkdirAll(config.OutDir, directoryPermission); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	g := newGenerator(config.Seed)
	files := make([]File, 0, len(tables()))
	for _, t := range tables() {
		select {
		case <-ctx.Done():
			return files, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		default:
		}

		records := g.records(t, config.Years)
		path := filepath.Join(config.OutDir, t.file)
		if err := writeCSV(path, records); err != nil {
			return files, err
		}
		f := File{Path: path, Rows: len(records) - 1, Columns: len(records[0])}
		files = append(files, f)

		if config.Verbose {
			logger.Get().Info(ctx, "wrote sample file",
				logger.String("path", f.Path),
				logger.Int("rows", f.Rows),
				logger.Int("columns", f.Columns))
		}
	}

	logger.Get().Info(ctx, "sample data generated",
		logger.Int("files", len(files)),
		logger.String("duration", time.Since(start).String()))
	return files, nil
}

// writeCSV stores records, header first, as a frame of text columns.
func writeCSV(path string, records [][]string) error {
	header := records[0]
	cols := make([]series.Series, len(header))
	for c, name := range header {
		cells := make([]string, len(records)-1)
		for r := range cells {
			cells[r] = records[r+1][c]
		}
		cols[c] = series.New(cells, series.String, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return fmt.Errorf("failed to build %s: %w", path, df.Err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := df.WriteCSV(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
