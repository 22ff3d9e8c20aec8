package sampledata

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/campaignboard/pkg/logger"
)

// SetupLogging initializes the logger on w; verbose lowers the level to debug.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the sample data tool.
func ShowHelp() {
	os.Stdout.WriteString(`Campaignboard Sample Data
=========================

Writes synthetic exports for the stock dashboard pages: nb2.csv,
ME_Users.csv, Ranked_LW.csv and modes_playtime.csv.

Usage:
  go run ./cmd/sampledata [options]

Options:
  -out string
        Output directory (default "data")
  -years string
        Years to cover, "2023,2024" or "2022-2025" (default "2023-2025")
  -seed int
        Seed for the value noise (default 1)
  -verbose
        Log every written file
  -help
        Show this help message

Examples:
  # Write three years into ./data
  go run ./cmd/sampledata

  # Then serve them
  CAMPAIGNBOARD_DATA_DIR=data go run ./cmd serve
`)
}
