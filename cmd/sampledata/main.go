package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/campaignboard/internal/sampledata"
)

// Default configuration constants.
const (
	defaultOutDir = "data"
	defaultYears  = "2023-2025"
	defaultSeed   = 1
)

func main() {
	var (
		outDir  = flag.String("out", defaultOutDir, "Output directory")
		years   = flag.String("years", defaultYears, `Years to cover, "2023,2024" or "2022-2025"`)
		seed    = flag.Int64("seed", defaultSeed, "Seed for the value noise")
		verbose = flag.Bool("verbose", false, "Log every written file")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sampledata.ShowHelp()
		return
	}

	if err := sampledata.SetupLogging(os.Stderr, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	parsed, err := sampledata.ParseYears(*years)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &sampledata.Config{
		OutDir:  *outDir,
		Years:   parsed,
		Seed:    *seed,
		Verbose: *verbose,
	}
	if _, err := sampledata.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
