// Package cli implements the campaignboard command line: the HTTP server and
// one-shot commands that inspect, render and export pages.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	service "github.com/okian/campaignboard/internal/app"
	"github.com/okian/campaignboard/internal/config"
	"github.com/okian/campaignboard/pkg/logger"
)

// CLI represents the command-line interface.
type CLI struct {
	out      io.Writer
	logOut   io.Writer
	envFiles []string
	reporter *Reporter

	configPath string
	cfg        *config.Config
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI.
type Options struct {
	// Output receives command results. Defaults to stdout.
	Output io.Writer
	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer
	// EnvFiles are loaded into the environment before configuration.
	// Missing files are skipped. Defaults to ".env".
	EnvFiles []string
}

// New creates a CLI instance.
func New(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.EnvFiles == nil {
		opts.EnvFiles = []string{".env"}
	}

	c := &CLI{
		out:      opts.Output,
		logOut:   opts.LogOutput,
		envFiles: opts.EnvFiles,
		reporter: NewReporter(opts.Output),
	}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the command line with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "campaignboard",
		Short:         "Year-over-year campaign dashboards over CSV exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.logOut)

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "",
		"Path to a YAML config file (default $"+config.EnvConfig+")")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newPagesCmd())
	cmd.AddCommand(c.newInspectCmd())
	cmd.AddCommand(c.newRenderCmd())
	cmd.AddCommand(c.newExportCmd())
	return cmd
}

// setup loads .env files and configuration and initializes logging.
func (c *CLI) setup(ctx context.Context) error {
	for _, f := range c.envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if err := logger.Init(logger.WithWriter(c.logOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// oneShot starts a service without background refresh for a single command.
func (c *CLI) oneShot(ctx context.Context) (*service.Service, error) {
	opts := append(service.FromConfig(c.cfg),
		service.WithLogger(logger.Named("service")),
		service.WithWatchFiles(false),
		service.WithRefreshSchedule(""),
		service.WithPreload(false),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
