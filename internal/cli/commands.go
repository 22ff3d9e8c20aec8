package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/campaignboard/internal/adapters/render"
	service "github.com/okian/campaignboard/internal/app"
	"github.com/okian/campaignboard/internal/domain/types"
)

const defaultInspectRows = 10

func (c *CLI) newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the configured pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), func(svc *service.Service) error {
				return c.reporter.Pages(svc.Pages(cmd.Context()))
			})
		},
	}
}

func (c *CLI) newInspectCmd() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "inspect <page>",
		Short: "Show the shape, column kinds and first rows of a page's cleaned data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withService(ctx, func(svc *service.Service) error {
				detail, err := svc.Page(ctx, args[0])
				if err != nil {
					return err
				}
				preview, err := svc.Preview(ctx, args[0], 0, rows)
				if err != nil {
					return err
				}
				return c.reporter.Inspect(detail, preview)
			})
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultInspectRows, "Number of rows to show")
	return cmd
}

// selectionFlags holds the chart selection of render and export.
type selectionFlags struct {
	metric  string
	regions []string
	years   []int
	modes   []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.metric, "metric", "", "Metric to chart (default: the page's first metric)")
	cmd.Flags().StringArrayVar(&f.regions, "region", nil, "Region to include, repeatable (default: all)")
	cmd.Flags().IntSliceVar(&f.years, "year", nil, "Years to include (default: all)")
	cmd.Flags().StringArrayVar(&f.modes, "mode", nil, "Match mode to include, repeatable (default: the page defaults)")
}

// query turns the flags into a selection. A flag that was not given keeps
// the page default; one given with no values selects nothing.
func (f *selectionFlags) query(cmd *cobra.Command) types.SelectionQuery {
	q := types.SelectionQuery{Metric: f.metric}
	if cmd.Flags().Changed("region") {
		q.Regions = nonEmpty(f.regions)
	}
	if cmd.Flags().Changed("year") {
		q.Years = append([]int{}, f.years...)
	}
	if cmd.Flags().Changed("mode") {
		q.Modes = nonEmpty(f.modes)
	}
	return q
}

func (c *CLI) newRenderCmd() *cobra.Command {
	var (
		sel    selectionFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "render <page>",
		Short: "Render a page's chart to a PNG or SVG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + "." + string(f)
			}
			ctx := cmd.Context()
			return c.withService(ctx, func(svc *service.Service) error {
				return c.writeFile(out, func(w io.Writer) error {
					return svc.Render(ctx, args[0], sel.query(cmd), f, w)
				})
			})
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(render.FormatPNG), "Image format: png or svg")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <page>.<format>)")
	return cmd
}

func (c *CLI) newExportCmd() *cobra.Command {
	var (
		sel selectionFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export <page>",
		Short: "Export a page's cleaned data and chart points to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = args[0] + ".xlsx"
			}
			ctx := cmd.Context()
			return c.withService(ctx, func(svc *service.Service) error {
				return c.writeFile(out, func(w io.Writer) error {
					return svc.Export(ctx, args[0], sel.query(cmd), w)
				})
			})
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <page>.xlsx)")
	return cmd
}

// withService runs fn against a started one-shot service.
func (c *CLI) withService(ctx context.Context, fn func(*service.Service) error) error {
	svc, err := c.oneShot(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()
	return fn(svc)
}

// writeFile writes through a temporary file so a failed command leaves no
// partial output behind.
func (c *CLI) writeFile(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return c.reporter.Wrote(path, info.Size())
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
