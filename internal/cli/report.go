package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/campaignboard/internal/domain/types"
)

// TableConfig sets the column widths of reports.
type TableConfig struct {
	IDWidth     int
	TitleWidth  int
	ColumnWidth int
	CellWidth   int
}

// DefaultTableConfig returns the widths used on a terminal.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		IDWidth:     12,
		TitleWidth:  44,
		ColumnWidth: 28,
		CellWidth:   14,
	}
}

// Reporter prints command results as text.
type Reporter struct {
	writer  io.Writer
	config  TableConfig
	printer *message.Printer
}

// NewReporter creates a reporter writing to writer.
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer:  writer,
		config:  DefaultTableConfig(),
		printer: message.NewPrinter(language.English),
	}
}

const pagesTemplate = `{{row "ID" "TITLE" "SOURCE"}}
{{range .}}{{row .ID .Title .Source}}
{{end}}`

const inspectTemplate = `{{.Detail.Title}} ({{.Detail.ID}})
Source:   {{.Detail.Source}}
Shape:    {{count .Detail.Rows}} rows x {{.Detail.Columns}} columns
Missing:  {{count .Detail.MissingCells}} cells
Years:    {{ints .Detail.Controls.Years}}
Metrics:  {{strings .Detail.Controls.Metrics}}
{{- if .Detail.Controls.Regions}}
Regions:  {{strings .Detail.Controls.Regions}}{{end}}
{{- if .Detail.Controls.Modes}}
Modes:    {{strings .Detail.Controls.Modes}} (default {{strings .Detail.Controls.DefaultModes}}){{end}}

Columns:
{{range .Detail.Schema}}  {{column .Name}} {{.Kind}}
{{end}}
First {{len .Preview.Rows}} of {{count .Preview.Total}} rows:
{{header .Preview.Columns}}
{{range .Preview.Rows}}{{cells .}}
{{end}}`

// Pages prints the page list.
func (r *Reporter) Pages(pages []types.PageSummary) error {
	return r.execute("pages", pagesTemplate, pages)
}

// Inspect prints a page's shape, columns and first rows.
func (r *Reporter) Inspect(detail types.PageDetail, preview types.Preview) error {
	return r.execute("inspect", inspectTemplate, struct {
		Detail  types.PageDetail
		Preview types.Preview
	}{detail, preview})
}

// Wrote prints a one-line confirmation for a written file.
func (r *Reporter) Wrote(path string, bytes int64) error {
	_, err := r.printer.Fprintf(r.writer, "wrote %s (%d bytes)\n", path, bytes)
	return err
}

func (r *Reporter) execute(name, text string, data any) error {
	t, err := template.New(name).Funcs(r.funcs()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(r.writer, data)
}

func (r *Reporter) funcs() template.FuncMap {
	c := r.config
	return template.FuncMap{
		"row": func(id, title, source string) string {
			return strings.TrimRight(fmt.Sprintf("%-*s %-*s %s", c.IDWidth, id, c.TitleWidth, title, source), " ")
		},
		"count": func(n int) string {
			return r.printer.Sprintf("%d", n)
		},
		"column": func(name string) string {
			return fmt.Sprintf("%-*s", c.ColumnWidth, name)
		},
		"ints": func(v []int) string {
			parts := make([]string, len(v))
			for i, n := range v {
				parts[i] = strconv.Itoa(n)
			}
			return strings.Join(parts, ", ")
		},
		"strings": func(v []string) string {
			return strings.Join(v, ", ")
		},
		"header": func(cols []types.ColumnInfo) string {
			parts := make([]string, len(cols))
			for i, col := range cols {
				parts[i] = fit(col.Name, c.CellWidth)
			}
			return strings.TrimRight(strings.Join(parts, " "), " ")
		},
		"cells": func(row []any) string {
			parts := make([]string, len(row))
			for i, v := range row {
				parts[i] = fit(r.cell(v), c.CellWidth)
			}
			return strings.TrimRight(strings.Join(parts, " "), " ")
		},
	}
}

// cell formats one preview value. Missing values print empty.
func (r *Reporter) cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return r.printer.Sprintf("%v", x)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func fit(s string, width int) string {
	if len(s) > width {
		if width <= 1 {
			return s[:width]
		}
		return s[:width-1] + "~"
	}
	return fmt.Sprintf("%-*s", width, s)
}
