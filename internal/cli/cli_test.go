package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/campaignboard/internal/adapters/render"
	service "github.com/okian/campaignboard/internal/app"
	"github.com/okian/campaignboard/internal/cli"
	"github.com/smartystreets/goconvey/convey"
)

const dauCSV = `Date,Region,Users,Retention
2023-01-15,MEA,"1,200",40%
2024-01-15,MEA,1300,45%
2024-01-16,EU,900,
`

func writeWorkspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dau.csv"), []byte(dauCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	cfg := "data_dir: " + dir + `
refresh_schedule: ""
pages:
  - id: dau
    title: Daily users
    source: dau.csv
    identifiers: [Date, Region]
    region_column: Region
    campaigns: [nb1]
`
	cfgPath := filepath.Join(dir, "campaignboard.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir, cfgPath
}

func run(cfgPath string, args ...string) (string, error) {
	var out bytes.Buffer
	c := cli.New(cli.Options{Output: &out, LogOutput: io.Discard, EnvFiles: []string{}})
	err := c.Execute(context.Background(), append([]string{"--config", cfgPath}, args...))
	return out.String(), err
}

func TestCLI(t *testing.T) {
	convey.Convey("Given a config with one page", t, func() {
		dir, cfgPath := writeWorkspace(t)

		convey.Convey("When listing pages", func() {
			out, err := run(cfgPath, "pages")

			convey.Convey("Then the page is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "ID")
				convey.So(out, convey.ShouldContainSubstring, "Daily users")
				convey.So(out, convey.ShouldContainSubstring, filepath.Join(dir, "dau.csv"))
			})
		})

		convey.Convey("When inspecting the page", func() {
			out, err := run(cfgPath, "inspect", "dau", "--rows", "2")

			convey.Convey("Then the shape, kinds and rows are printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Shape:    3 rows x 6 columns")
				convey.So(out, convey.ShouldContainSubstring, "Missing:  1 cells")
				convey.So(out, convey.ShouldContainSubstring, "Years:    2023, 2024")
				convey.So(out, convey.ShouldContainSubstring, "Regions:  MEA, EU")
				convey.So(out, convey.ShouldContainSubstring, "percent")
				convey.So(out, convey.ShouldContainSubstring, "First 2 of 3 rows:")
				convey.So(out, convey.ShouldContainSubstring, "1,200")
			})
		})

		convey.Convey("When inspecting an unknown page", func() {
			_, err := run(cfgPath, "inspect", "nope")

			convey.Convey("Then the page is not found", func() {
				convey.So(errors.Is(err, service.ErrPageNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When rendering to a file", func() {
			target := filepath.Join(dir, "out.png")
			out, err := run(cfgPath, "render", "dau", "--metric", "Retention", "--year", "2024", "--out", target)

			convey.Convey("Then a PNG is written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "wrote "+target)
				b, readErr := os.ReadFile(target)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(b[:4], convey.ShouldResemble, []byte("\x89PNG"))
			})
		})

		convey.Convey("When rendering an unknown format", func() {
			_, err := run(cfgPath, "render", "dau", "--format", "gif", "--out", filepath.Join(dir, "out.gif"))

			convey.Convey("Then it fails before writing", func() {
				convey.So(errors.Is(err, render.ErrUnknownFormat), convey.ShouldBeTrue)
				_, statErr := os.Stat(filepath.Join(dir, "out.gif"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When rendering an unknown metric", func() {
			target := filepath.Join(dir, "bad.png")
			_, err := run(cfgPath, "render", "dau", "--metric", "Revenue", "--out", target)

			convey.Convey("Then no partial file is left", func() {
				convey.So(errors.Is(err, service.ErrUnknownMetric), convey.ShouldBeTrue)
				_, statErr := os.Stat(target)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When exporting", func() {
			target := filepath.Join(dir, "dau.xlsx")
			_, err := run(cfgPath, "export", "dau", "--region", "MEA", "--out", target)

			convey.Convey("Then a workbook is written", func() {
				convey.So(err, convey.ShouldBeNil)
				b, readErr := os.ReadFile(target)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(b[:2], convey.ShouldResemble, []byte("PK"))
			})
		})

		convey.Convey("When the config file is missing", func() {
			_, err := run(filepath.Join(dir, "missing.yaml"), "pages")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
