package dataset_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/campaignboard/internal/domain/dataset"
	"github.com/okian/campaignboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const campaignCSV = ` Date , Region , A1 ,New User, C7 Rate
2023-08-05, MEA ,50%,"1,234",12.5%
2024-08-05,MEA,60%,"2,000",
not a date,MEA,70%,abc,1%
2024-01-10,EU,n/a,300,7%
`

func parse(text string, opts ...dataset.Option) *model.Dataset {
	ds, err := dataset.Parse(context.Background(), strings.NewReader(text), dataset.NewSchema(opts...))
	So(err, ShouldBeNil)
	return ds
}

func TestParse(t *testing.T) {
	Convey("Given a campaign export with percent and thousands separators", t, func() {
		ds := parse(campaignCSV)

		Convey("Then headers are trimmed and derived columns appended", func() {
			names := make([]string, 0, len(ds.Columns))
			for _, c := range ds.Columns {
				names = append(names, c.Name)
			}
			So(names, ShouldResemble, []string{"Date", "Region", "A1", "New User", "C7 Rate", "Year", "CalendarKey"})
		})

		Convey("Then percent columns are detected and stored as fractions", func() {
			a1, _ := ds.Column("A1")
			c7, _ := ds.Column("C7 Rate")
			nu, _ := ds.Column("New User")
			So(a1.Kind, ShouldEqual, model.KindPercent)
			So(c7.Kind, ShouldEqual, model.KindPercent)
			So(nu.Kind, ShouldEqual, model.KindNumeric)
			So(ds.Records[0].Value("A1"), ShouldAlmostEqual, 0.5)
			So(ds.Records[1].Value("A1"), ShouldAlmostEqual, 0.6)
			So(ds.Records[0].Value("C7 Rate"), ShouldAlmostEqual, 0.125)
			So(math.IsNaN(ds.Records[1].Value("C7 Rate")), ShouldBeTrue)
		})

		Convey("Then every percent value lies in [0,1] or is missing", func() {
			for _, r := range ds.Records {
				for _, name := range []string{"A1", "C7 Rate"} {
					v := r.Value(name)
					if !math.IsNaN(v) {
						So(v, ShouldBeBetweenOrEqual, 0.0, 1.0)
					}
				}
			}
		})

		Convey("Then thousands separators are tolerated", func() {
			So(ds.Records[0].Value("New User"), ShouldEqual, 1234.0)
			So(ds.Records[1].Value("New User"), ShouldEqual, 2000.0)
			So(math.IsNaN(ds.Records[2].Value("New User")), ShouldBeTrue)
		})

		Convey("Then identifiers keep their trimmed text", func() {
			So(ds.Records[0].Label("Region"), ShouldEqual, "MEA")
			So(ds.Records[3].Label("Region"), ShouldEqual, "EU")
		})

		Convey("Then Year and CalendarKey follow the date", func() {
			So(ds.Records[0].Year, ShouldEqual, 2023)
			So(ds.Records[1].Year, ShouldEqual, 2024)
			So(ds.Records[0].Key, ShouldResemble, ds.Records[1].Key)
			So(ds.Records[0].Key.String(), ShouldEqual, "2000-08-05")
			for _, r := range ds.Records {
				if r.HasDate() {
					So(r.Year, ShouldEqual, r.Date.Year())
				}
			}
		})

		Convey("Then an unparseable date is kept with missing Date, Year and CalendarKey", func() {
			So(len(ds.Records), ShouldEqual, 4)
			bad := ds.Records[2]
			So(bad.HasDate(), ShouldBeFalse)
			So(bad.Year, ShouldEqual, 0)
			So(bad.Key.Valid(), ShouldBeFalse)
			So(bad.RawDate, ShouldEqual, "not a date")
			So(bad.Value("A1"), ShouldAlmostEqual, 0.7)
		})

		Convey("Then missing cells are counted", func() {
			// bad date, blank C7 Rate, "abc", "n/a"
			So(ds.MissingCells, ShouldEqual, 4)
		})
	})

	Convey("Given the same text parsed twice", t, func() {
		a := parse(campaignCSV)
		b := parse(campaignCSV)

		Convey("Then the cleaned tables are identical", func() {
			ta := dataset.Preview(a, 0, 100)
			tb := dataset.Preview(b, 0, 100)
			So(ta.Rows, ShouldResemble, tb.Rows)
			So(a.Columns, ShouldResemble, b.Columns)
		})
	})

	Convey("Given explicit percent columns", t, func() {
		ds := parse(campaignCSV, dataset.WithPercentColumns("A1"))

		Convey("Then only those are divided by 100", func() {
			c7, _ := ds.Column("C7 Rate")
			So(c7.Kind, ShouldEqual, model.KindNumeric)
			So(ds.Records[0].Value("A1"), ShouldAlmostEqual, 0.5)
			So(math.IsNaN(ds.Records[0].Value("C7 Rate")), ShouldBeTrue)
		})
	})

	Convey("Given extra identifier columns", t, func() {
		text := "Date,Region,Match Mode,R2\n2024-02-01,MEA,Ranking Match,40%\n"
		ds := parse(text, dataset.WithIdentifiers("Region", "Match Mode"))

		Convey("Then they are not coerced", func() {
			mm, _ := ds.Column("Match Mode")
			So(mm.Kind, ShouldEqual, model.KindIdentifier)
			So(ds.Records[0].Label("Match Mode"), ShouldEqual, "Ranking Match")
		})
	})

	Convey("Given a source that already has a Year column", t, func() {
		ds := parse("Date,Year,A1\n2024-02-01,1999,3\n", dataset.WithIdentifiers())

		Convey("Then the derived Year wins", func() {
			So(ds.Records[0].Year, ShouldEqual, 2024)
			count := 0
			for _, c := range ds.Columns {
				if c.Name == "Year" {
					count++
				}
			}
			So(count, ShouldEqual, 1)
		})
	})

	Convey("Given duplicated and blank headers", t, func() {
		ds := parse("Date,A1,A1,\n2024-02-01,1,2,3\n")

		Convey("Then names are made unique", func() {
			_, ok := ds.Column("A1.1")
			So(ok, ShouldBeTrue)
			_, ok = ds.Column("Unnamed: 3")
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given ragged rows", t, func() {
		ds := parse("Date,Region,A1\n2024-02-01,MEA\n2024-02-02,MEA,5,extra\n")

		Convey("Then short rows read as missing and long rows are cut", func() {
			So(math.IsNaN(ds.Records[0].Value("A1")), ShouldBeTrue)
			So(ds.Records[1].Value("A1"), ShouldEqual, 5.0)
		})
	})

	Convey("Given broken sources", t, func() {
		ctx := context.Background()

		Convey("When the text is empty", func() {
			_, err := dataset.Parse(ctx, strings.NewReader(""), dataset.NewSchema())
			So(errors.Is(err, dataset.ErrEmptySource), ShouldBeTrue)
		})

		Convey("When there is no date column", func() {
			_, err := dataset.Parse(ctx, strings.NewReader("Day,A1\n1,2\n"), dataset.NewSchema())
			So(errors.Is(err, dataset.ErrMissingDateColumn), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := dataset.Parse(cctx, strings.NewReader(campaignCSV), dataset.NewSchema())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestRead(t *testing.T) {
	Convey("Given a CSV on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb2.csv")
		So(os.WriteFile(path, []byte(campaignCSV), 0o600), ShouldBeNil)

		Convey("When read", func() {
			ds, err := dataset.Read(context.Background(), path, dataset.NewSchema())

			Convey("Then the source metadata is recorded", func() {
				So(err, ShouldBeNil)
				So(ds.Source, ShouldEqual, path)
				So(ds.Size, ShouldEqual, int64(len(campaignCSV)))
				So(ds.ModTime.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the file is missing", func() {
			_, err := dataset.Read(context.Background(), filepath.Join(dir, "nope.csv"), dataset.NewSchema())

			Convey("Then the error is a source-unavailable error", func() {
				So(err, ShouldNotBeNil)
				So(dataset.IsUnavailable(err), ShouldBeTrue)
			})
		})

		Convey("When the path is a directory", func() {
			_, err := dataset.Read(context.Background(), dir, dataset.NewSchema())
			So(dataset.IsUnavailable(err), ShouldBeTrue)
		})
	})
}

func TestParseDate(t *testing.T) {
	Convey("Given date texts in several formats", t, func() {
		want := time.Date(2024, time.August, 5, 0, 0, 0, 0, time.UTC)
		for _, s := range []string{"2024-08-05", "2024/08/05", "08/05/2024", "8/5/2024", "05-Aug-2024", "Aug 5, 2024", "5 August 2024", "20240805", "2024-08-05 00:00:00"} {
			got, ok := dataset.ParseDate(s)
			So(ok, ShouldBeTrue)
			So(got.Equal(want), ShouldBeTrue)
		}

		Convey("Then date-times with fractions and zone offsets keep their date", func() {
			for _, s := range []string{
				"2024-08-05 15:04:05-07:00",
				"2024-08-05 15:04:05.250+03:00",
				"2024-08-05T15:04:05.000",
				"2024-08-05 15:04:05.123456",
				"2024-08-05T15:04:05.5Z",
				"2024-08-05T15:04:05-0700",
				"2024-08-05 15:04:05+0200",
			} {
				got, ok := dataset.ParseDate(s)
				So(ok, ShouldBeTrue)
				y, m, d := got.Date()
				So([]int{y, int(m), d}, ShouldResemble, []int{2024, 8, 5})
			}
		})

		Convey("Then junk and blanks are rejected", func() {
			for _, s := range []string{"", "  ", "not a date", "NaN", "2024-13-45"} {
				_, ok := dataset.ParseDate(s)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestParseNumber(t *testing.T) {
	Convey("Given numeric cell texts", t, func() {
		So(dataset.ParseNumber("1,234", false), ShouldEqual, 1234.0)
		So(dataset.ParseNumber(" 12.5 ", false), ShouldEqual, 12.5)
		So(dataset.ParseNumber("45%", true), ShouldAlmostEqual, 0.45)
		So(dataset.ParseNumber("0.3", true), ShouldAlmostEqual, 0.003)
		So(dataset.ParseNumber("1,050.5%", true), ShouldAlmostEqual, 10.505)

		Convey("Then unparseable text becomes NaN", func() {
			for _, s := range []string{"", "-", "NA", "abc", "45%"} {
				So(math.IsNaN(dataset.ParseNumber(s, false)), ShouldBeTrue)
			}
		})
	})
}

func TestOptionLists(t *testing.T) {
	Convey("Given a cleaned dataset", t, func() {
		ds := parse(campaignCSV)

		Convey("Then Distinct keeps first-appearance order", func() {
			So(dataset.Distinct(ds, "Region"), ShouldResemble, []string{"MEA", "EU"})
			So(dataset.Distinct(ds, "Nope"), ShouldBeEmpty)
		})

		Convey("Then a blank identifier is offered as a value", func() {
			blank := parse(campaignCSV + "2024-02-01,,1%,10,2%\n")
			So(dataset.Distinct(blank, "Region"), ShouldResemble, []string{"MEA", "EU", model.BlankLabel})
		})

		Convey("Then Years skips missing dates and sorts", func() {
			So(dataset.Years(ds), ShouldResemble, []int{2023, 2024})
		})

		Convey("Then MetricColumns lists numeric columns minus exclusions", func() {
			So(dataset.MetricColumns(ds, nil), ShouldResemble, []string{"A1", "New User", "C7 Rate"})
			So(dataset.MetricColumns(ds, []string{"New User"}), ShouldResemble, []string{"A1", "C7 Rate"})
		})
	})
}

func TestPreview(t *testing.T) {
	Convey("Given a cleaned dataset", t, func() {
		ds := parse(campaignCSV)

		Convey("When previewing a window", func() {
			tbl := dataset.Preview(ds, 1, 2)

			Convey("Then rows hold typed values with nil for missing", func() {
				So(tbl.Total, ShouldEqual, 4)
				So(len(tbl.Rows), ShouldEqual, 2)
				first := tbl.Rows[0]
				So(first[0], ShouldEqual, "2024-08-05")
				So(first[1], ShouldEqual, "MEA")
				So(first[2], ShouldAlmostEqual, 0.6)
				So(first[4], ShouldBeNil)
				So(first[5], ShouldEqual, 2024)
				So(first[6], ShouldEqual, "2000-08-05")

				bad := tbl.Rows[1]
				So(bad[0], ShouldBeNil)
				So(bad[5], ShouldBeNil)
				So(bad[6], ShouldBeNil)
			})
		})

		Convey("When the window is past the end", func() {
			tbl := dataset.Preview(ds, 10, 5)
			So(tbl.Rows, ShouldBeEmpty)
			So(tbl.Total, ShouldEqual, 4)
		})
	})
}

func TestFrame(t *testing.T) {
	Convey("Given a cleaned dataset", t, func() {
		ds := parse(campaignCSV)

		Convey("Then the frame has every column and row", func() {
			df := dataset.Frame(ds)
			So(df.Err, ShouldBeNil)
			So(df.Nrow(), ShouldEqual, 4)
			So(df.Ncol(), ShouldEqual, 7)
			So(df.Col("A1").Float()[0], ShouldAlmostEqual, 0.5)
		})
	})
}
