package sampledata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/campaignboard/internal/config"
	"github.com/okian/campaignboard/internal/domain/model"
)

type kind int

const (
	kindCount kind = iota
	kindRate
	kindAverage
	kindMonthEnd
)

type metric struct {
	name string
	kind kind
	base float64
}

// table is the layout of one export: identifier columns after Date, the
// identifier values of every group, and the metric columns.
type table struct {
	file    string
	labels  []string
	groups  [][]string
	metrics []metric
}

func count(name string, base float64) metric { return metric{name, kindCount, base} }
func rate(name string, base float64) metric  { return metric{name, kindRate, base} }
func avg(name string, base float64) metric   { return metric{name, kindAverage, base} }

var modeLabels = []string{"Region", "Game Mode", "Match Mode", "Game Mode Id", "Match Mode Id", "Is Ugc"}

func tables() []table {
	return []table{
		{
			file:   "nb2.csv",
			labels: []string{"Region"},
			groups: [][]string{{"GCC"}, {"Levant"}, {"North Africa"}, {"Turkey"}},
			metrics: []metric{
				count("A1", 420000), count("A7", 1100000), count("A30", 2300000),
				rate("AR2", 0.42), rate("AR7", 0.28), rate("AR30", 0.15),
				count("New User", 38000), count("New User A7", 21000), count("New User A30", 9000),
				count("Retained 30", 310000), count("Retained 7", 520000), count("Revival 30 A30", 45000),
				rate("NU R2", 0.31), rate("NU R7", 0.17), rate("NU R30", 0.06),
				count("C7", 64000), count("C30", 150000),
				count("Revival7", 52000), count("Revival30", 88000),
				rate("Revival7 R7", 0.22), rate("Revival30 R7", 0.19), rate("Revival30 R30", 0.09),
				rate("C7 Rate", 0.058), rate("Revival7 R2", 0.33), rate("Revival7 R30", 0.07), rate("C30 Rate", 0.065),
			},
		},
		{
			file:   "ME_Users.csv",
			labels: nil,
			groups: [][]string{{}},
			metrics: []metric{
				{"EO Month", kindMonthEnd, 0},
				count("A1", 1650000), count("A7", 4300000), count("A30", 8900000),
				count("New User", 150000),
				rate("AR2", 0.41), rate("AR7", 0.27), rate("AR30", 0.14),
			},
		},
		{
			file:   "Ranked_LW.csv",
			labels: modeLabels,
			groups: [][]string{
				{"MEA", "Lone Wolf", "Lone Wolf Ranked", "15", "1501", "0"},
				{"MEA", "Lone Wolf", "Lone Wolf Duo Ranked", "15", "1502", "0"},
			},
			metrics: []metric{
				count("Player Users", 85000), rate("Participate Rate", 0.052), rate("Real Participate Rate", 0.044),
				avg("Avg Survival Time", 310), avg("Avg Match Cnt", 3.4), avg("Avg Match Survival Time", 92),
				rate("R2", 0.36), rate("R7", 0.21), count("Mode C2", 12000), count("Mode C7", 26000),
			},
		},
		{
			file:   "modes_playtime.csv",
			labels: modeLabels,
			groups: [][]string{
				{"MEA", "Battle Royale", "Ranking Match", "1", "101", "0"},
				{"MEA", "Clash Squad", "CS Ranking", "2", "201", "0"},
				{"MEA", "Battle Royale", "Casual Match", "1", "102", "0"},
				{"MEA", "Craftland", "Custom Room", "9", "901", "1"},
			},
			metrics: []metric{
				avg("Avg Match Survival Time", 780), avg("Avg Survival Time", 1240), avg("Avg Match Cnt", 4.1),
				rate("Participate Rate", 0.38), rate("Real Participate Rate", 0.33),
				rate("R2", 0.44), rate("R7", 0.29),
			},
		},
	}
}

// header returns the CSV header of t.
func (t table) header() []string {
	out := make([]string, 0, 1+len(t.labels)+len(t.metrics))
	out = append(out, "Date")
	out = append(out, t.labels...)
	for _, m := range t.metrics {
		out = append(out, m.name)
	}
	return out
}

// window is a campaign span on the reference year.
type window struct{ start, end model.CalendarKey }

func campaignWindows() []window {
	var out []window
	for _, c := range config.DefaultCampaigns() {
		start, end, err := c.Window(referenceYear)
		if err != nil {
			continue
		}
		out = append(out, window{start, end})
	}
	return out
}

func inCampaign(windows []window, k model.CalendarKey) bool {
	for _, w := range windows {
		if !k.Before(w.start) && !w.end.Before(k) {
			return true
		}
	}
	return false
}

// generator produces the cell text of one table.
type generator struct {
	rng     *rand.Rand
	printer *message.Printer
	windows []window
}

func newGenerator(seed int64) *generator {
	return &generator{
		rng:     rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		printer: message.NewPrinter(language.English),
		windows: campaignWindows(),
	}
}

// records returns the header and one row per day, year and group.
func (g *generator) records(t table, years []int) [][]string {
	out := [][]string{t.header()}
	for yi, year := range years {
		for day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); day.Year() == year; day = day.AddDate(0, 0, 1) {
			factor := g.factor(day, yi)
			for gi, group := range t.groups {
				row := make([]string, 0, len(out[0]))
				row = append(row, g.date(day))
				row = append(row, group...)
				// Later groups run smaller so facets do not overlap.
				scale := factor / float64(gi+1)
				for _, m := range t.metrics {
					row = append(row, g.cell(m, day, scale))
				}
				out = append(out, row)
			}
		}
	}
	return out
}

// factor is the shared seasonal, growth and campaign multiplier of a day.
func (g *generator) factor(day time.Time, yearIndex int) float64 {
	seasonal := 1 + seasonalAmplitude*math.Sin(2*math.Pi*float64(day.YearDay())/365)
	growth := 1 + yearlyGrowth*float64(yearIndex)
	f := seasonal * growth
	if inCampaign(g.windows, model.NewCalendarKey(referenceYear, day)) {
		f *= campaignLift
	}
	return f
}

func (g *generator) date(day time.Time) string {
	switch r := g.rng.Float64(); {
	case r < badDateRate:
		return "not a date"
	case r < badDateRate+slashDateRate:
		return day.Format("01/02/2006")
	default:
		return day.Format("2006-01-02")
	}
}

func (g *generator) cell(m metric, day time.Time, scale float64) string {
	if m.kind == kindMonthEnd {
		if day.AddDate(0, 0, 1).Month() != day.Month() {
			return "1"
		}
		return "0"
	}
	if g.rng.Float64() < blankCellRate {
		return ""
	}
	noise := 1 + noiseSpread*(g.rng.Float64()-0.5)
	switch m.kind {
	case kindCount:
		return g.printer.Sprintf("%d", int64(math.Round(m.base*scale*noise)))
	case kindRate:
		// Rates move with the campaign but stay well below 100%.
		v := math.Min(m.base*math.Sqrt(scale)*noise, 0.99)
		return fmt.Sprintf("%.2f%%", v*100)
	default:
		return fmt.Sprintf("%.2f", m.base*math.Sqrt(scale)*noise)
	}
}
