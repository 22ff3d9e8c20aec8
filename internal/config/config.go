// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Pages and campaign windows are plain data; the service turns them into
//   loader schemas and chart layouts.
// - Validation errors wrap ErrInvalidConfig.
package config

// Campaign is a highlighted calendar window. Start and End are "MM-DD" on
// the reference year.
type Campaign struct {
	Name    string  `koanf:"name"`
	Label   string  `koanf:"label"`
	Start   string  `koanf:"start"`
	End     string  `koanf:"end"`
	Color   string  `koanf:"color"`
	Opacity float64 `koanf:"opacity"`
}

// Page is one dashboard page over one CSV source.
type Page struct {
	// ID is the URL segment of the page.
	ID          string `koanf:"id"`
	Title       string `koanf:"title"`
	Description string `koanf:"description"`
	Caption     string `koanf:"caption"`

	// Source is the CSV path, relative to DataDir unless absolute.
	Source     string `koanf:"source"`
	DateColumn string `koanf:"date_column"`
	// Identifiers are kept as text; the date column is always one.
	Identifiers []string `koanf:"identifiers"`
	// PercentColumns pins the percent columns. Empty means detect from "%".
	PercentColumns []string `koanf:"percent_columns"`

	RegionColumn string   `koanf:"region_column"`
	ModeColumn   string   `koanf:"mode_column"`
	DefaultModes []string `koanf:"default_modes"`
	FacetColumn  string   `koanf:"facet_column"`

	// Metrics is the fixed metric list. Empty means every numeric column
	// not in ExcludeMetrics.
	Metrics        []string `koanf:"metrics"`
	ExcludeMetrics []string `koanf:"exclude_metrics"`

	// Campaigns names the windows drawn on this page.
	Campaigns     []string `koanf:"campaigns"`
	TitleTemplate string   `koanf:"title_template"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is where relative page sources are resolved.
	DataDir string `koanf:"data_dir"`

	// ReferenceYear is the leap year calendar keys are stamped onto.
	ReferenceYear int `koanf:"reference_year"`

	// WatchFiles invalidates cached datasets when their files change.
	WatchFiles bool `koanf:"watch_files"`

	// RefreshSchedule is a cron spec for revalidating cached datasets.
	// Empty disables the job.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// Preload loads every page's dataset on start.
	Preload bool `koanf:"preload"`

	// WarmWorkers is the number of workers reloading pages in the
	// background after preload, file changes and refreshes.
	WarmWorkers int `koanf:"warm_workers"`

	// ChartWidth and PanelHeight size rendered charts in pixels.
	ChartWidth  int `koanf:"chart_width"`
	PanelHeight int `koanf:"panel_height"`

	// MaxPreviewRows caps GET /api/pages/{page}/preview?limit.
	MaxPreviewRows int `koanf:"max_preview_rows"`

	Campaigns []Campaign `koanf:"campaigns"`
	Pages     []Page     `koanf:"pages"`
}

// New creates a Config holding the four stock dashboard pages.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		DataDir:         ".",
		ReferenceYear:   2000,
		WatchFiles:      true,
		RefreshSchedule: "@every 1h",
		Preload:         false,
		WarmWorkers:     2,
		ChartWidth:      1200,
		PanelHeight:     420,
		MaxPreviewRows:  500,
		Campaigns:       DefaultCampaigns(),
		Pages:           DefaultPages(),
	}
}

// DefaultCampaigns returns the NB1 and NB2 windows.
func DefaultCampaigns() []Campaign {
	return []Campaign{
		{Name: "nb1", Label: "NB1 Period", Start: "01-10", End: "02-09", Color: "#4169E1", Opacity: 0.2},
		{Name: "nb2", Label: "NB2 Period", Start: "07-30", End: "08-31", Color: "#FFA500", Opacity: 0.15},
	}
}

// modeIdentifiers are the text columns of the per-mode exports.
var modeIdentifiers = []string{
	"Date", "Region", "Game Mode", "Match Mode", "Game Mode Id", "Match Mode Id", "Is Ugc",
}

// DefaultPages returns the stock dashboard pages.
func DefaultPages() []Page {
	return []Page{
		{
			ID:           "campaign",
			Title:        "Naruto Chapter 2 - Interactive Dashboard",
			Description:  "Compare multi-year campaign performance for each region and user metric.",
			Caption:      "Data visualized by month (Jan to Dec) with highlighted campaign windows.",
			Source:       "nb2.csv",
			DateColumn:   "Date",
			Identifiers:  []string{"Date", "Region"},
			RegionColumn: "Region",
			FacetColumn:  "Region",
			Metrics: []string{
				"A1", "A7", "A30", "AR2", "AR7", "AR30",
				"New User", "New User A7", "New User A30", "Retained 30", "Retained 7", "Revival 30 A30",
				"NU R2", "NU R7", "NU R30", "C7", "C30",
				"Revival7", "Revival30",
				"Revival7 R7", "Revival30 R7", "Revival30 R30",
				"C7 Rate", "Revival7 R2", "Revival7 R30", "C30 Rate",
			},
			Campaigns:     []string{"nb1", "nb2"},
			TitleTemplate: "{metric} - Year-over-Year Overlay",
		},
		{
			ID:             "mea-users",
			Title:          "Overall MEA Users - Naruto Chapter 2 Dashboard",
			Description:    "Analyze aggregate user activity and retention for the whole MEA region, without sub-region breakdowns.",
			Caption:        "Jan to Dec overlay by year; shaded zones mark the campaign windows.",
			Source:         "ME_Users.csv",
			DateColumn:     "Date",
			Identifiers:    []string{"Date"},
			ExcludeMetrics: []string{"EO Month"},
			Campaigns:      []string{"nb1", "nb2"},
			TitleTemplate:  "{metric} - Year-over-Year Trend (Overall MEA)",
		},
		{
			ID:           "lone-wolf",
			Title:        "Lone Wolf Ranked - Naruto Chapter 2 Dashboard",
			Description:  "Analyze the Lone Wolf Ranked mode performance and engagement during the Naruto Chapter 2 campaign.",
			Caption:      "Jan to Dec overlay by year; the orange band is the Naruto Chapter 2 campaign.",
			Source:       "Ranked_LW.csv",
			DateColumn:   "Date",
			Identifiers:  append([]string(nil), modeIdentifiers...),
			RegionColumn: "Region",
			FacetColumn:  "Match Mode",
			Metrics: []string{
				"Player Users", "Participate Rate", "Real Participate Rate",
				"Avg Survival Time", "Avg Match Cnt", "Avg Match Survival Time",
				"R2", "R7", "Mode C2", "Mode C7",
			},
			Campaigns:     []string{"nb2"},
			TitleTemplate: "{metric} - Year-over-Year Overlay by Match Mode",
		},
		{
			ID:           "playtime",
			Title:        "Game-Mode Playtime Dashboard",
			Description:  "Explore daily playtime and activity trends for Battle Royale Ranked (BR) and Clash Squad Ranked (CS) during the Naruto Chapter 2 event.",
			Caption:      "Monthly overlay (Jan to Dec). Orange highlight = Naruto Chapter 2 campaign.",
			Source:       "modes_playtime.csv",
			DateColumn:   "Date",
			Identifiers:  append([]string(nil), modeIdentifiers...),
			RegionColumn: "Region",
			ModeColumn:   "Match Mode",
			DefaultModes: []string{"Ranking Match", "CS Ranking"},
			FacetColumn:  "Match Mode",
			Metrics: []string{
				"Avg Match Survival Time", "Avg Survival Time", "Avg Match Cnt",
				"Participate Rate", "Real Participate Rate", "R2", "R7",
			},
			Campaigns:     []string{"nb1", "nb2"},
			TitleTemplate: "{metric} - Year-over-Year Overlay by Match Mode",
		},
	}
}

// Page returns the page with id.
func (c *Config) Page(id string) (Page, bool) {
	for _, p := range c.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Campaign returns the campaign window with name.
func (c *Config) Campaign(name string) (Campaign, bool) {
	for _, w := range c.Campaigns {
		if w.Name == name {
			return w, true
		}
	}
	return Campaign{}, false
}
