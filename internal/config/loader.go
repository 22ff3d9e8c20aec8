package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron"

	"github.com/okian/campaignboard/internal/domain/model"
)

// Environment names read by Load.
const (
	EnvPrefix = "CAMPAIGNBOARD_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or CAMPAIGNBOARD_CONFIG when path is empty
//  3. env (prefix CAMPAIGNBOARD_)
//
// Lists given in the file replace the default lists instead of merging.
func Load(ctx context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// CAMPAIGNBOARD_DATA_DIR -> data_dir. Keys are flat so underscores stay.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	cfg := *base
	if k.Exists("pages") {
		cfg.Pages = nil
	}
	if k.Exists("campaigns") {
		cfg.Campaigns = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ReferenceYear <= 0 || !model.IsLeapYear(c.ReferenceYear) {
		return fmt.Errorf("%w: reference_year %d is not a leap year", ErrInvalidConfig, c.ReferenceYear)
	}
	if c.WarmWorkers < 1 {
		return fmt.Errorf("%w: warm_workers must be at least 1", ErrInvalidConfig)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.Parse(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: refresh_schedule %q: %w", ErrInvalidConfig, c.RefreshSchedule, err)
		}
	}

	campaigns := make(map[string]struct{}, len(c.Campaigns))
	for _, w := range c.Campaigns {
		if w.Name == "" {
			return fmt.Errorf("%w: campaign without a name", ErrInvalidConfig)
		}
		if _, dup := campaigns[w.Name]; dup {
			return fmt.Errorf("%w: duplicate campaign %q", ErrInvalidConfig, w.Name)
		}
		campaigns[w.Name] = struct{}{}
		if _, _, err := w.Window(c.ReferenceYear); err != nil {
			return err
		}
	}

	if len(c.Pages) == 0 {
		return fmt.Errorf("%w: no pages configured", ErrInvalidConfig)
	}
	pages := make(map[string]struct{}, len(c.Pages))
	for _, p := range c.Pages {
		if p.ID == "" {
			return fmt.Errorf("%w: page without an id", ErrInvalidConfig)
		}
		if _, dup := pages[p.ID]; dup {
			return fmt.Errorf("%w: duplicate page %q", ErrInvalidConfig, p.ID)
		}
		pages[p.ID] = struct{}{}
		if p.Source == "" {
			return fmt.Errorf("%w: page %q has no source", ErrInvalidConfig, p.ID)
		}
		for _, name := range p.Campaigns {
			if _, ok := campaigns[name]; !ok {
				return fmt.Errorf("%w: page %q names unknown campaign %q", ErrInvalidConfig, p.ID, name)
			}
		}
	}
	return nil
}

// Window parses the campaign's month-days onto refYear.
func (w Campaign) Window(refYear int) (model.CalendarKey, model.CalendarKey, error) {
	start, err := model.ParseMonthDay(refYear, w.Start)
	if err != nil {
		return model.CalendarKey{}, model.CalendarKey{}, fmt.Errorf("%w: campaign %q start: %w", ErrInvalidConfig, w.Name, err)
	}
	end, err := model.ParseMonthDay(refYear, w.End)
	if err != nil {
		return model.CalendarKey{}, model.CalendarKey{}, fmt.Errorf("%w: campaign %q end: %w", ErrInvalidConfig, w.Name, err)
	}
	if end.Before(start) {
		return model.CalendarKey{}, model.CalendarKey{}, fmt.Errorf("%w: campaign %q ends before it starts", ErrInvalidConfig, w.Name)
	}
	return start, end, nil
}

// SourcePath resolves a page source against DataDir.
func (c *Config) SourcePath(p Page) string {
	if filepath.IsAbs(p.Source) || c.DataDir == "" {
		return p.Source
	}
	return filepath.Join(c.DataDir, p.Source)
}
