package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

// Source kinds understood by internal/source.
const (
	SourceKindICS  = "ics"
	SourceKindYAML = "yaml"
)

// SourceConfig describes a single local event file.
type SourceConfig struct {
	// ID is an internal identifier used for logging and Event.SourceID.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Kind is "ics" or "yaml". Empty means: infer from the file extension.
	Kind string `yaml:"kind" json:"kind"`
	// Path is the file location; relative paths resolve against the
	// directory of the config file.
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the JSON API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to place ICS occurrences on
	// calendar dates and to resolve "today".
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// WorkingHours bounds free-time computation.
	WorkingHours model.WorkingHours `yaml:"working_hours" json:"working_hours"`

	// HeatmapHours are the hour marks evaluated for the weekly heatmap.
	HeatmapHours []int `yaml:"heatmap_hours" json:"heatmap_hours"`

	// RefreshCron is a standard 5-field cron spec controlling how often the
	// server reloads its event sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound recurrence expansion around today.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	Sources []SourceConfig `yaml:"sources" json:"sources"`
}

func defaultHeatmapHours() []int {
	return []int{9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Asia/Tokyo",
		LogLevel:     "info",
		WorkingHours: model.WorkingHours{Start: "09:00", End: "18:00"},
		HeatmapHours: defaultHeatmapHours(),
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  14,
		BackfillDays: 7,
		Sources:      []SourceConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.WorkingHours.Start == "" {
		c.WorkingHours.Start = "09:00"
	}
	if c.WorkingHours.End == "" {
		c.WorkingHours.End = "18:00"
	}
	if len(c.HeatmapHours) == 0 {
		c.HeatmapHours = defaultHeatmapHours()
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 14
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.ID == "" {
			s.ID = s.Name
		}
		if s.ID == "" {
			s.ID = s.Path
		}
		if s.Kind == "" {
			s.Kind = kindFromPath(s.Path)
		}
		s.Kind = strings.ToLower(s.Kind)
	}
}

func kindFromPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".ics", ".ical":
		return SourceKindICS
	case ".yaml", ".yml":
		return SourceKindYAML
	}
	return ""
}

// Validate reports every problem found in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if err := schedule.ValidateWorkingHours(c.WorkingHours); err != nil {
		errs = append(errs, fmt.Errorf("working_hours: %w", err))
	}
	for _, h := range c.HeatmapHours {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("heatmap_hours: %d is not an hour of day", h))
		}
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: path is empty", i))
		}
		if s.Kind != SourceKindICS && s.Kind != SourceKindYAML {
			errs = append(errs, fmt.Errorf("sources[%d]: unknown kind %q (want ics or yaml)", i, s.Kind))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
	}

	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, normalized and validated. Relative source
//     paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	base := filepath.Dir(path)
	for i := range cfg.Sources {
		if p := cfg.Sources[i].Path; p != "" && !filepath.IsAbs(p) {
			cfg.Sources[i].Path = filepath.Join(base, p)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
