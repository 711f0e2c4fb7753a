// Package source loads calendar events from the local files listed in the
// configuration and flattens them into one event list.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"schedcal/internal/config"
	"schedcal/internal/ics"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

const maxParallelLoads = 4

// Loader reads every configured source.
type Loader struct {
	sources      []config.SourceConfig
	loc          *time.Location
	horizonDays  int
	backfillDays int

	// now is injectable for tests.
	now func() time.Time
}

// NewLoader builds a Loader from the configuration.
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		sources:      cfg.Sources,
		loc:          cfg.Location(),
		horizonDays:  cfg.HorizonDays,
		backfillDays: cfg.BackfillDays,
		now:          time.Now,
	}
}

// yamlFile is the on-disk shape of a YAML event source.
type yamlFile struct {
	Events []model.Event `yaml:"events"`
}

// Load reads all sources concurrently and returns their events in
// configuration order. A source that fails is logged and left out; the
// returned error joins every per-source failure, so callers may use the
// partial event list alongside a non-nil error. When every source fails the
// event list is nil.
func (l *Loader) Load(ctx context.Context) ([]model.Event, error) {
	perSource := make([][]model.Event, len(l.sources))
	perErr := make([]error, len(l.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, src := range l.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events, err := l.loadOne(src)
			if err != nil {
				appLog.Error("source load failed", err, "id", src.ID, "kind", src.Kind)
				perErr[i] = fmt.Errorf("source %s: %w", src.ID, err)
				return nil
			}
			appLog.Debug("source loaded", "id", src.ID, "kind", src.Kind, "event_count", len(events))
			perSource[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	all := make([]model.Event, 0)
	for i, events := range perSource {
		if perErr[i] != nil {
			failed++
			continue
		}
		all = append(all, events...)
	}
	if failed > 0 && failed == len(l.sources) {
		return nil, errors.Join(perErr...)
	}
	return all, errors.Join(perErr...)
}

func (l *Loader) loadOne(src config.SourceConfig) ([]model.Event, error) {
	switch src.Kind {
	case config.SourceKindICS:
		return l.loadICS(src)
	case config.SourceKindYAML:
		return LoadYAMLFile(src.ID, src.Path)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func (l *Loader) loadICS(src config.SourceConfig) ([]model.Event, error) {
	parsed, err := ics.ParseFile(ics.Source{ID: src.ID, Path: src.Path})
	if err != nil {
		return nil, err
	}

	today := l.now().In(l.loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, l.loc)
	res, err := ics.ExpandEvents(parsed, ics.ExpandConfig{
		DisplayLocation: l.loc,
		RangeStart:      today.AddDate(0, 0, -l.backfillDays),
		RangeEnd:        today.AddDate(0, 0, l.horizonDays+1),
	})
	if err != nil {
		return nil, err
	}
	if res.SkippedAllDay > 0 {
		appLog.Debug("ics all-day events skipped", "id", src.ID, "count", res.SkippedAllDay)
	}
	return res.Events, nil
}

// LoadYAMLFile reads a YAML event file. Events without an id get a random
// one; types are normalized; dates and times are validated.
func LoadYAMLFile(sourceID, path string) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	events := make([]model.Event, 0, len(f.Events))
	for i, ev := range f.Events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		ev.Type, _ = model.ParseEventType(strings.ToLower(string(ev.Type)))
		ev.SourceID = sourceID

		if _, err := schedule.ParseDate(ev.Date, time.UTC); err != nil {
			return nil, fmt.Errorf("%s: events[%d]: date %q: %w", path, i, ev.Date, err)
		}
		if err := schedule.ValidateEvent(ev); err != nil {
			return nil, fmt.Errorf("%s: events[%d]: %w", path, i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
