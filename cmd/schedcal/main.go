package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"schedcal/internal/config"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
	"schedcal/internal/source"
	"schedcal/internal/web"
)

const version = "0.1.0"

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		appLog.Error("schedcal failed", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "schedcal",
		Usage:   "Free time and weekly busyness from local calendar files.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config file",
				Value:   "./schedcal.yaml",
				EnvVars: []string{"SCHEDCAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info or error (overrides config)",
				EnvVars: []string{"SCHEDCAL_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			dayCommand(),
			weekCommand(),
			serveCommand(),
		},
	}
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "date as YYYY-MM-DD (default: today)",
	}
}

func dayCommand() *cli.Command {
	return &cli.Command{
		Name:  "day",
		Usage: "Show events, free intervals and totals for one day.",
		Flags: []cli.Flag{dateFlag()},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			date, err := resolveDate(c.String("date"), cfg.Location())
			if err != nil {
				return err
			}
			events, err := loadEvents(c.Context, cfg)
			if err != nil {
				return err
			}
			sum, err := schedule.GenerateDayScheduleSummary(events, date, cfg.WorkingHours)
			if err != nil {
				return fmt.Errorf("day summary: %w", err)
			}
			printDay(c.App.Writer, sum, cfg.WorkingHours)
			return nil
		},
	}
}

func weekCommand() *cli.Command {
	return &cli.Command{
		Name:  "week",
		Usage: "Show busyness per day, the least-busy day and the hour heatmap.",
		Flags: []cli.Flag{dateFlag()},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			date, err := resolveDate(c.String("date"), cfg.Location())
			if err != nil {
				return err
			}
			events, err := loadEvents(c.Context, cfg)
			if err != nil {
				return err
			}
			days, err := schedule.CalculateWeeklyActivity(events, date)
			if err != nil {
				return fmt.Errorf("weekly activity: %w", err)
			}
			heatmap, err := schedule.WeeklyHeatmap(events, date, cfg.HeatmapHours)
			if err != nil {
				return fmt.Errorf("heatmap: %w", err)
			}
			printWeek(c.App.Writer, days, heatmap)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and reload sources on the configured schedule.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				cfg.Listen = l
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(cfg, source.NewLoader(cfg))
			err = srv.Run(ctx)
			appLog.Info("schedcal exiting")
			return err
		},
	}
}

// setup loads the config and applies logging settings.
func setup(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if l := c.String("log-level"); l != "" {
		level = l
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	appLog.Debug("effective config",
		"config_path", path,
		"timezone", cfg.Timezone,
		"working_hours", cfg.WorkingHours.Start+"-"+cfg.WorkingHours.End,
		"source_count", len(cfg.Sources),
	)
	return cfg, nil
}

func resolveDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	d, err := schedule.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
	}
	return d, nil
}

// loadEvents tolerates individual source failures; they are logged by the
// loader and the remaining events are used.
func loadEvents(ctx context.Context, cfg *config.Config) ([]model.Event, error) {
	events, err := source.NewLoader(cfg).Load(ctx)
	if events == nil {
		if err == nil {
			err = errors.New("no events loaded")
		}
		return nil, err
	}
	return events, nil
}
