package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

var (
	headerColor = color.New(color.Bold)
	useColors   = map[model.SuggestedUse]*color.Color{
		model.SuggestedUseWork:    color.New(color.FgGreen),
		model.SuggestedUseBreak:   color.New(color.FgYellow),
		model.SuggestedUseLunch:   color.New(color.FgCyan),
		model.SuggestedUseTransit: color.New(color.FgMagenta),
	}
	leastBusyColor = color.New(color.FgGreen, color.Bold)
)

func printDay(w io.Writer, sum model.DayScheduleSummary, wh model.WorkingHours) {
	headerColor.Fprintf(w, "%s  (%s-%s)\n", sum.Date, wh.Start, wh.End)
	fmt.Fprintf(w, "events: %d  busy: %s  free: %s\n",
		sum.EventCount,
		schedule.FormatMinutesToHourMinute(sum.TotalBusyMinutes),
		schedule.FormatMinutesToHourMinute(sum.TotalFreeMinutes),
	)

	if len(sum.Events) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "events")
		for _, e := range sum.Events {
			fmt.Fprintf(w, "  %s-%s  %-8s  %s\n", e.StartTime, e.EndTime, e.Type, e.Title)
		}
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "free")
	if len(sum.FreeTimes) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, f := range sum.FreeTimes {
		fmt.Fprintf(w, "  %s-%s  %-10s  ", f.StartTime, f.EndTime, schedule.FormatMinutesToHourMinute(f.DurationMinutes))
		c, ok := useColors[f.SuggestedUse]
		if !ok {
			c = color.New(color.Reset)
		}
		c.Fprintln(w, string(f.SuggestedUse))
	}
}

func printWeek(w io.Writer, days []model.DailyActivity, heatmap []model.HeatmapRow) {
	if len(days) == 0 {
		return
	}
	headerColor.Fprintf(w, "week of %s\n", days[0].Date)

	least, _ := schedule.LeastBusyDay(days)
	for i, d := range days {
		line := fmt.Sprintf("  %s %s  %5.2fh  %2d events", weekdayLabel(d.Date), d.Date, d.Hours, d.EventCount)
		if d.Date == least.Date {
			leastBusyColor.Fprintln(w, line+"  <- least busy")
		} else {
			fmt.Fprintln(w, line)
		}
		if i < len(heatmap) {
			fmt.Fprintf(w, "      %s\n", heatmapCells(heatmap[i]))
		}
	}
	if len(heatmap) > 0 {
		fmt.Fprintf(w, "      hours: %s\n", hourLabels(heatmap[0].Hours))
	}
}

func weekdayLabel(date string) string {
	d, err := time.Parse(schedule.DateLayout, date)
	if err != nil {
		return "   "
	}
	return d.Weekday().String()[:3]
}

func heatmapCells(row model.HeatmapRow) string {
	var b strings.Builder
	for _, busy := range row.Busy {
		if busy {
			b.WriteString("■ ")
		} else {
			b.WriteString("· ")
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func hourLabels(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprint(h)
	}
	return strings.Join(parts, ",")
}
