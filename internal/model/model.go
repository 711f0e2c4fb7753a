package model

// EventType is a display category for an event. The availability engine
// never looks at it.
type EventType string

const (
	EventTypeMeeting  EventType = "meeting"
	EventTypeWork     EventType = "work"
	EventTypePersonal EventType = "personal"
	EventTypeTravel   EventType = "travel"
	EventTypeOther    EventType = "other"
)

// ParseEventType maps a free-form category string to a known EventType.
// Unknown values map to EventTypeOther.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventTypeMeeting, EventTypeWork, EventTypePersonal, EventTypeTravel, EventTypeOther:
		return EventType(s), true
	}
	return EventTypeOther, false
}

// Event is a single calendar entry on one day, as supplied by an event
// source (ICS file, YAML file). Times are zero-padded 24h "HH:MM".
type Event struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title,omitempty" yaml:"title"`
	Date      string    `json:"date" yaml:"date"` // YYYY-MM-DD
	StartTime string    `json:"startTime" yaml:"startTime"`
	EndTime   string    `json:"endTime" yaml:"endTime"`
	Type      EventType `json:"type" yaml:"type"`

	// SourceID names the configured source the event was loaded from.
	SourceID string `json:"sourceId,omitempty" yaml:"-"`
}

// WorkingHours bounds the window in which free time is computed.
type WorkingHours struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// SuggestedUse labels what a free interval is most likely good for.
type SuggestedUse string

const (
	SuggestedUseWork  SuggestedUse = "作業"
	SuggestedUseBreak SuggestedUse = "休憩"
	SuggestedUseLunch SuggestedUse = "昼休み"
	// SuggestedUseTransit is part of the label domain but never produced by
	// the free-interval calculator; it is reserved for manual tagging.
	SuggestedUseTransit SuggestedUse = "移動"
)

// FreeInterval is an idle span inside working hours.
type FreeInterval struct {
	ID              string       `json:"id"`
	Date            string       `json:"date"`
	StartTime       string       `json:"startTime"`
	EndTime         string       `json:"endTime"`
	DurationMinutes int          `json:"durationMinutes"`
	SuggestedUse    SuggestedUse `json:"suggestedUse"`
}

// DayScheduleSummary aggregates one date's events and free intervals.
//
// TotalBusyMinutes is a raw sum of event durations and is not corrected for
// overlapping events.
type DayScheduleSummary struct {
	Date             string         `json:"date"`
	EventCount       int            `json:"eventCount"`
	TotalBusyMinutes int            `json:"totalBusyMinutes"`
	TotalFreeMinutes int            `json:"totalFreeMinutes"`
	Events           []Event        `json:"events"`
	FreeTimes        []FreeInterval `json:"freeTimes"`
}

// DailyActivity is one day of the weekly busyness aggregation.
type DailyActivity struct {
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	EventCount int     `json:"eventCount"`
}

// HeatmapRow holds slot occupancy for one date, one cell per displayed hour.
type HeatmapRow struct {
	Date  string `json:"date"`
	Hours []int  `json:"hours"`
	Busy  []bool `json:"busy"`
}
