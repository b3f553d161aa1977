package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
)

const (
	calendarEventColor   = "#38a169"
	calendarEventType    = "coach-schedule"
	defaultSessionHours  = 2.0
	unknownProgramName   = "Unknown Program"
	unknownCoachName     = "Unknown Coach"
	defaultActivityLabel = "Training"
	defaultTimeLabel     = "TBD"
)

// scheduleDateLayouts are tried in order for string dates without an explicit zone; those are read as UTC.
var scheduleDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// rawScheduleEntry mirrors a stored entry loosely so one bad field only drops that entry.
type rawScheduleEntry struct {
	Date     json.RawMessage `json:"date"`
	Activity string          `json:"activity"`
	Time     string          `json:"time"`
}

// ScheduleProjector turns stored program schedules into calendar events.
// It holds no state besides its logger and is safe for concurrent use.
type ScheduleProjector struct {
	logger *zap.Logger
}

func NewScheduleProjector(logger *zap.Logger) *ScheduleProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleProjector{logger: logger}
}

// Project expands records and keeps the events that end strictly after now.
// Output follows record order then entry order.
func (p *ScheduleProjector) Project(records []models.ScheduleRecord, now time.Time) []models.CalendarEvent {
	return UpcomingEvents(p.Expand(records), now)
}

// Expand converts every usable entry of every record into an event without filtering by time.
func (p *ScheduleProjector) Expand(records []models.ScheduleRecord) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0)
	for _, rec := range records {
		if rec.ProgramID == nil || rec.ProgramName == nil {
			p.logger.Warn("schedule without program skipped", zap.String("schedule_id", rec.ID))
			continue
		}

		var entries []json.RawMessage
		if err := decodeArray(rec.Schedule, &entries); err != nil {
			p.logger.Warn("schedule entries are not a list", zap.String("schedule_id", rec.ID), zap.Error(err))
			continue
		}

		hours := sessionHours(rec.Duration)
		programName := orDefault(*rec.ProgramName, unknownProgramName)
		coachName := unknownCoachName
		if rec.CoachName != nil {
			coachName = orDefault(*rec.CoachName, unknownCoachName)
		}

		for i, raw := range entries {
			var entry rawScheduleEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				p.logger.Warn("malformed schedule entry skipped", zap.String("schedule_id", rec.ID), zap.Int("index", i), zap.Error(err))
				continue
			}
			start, ok := parseScheduleDate(entry.Date)
			if !ok {
				p.logger.Warn("invalid schedule date skipped", zap.String("schedule_id", rec.ID), zap.Int("index", i), zap.ByteString("date", entry.Date))
				continue
			}

			activity := orDefault(entry.Activity, defaultActivityLabel)
			events = append(events, models.CalendarEvent{
				ID:          fmt.Sprintf("%s-%d", rec.ID, i),
				Title:       programName + " - " + activity,
				Start:       start,
				End:         start.Add(hoursToDuration(hours)),
				Type:        calendarEventType,
				ProgramID:   *rec.ProgramID,
				ProgramName: programName,
				CoachName:   coachName,
				Time:        orDefault(entry.Time, defaultTimeLabel),
				Activity:    activity,
				Color:       calendarEventColor,
			})
		}
	}
	return events
}

// UpcomingEvents keeps events whose end is strictly after now, preserving order.
func UpcomingEvents(events []models.CalendarEvent, now time.Time) []models.CalendarEvent {
	upcoming := make([]models.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.End.After(now) {
			upcoming = append(upcoming, ev)
		}
	}
	return upcoming
}

func decodeArray(doc []byte, dest *[]json.RawMessage) error {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("expected JSON array")
	}
	return json.Unmarshal(trimmed, dest)
}

// sessionHours applies the two hour default to a missing or unusable duration. Zero is kept.
func sessionHours(d *float64) float64 {
	if d == nil || *d < 0 || math.IsNaN(*d) || math.IsInf(*d, 0) {
		return defaultSessionHours
	}
	return *d
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(math.Round(hours*3600*1000)) * time.Millisecond
}

// parseScheduleDate accepts a date string or epoch milliseconds.
func parseScheduleDate(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range scheduleDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
