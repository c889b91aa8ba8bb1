package entity

import (
	"sort"
	"strings"
	"time"
)

// validityDateLayout is the calendar-date format of schedule validity bounds.
const validityDateLayout = "2006-01-02"

// Schedule binds a playlist to a device for a recurring time window.
// All time evaluation is UTC; both window ends are inclusive.
type Schedule struct {
	ID         int64  `json:"id"`
	DeviceID   int64  `json:"device_id"`
	PlaylistID int64  `json:"playlist_id"`
	Name       string `json:"name"`

	// Days is a comma-separated day-of-week set, e.g. "mon,tue,fri".
	Days string `json:"days"`

	// StartMinute/EndMinute bound the daily window in minutes since midnight,
	// inclusive at both ends.
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`

	// ValidFrom/ValidUntil optionally bound the schedule to a calendar-date
	// range ("2006-01-02", inclusive). Empty means unconstrained.
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`

	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`

	// PlaylistUpdatedAt mirrors the referenced playlist's last-modified time.
	// Populated by the persistence layer on read; it is what lets an aggregate
	// version notice playlist edits behind inactive schedules.
	PlaylistUpdatedAt time.Time `json:"playlist_updated_at"`
}

var dayTokens = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// DaysContain reports whether the schedule's day-of-week set contains day.
func (s *Schedule) DaysContain(day time.Weekday) bool {
	for _, token := range strings.Split(s.Days, ",") {
		if d, ok := dayTokens[strings.ToLower(strings.TrimSpace(token))]; ok && d == day {
			return true
		}
	}

	return false
}

// ParseValidityDate parses a validity bound. ok is false when the value is
// present but unparsable; callers treat that as an absent constraint.
func ParseValidityDate(s string) (time.Time, bool) {
	t, err := time.Parse(validityDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// MinuteOfDay returns minutes since midnight for t, evaluated in UTC.
func MinuteOfDay(t time.Time) int {
	utc := t.UTC()

	return utc.Hour()*60 + utc.Minute()
}

// withinValidity checks the optional calendar-date window. Bounds that are
// empty or unparsable do not constrain.
func (s *Schedule) withinValidity(now time.Time) bool {
	today := now.UTC().Truncate(24 * time.Hour)

	if s.ValidFrom != "" {
		if from, ok := ParseValidityDate(s.ValidFrom); ok && today.Before(from) {
			return false
		}
	}
	if s.ValidUntil != "" {
		if until, ok := ParseValidityDate(s.ValidUntil); ok && today.After(until) {
			return false
		}
	}

	return true
}

// MatchesAt reports whether the schedule should be playing at the given
// instant: enabled, day-of-week match, inclusive time-of-day window and
// inclusive validity-date window, all in UTC.
func (s *Schedule) MatchesAt(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if !s.DaysContain(now.UTC().Weekday()) {
		return false
	}

	minute := MinuteOfDay(now)
	if minute < s.StartMinute || minute > s.EndMinute {
		return false
	}

	return s.withinValidity(now)
}

// ActiveScheduleAt selects the single schedule that should be playing at the
// given instant. When several qualify, the earliest time-slot start wins,
// then the lowest id for a stable order.
func ActiveScheduleAt(schedules []*Schedule, now time.Time) *Schedule {
	var matches []*Schedule
	for _, s := range schedules {
		if s.MatchesAt(now) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].StartMinute != matches[j].StartMinute {
			return matches[i].StartMinute < matches[j].StartMinute
		}

		return matches[i].ID < matches[j].ID
	})

	return matches[0]
}

// AggregateVersion computes the fleet-visible "any schedule changed" version:
// the max over every schedule (active or not) of the schedule's own version
// and its playlist's version. This is what detects edits to a currently
// inactive schedule's playlist.
func AggregateVersion(schedules []*Schedule) int64 {
	var max int64
	for _, s := range schedules {
		if v := VersionFromTime(s.UpdatedAt); v > max {
			max = v
		}
		if v := VersionFromTime(s.PlaylistUpdatedAt); v > max {
			max = v
		}
	}

	return max
}
