// Package slots computes the bookable time slots of a provider for one day.
//
// A provider publishes working windows ("09:00"-"12:00" every 30 minutes).
// Candidate slots are laid out inside each window for the requested service
// duration, then filtered against what is already taken (appointments and
// blocked periods) and against the clock: nothing starting before now plus a
// safety margin is offered.
package slots

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"agendo-api/internal/model"
)

// DefaultMargin is how far ahead of now the earliest offerable slot starts.
const DefaultMargin = 15 * time.Minute

const dateLayout = "2006-01-02"

var (
	ErrBadDuration = errors.New("service duration must be a positive number of minutes")
	ErrBadClock    = errors.New("invalid clock time")
)

// Window is a working period expressed in minutes from local midnight.
type Window struct {
	Start    int
	End      int
	Interval int
}

// Interval is a half-open [Start, End) busy period.
type Interval struct {
	Start time.Time
	End   time.Time
}

type Slot struct {
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

func (s Slot) overlaps(b Interval) bool {
	return s.Start.Before(b.End) && b.Start.Before(s.End)
}

// Label renders the slot as "HH:MM" in loc, the format the booking UI shows.
func (s Slot) Label(loc *time.Location) string {
	return s.Start.In(loc).Format("15:04")
}

type Request struct {
	Date     time.Time
	Duration time.Duration
	Windows  []Window
	Busy     []Interval
	Now      time.Time
	Margin   time.Duration
	Location *time.Location
}

// Reason tells why a candidate was not offered. Empty means offered.
type Reason string

const (
	ReasonNone Reason = ""
	ReasonPast Reason = "past"
	ReasonBusy Reason = "busy"
)

type Candidate struct {
	Slot
	Reason Reason
}

// Compute returns the offerable slots, ordered by start and de-duplicated.
func Compute(req Request) ([]Slot, error) {
	cands, err := Explain(req)
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(cands))
	for _, c := range cands {
		if c.Reason == ReasonNone {
			out = append(out, c.Slot)
		}
	}
	return out, nil
}

// Explain is Compute without the final filter: every candidate is returned
// with the reason it was dropped, if any.
func Explain(req Request) ([]Candidate, error) {
	// slots are laid out on a minute grid
	if req.Duration < time.Minute || req.Duration%time.Minute != 0 {
		return nil, ErrBadDuration
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := req.Date.In(loc).Date()
	cutoff := req.Now.Add(req.Margin)
	durMin := int(req.Duration / time.Minute)

	seen := make(map[int64]bool)
	var out []Candidate
	for _, w := range req.Windows {
		if w.End <= w.Start {
			continue
		}
		step := w.Interval
		if step <= 0 {
			step = durMin
		}
		for start := w.Start; start+durMin <= w.End; start += step {
			s := Slot{
				Start: at(y, m, d, start, loc),
				End:   at(y, m, d, start+durMin, loc),
			}
			key := s.Start.Unix()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Candidate{Slot: s, Reason: judge(s, cutoff, req.Busy)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func judge(s Slot, cutoff time.Time, busy []Interval) Reason {
	if s.Start.Before(cutoff) {
		return ReasonPast
	}
	for _, b := range busy {
		if s.overlaps(b) {
			return ReasonBusy
		}
	}
	return ReasonNone
}

func at(y int, m time.Month, d, minutes int, loc *time.Location) time.Time {
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc)
}

// Contains reports whether start is exactly one of the offered slot starts.
func Contains(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}

// ParseClock turns "HH:MM" (or Postgres "HH:MM:SS") into minutes from
// midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	mi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	if h < 0 || mi < 0 || mi > 59 || h > 24 || (h == 24 && mi != 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return h*60 + mi, nil
}

// ParseDate reads a YYYY-MM-DD day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// WindowsFor picks the availability rows that apply to date. Rows for that
// exact date replace the weekly schedule; a date row marked unavailable closes
// the whole day.
func WindowsFor(date time.Time, loc *time.Location, rows []model.Availability) ([]Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	day := date.In(loc)
	key := day.Format(dateLayout)

	var specific, weekly []model.Availability
	for _, r := range rows {
		switch {
		case r.Date != nil && *r.Date == key:
			specific = append(specific, r)
		case r.Date == nil && r.DayOfWeek == int(day.Weekday()):
			weekly = append(weekly, r)
		}
	}

	use := weekly
	if len(specific) > 0 {
		for _, r := range specific {
			if !r.IsAvailable {
				return nil, nil
			}
		}
		use = specific
	}

	var out []Window
	for _, r := range use {
		if !r.IsAvailable {
			continue
		}
		start, err := ParseClock(r.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(r.EndTime)
		if err != nil {
			return nil, err
		}
		out = append(out, Window{Start: start, End: end, Interval: r.IntervalMinutes})
	}
	return out, nil
}
