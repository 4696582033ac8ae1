package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DayStartMinute and DayEndMinute bound the working window, 08:00-18:00.
const (
	DayStartMinute = 8 * 60
	DayEndMinute   = 18 * 60
	segmentMinutes = 30
)

// CanonicalTheoryStarts are the half-hour grid points theory sessions may start on.
func CanonicalTheoryStarts() []int {
	starts := make([]int, 0, (DayEndMinute-DayStartMinute)/segmentMinutes)
	for m := DayStartMinute; m < DayEndMinute; m += segmentMinutes {
		starts = append(starts, m)
	}
	return starts
}

// CanonicalLabStarts are the five fixed 2-hour lab window starts from spec §6.5.
func CanonicalLabStarts() []int {
	return []int{8 * 60, 10 * 60, 12 * 60, 14 * 60, 15 * 60}
}

// ParseClock24 parses an "HH:MM" 24-hour string into minutes since midnight.
func ParseClock24(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduler: invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("scheduler: invalid time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock24 renders minutes since midnight as "HH:MM".
func FormatClock24(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseClock12 parses a 12-hour "hh:mm AM/PM" string into minutes since midnight.
// Conversion between 12-hour and 24-hour form happens only at this I/O boundary.
func ParseClock12(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q", s)
	}
	suffix := strings.ToUpper(s[len(s)-2:])
	if suffix != "AM" && suffix != "PM" {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q", s)
	}
	body := strings.TrimSpace(s[:len(s)-2])
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q: %w", s, err)
	}
	if h < 1 || h > 12 || m < 0 || m > 59 {
		return 0, fmt.Errorf("scheduler: invalid 12-hour time %q", s)
	}
	if suffix == "AM" {
		if h == 12 {
			h = 0
		}
	} else if h != 12 {
		h += 12
	}
	return h*60 + m, nil
}

// SegmentCount returns the number of 30-minute segments a duration (in hours) spans.
func SegmentCount(durationHours float64) int {
	segs := int(durationHours * 2)
	if float64(segs) < durationHours*2 {
		segs++
	}
	return segs
}

// SegmentKeys enumerates the "HH:MM" segment keys a [start, start+duration) window covers.
func SegmentKeys(start int, durationHours float64) []string {
	n := SegmentCount(durationHours)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = FormatClock24(start + i*segmentMinutes)
	}
	return keys
}

// ValidDuration reports whether a duration is a positive multiple of 30 minutes.
func ValidDuration(durationHours float64) bool {
	if durationHours <= 0 {
		return false
	}
	scaled := durationHours * 2
	return scaled == float64(int(scaled))
}

// WithinWorkingWindow reports whether [start, start+duration) stays inside [08:00, 18:00].
func WithinWorkingWindow(start int, durationHours float64) bool {
	end := start + int(durationHours*60)
	return start >= DayStartMinute && end <= DayEndMinute
}

func sortLabsByID(labs []Lab) {
	sort.Slice(labs, func(i, j int) bool { return labs[i].ID < labs[j].ID })
}
