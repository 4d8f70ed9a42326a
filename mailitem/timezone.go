// ABOUTME: Reads iCalendar date-times whose TZID names a VTIMEZONE rather than an IANA zone
// ABOUTME: Outlook writes Windows zone names and defines their offsets in the same calendar
package mailitem

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

const icalDateTimeLayout = "20060102T150405"

// parseDateTime reads a DTSTART-style property. Floating values are read in
// loc. A TZID that time.LoadLocation does not know is looked up among the
// calendar's VTIMEZONE components; if none matches, loc is used.
func parseDateTime(cal *ical.Calendar, prop *ical.Prop, loc *time.Location) (time.Time, error) {
	tzid := prop.Params.Get(ical.ParamTimezoneID)
	if tzid == "" || len(prop.Value) != len(icalDateTimeLayout) {
		return prop.DateTime(loc)
	}
	if _, err := time.LoadLocation(tzid); err == nil {
		return prop.DateTime(loc)
	}

	// wall holds the local clock reading, tagged UTC only so it can be compared.
	wall, err := time.Parse(icalDateTimeLayout, prop.Value)
	if err != nil {
		return time.Time{}, err
	}

	zoneLoc := loc
	if zone := findTimezone(cal, tzid); zone != nil {
		offset, err := zoneOffset(zone, wall)
		if err != nil {
			return time.Time{}, fmt.Errorf("time zone %q: %w", tzid, err)
		}
		zoneLoc = time.FixedZone(tzid, offset)
	}

	return time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, zoneLoc), nil
}

func findTimezone(cal *ical.Calendar, tzid string) *ical.Component {
	if cal == nil {
		return nil
	}
	for _, child := range cal.Children {
		if child.Name != ical.CompTimezone {
			continue
		}
		if id, err := child.Props.Text(ical.PropTimezoneID); err == nil && id == tzid {
			return child
		}
	}
	return nil
}

// zoneOffset returns the UTC offset in seconds in effect at wall. The
// observance with the latest onset at or before wall wins. Before every
// onset the earliest observance's TZOFFSETFROM applies.
func zoneOffset(zone *ical.Component, wall time.Time) (int, error) {
	var (
		latest, earliest       time.Time
		offset, offsetBefore   int
		haveLatest, haveBefore bool
	)

	for _, obs := range zone.Children {
		if obs.Name != ical.CompTimezoneStandard && obs.Name != ical.CompTimezoneDaylight {
			continue
		}

		onset, first, err := lastOnset(obs, wall)
		if err != nil {
			return 0, err
		}
		if !onset.IsZero() && (!haveLatest || onset.After(latest)) {
			to, err := utcOffset(obs.Props.Get(ical.PropTimezoneOffsetTo))
			if err != nil {
				return 0, err
			}
			latest, offset, haveLatest = onset, to, true
		}
		if !haveBefore || first.Before(earliest) {
			from, err := utcOffset(obs.Props.Get(ical.PropTimezoneOffsetFrom))
			if err != nil {
				return 0, err
			}
			earliest, offsetBefore, haveBefore = first, from, true
		}
	}

	switch {
	case haveLatest:
		return offset, nil
	case haveBefore:
		return offsetBefore, nil
	default:
		return 0, errors.New("no STANDARD or DAYLIGHT observance")
	}
}

// lastOnset returns the latest onset of obs at or before wall (zero if none)
// and the observance's first onset. Onsets are floating local times, so
// they are read as UTC to compare with wall.
func lastOnset(obs *ical.Component, wall time.Time) (last, first time.Time, err error) {
	first, err = obs.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse observance start: %w", err)
	}

	opt, err := obs.Props.RecurrenceRule()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if opt != nil {
		// An open-ended rule stops about 290 years after its start, and
		// Outlook starts observances in 1601, so begin two years before wall
		// instead; that span always holds a whole year of onsets.
		opt.Dtstart = first
		if opt.Until.IsZero() && opt.Count == 0 && first.Year() < wall.Year()-2 {
			opt.Dtstart = first.AddDate(wall.Year()-2-first.Year(), 0, 0)
		}
		rule, err := rrule.NewRRule(*opt)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to build observance rule: %w", err)
		}
		if onset := rule.Before(wall, true); !onset.IsZero() {
			last = onset
		}
	} else if !first.After(wall) {
		last = first
	}

	for _, rdate := range obs.Props.Values(ical.PropRecurrenceDates) {
		t, err := rdate.DateTime(time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to parse observance RDATE: %w", err)
		}
		if !t.After(wall) && t.After(last) {
			last = t
		}
	}
	return last, first, nil
}

// utcOffset parses a UTC-OFFSET value such as +0100, -0530 or +013045.
func utcOffset(prop *ical.Prop) (int, error) {
	if prop == nil {
		return 0, errors.New("observance has no UTC offset")
	}
	v := prop.Value
	if (len(v) != 5 && len(v) != 7) || (v[0] != '+' && v[0] != '-') {
		return 0, fmt.Errorf("invalid UTC offset %q", v)
	}

	parts := []string{v[1:3], v[3:5]}
	if len(v) == 7 {
		parts = append(parts, v[5:7])
	}
	seconds := 0
	for i, unit := range []int{3600, 60, 1}[:len(parts)] {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, fmt.Errorf("invalid UTC offset %q", v)
		}
		seconds += n * unit
	}
	if v[0] == '-' {
		seconds = -seconds
	}
	return seconds, nil
}
