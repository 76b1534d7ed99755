// Package locale supplies the community's calendar conventions: the time zone
// used for day and month boundaries and the weekday names residents configure
// blackout days with.
package locale

import (
	"fmt"
	"strings"
	"time"
)

type Locale interface {
	Location() *time.Location
	WeekdayName(day time.Weekday) string
}

// Calendar is the default Locale implementation.
type Calendar struct {
	loc      *time.Location
	weekdays [7]string
}

var weekdayNames = map[string][7]string{
	"en":    {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	"pt-br": {"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"},
	"es":    {"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
}

// New builds a calendar for the IANA zone and language tag. Unknown tags fall
// back to English names.
func New(zone, tag string) (Calendar, error) {
	loc := time.UTC
	if zone = strings.TrimSpace(zone); zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return Calendar{}, fmt.Errorf("locale: load zone %q: %w", zone, err)
		}
		loc = l
	}
	return Fixed(loc, tag), nil
}

// Fixed builds a calendar for an already resolved location.
func Fixed(loc *time.Location, tag string) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	names, ok := weekdayNames[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		names = weekdayNames["en"]
	}
	return Calendar{loc: loc, weekdays: names}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c Calendar) WeekdayName(day time.Weekday) string {
	if c.weekdays[day] == "" {
		return day.String()
	}
	return c.weekdays[day]
}

// Date truncates t to the local civil date.
func Date(t time.Time, l Locale) time.Time {
	local := t.In(l.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, l.Location())
}

var _ Locale = Calendar{}
