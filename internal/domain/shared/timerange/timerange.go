package timerange

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("timerange: end must be after start")

// Interval represents a half-open interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return ErrInvalidInterval
	}
	if !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps uses open-interval semantics: touching intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

func (iv Interval) ContainsInstant(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

func (iv Interval) Adjacent(other Interval) bool {
	return iv.End.Equal(other.Start) || iv.Start.Equal(other.End)
}

func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// Span returns the smallest interval covering both receivers.
func (iv Interval) Span(other Interval) Interval {
	start := iv.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.After(end) {
		end = other.End
	}
	return Interval{Start: start, End: end}
}

// Month returns the calendar month containing t in loc.
func Month(t time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Interval{Start: start.UTC(), End: start.AddDate(0, 1, 0).UTC()}
}

// MonthOf builds the interval of the given year/month in loc.
func MonthOf(year int, month time.Month, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Interval{Start: start.UTC(), End: start.AddDate(0, 1, 0).UTC()}
}
