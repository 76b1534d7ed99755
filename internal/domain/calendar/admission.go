package calendar

import (
	"time"

	"condobook/internal/domain/amenity"
	"condobook/internal/domain/shared/locale"
	"condobook/internal/domain/shared/timerange"
)

// PastTolerance absorbs clock skew between clients and the server.
const PastTolerance = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// AdmissionRequest is everything the policy needs to judge a proposal.
// Existing must hold the amenity's bookings overlapping both the proposed
// interval and the local month of its start.
type AdmissionRequest struct {
	Amenity   *amenity.Amenity
	Range     timerange.Interval
	UnitID    string
	Existing  []*Item
	ExcludeID ItemID
}

// AdmissionPolicy runs the pre-acceptance checks in a fixed order and stops
// at the first failure.
type AdmissionPolicy struct {
	clock  Clock
	locale locale.Locale
}

func NewAdmissionPolicy(clock Clock, l locale.Locale) *AdmissionPolicy {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if l == nil {
		l = locale.Fixed(time.UTC, "en")
	}
	return &AdmissionPolicy{clock: clock, locale: l}
}

func (p *AdmissionPolicy) Locale() locale.Locale { return p.locale }

func (p *AdmissionPolicy) Now() time.Time { return p.clock.Now() }

// Evaluate returns nil when the proposal is admissible, a *ValidationError for
// malformed input and a *Rejection otherwise.
func (p *AdmissionPolicy) Evaluate(req AdmissionRequest) error {
	if err := req.Range.Validate(); err != nil {
		return &ValidationError{Field: "range", Message: "end must be after start"}
	}
	now := p.clock.Now()
	a := req.Amenity
	if a != nil {
		if err := p.checkBlackout(a, req.Range); err != nil {
			return err
		}
		if err := p.checkHours(a, req.Range); err != nil {
			return err
		}
		if err := checkDuration(a, req.Range); err != nil {
			return err
		}
		if err := p.checkHorizon(a, req.Range, now); err != nil {
			return err
		}
	}
	if req.Range.Start.Before(now.Add(-PastTolerance)) {
		return reject(ReasonInPast, "start %s is in the past", req.Range.Start.In(p.locale.Location()).Format(time.RFC3339))
	}
	if a == nil {
		return nil
	}
	if err := p.checkQuota(a, req); err != nil {
		return err
	}
	if other, ok := DetectConflict(a.ID, req.Range, req.Existing, req.ExcludeID); ok {
		r := reject(ReasonConflict, "overlaps booking %s", other.ID)
		r.Conflicting = other.ID
		return r
	}
	return nil
}

func (p *AdmissionPolicy) checkBlackout(a *amenity.Amenity, rng timerange.Interval) error {
	if len(a.Blackouts) == 0 {
		return nil
	}
	day := locale.Date(rng.Start, p.locale)
	last := locale.Date(rng.End.Add(-time.Nanosecond), p.locale)
	for !day.After(last) {
		if a.BlackedOut(day, p.locale) {
			return reject(ReasonBlackoutDay, "%s is blocked for %s", day.Format("2006-01-02"), a.Name)
		}
		day = day.AddDate(0, 0, 1)
	}
	return nil
}

func (p *AdmissionPolicy) checkHours(a *amenity.Amenity, rng timerange.Interval) error {
	if !a.Hours.Configured() {
		return nil
	}
	open := time.Duration(a.Hours.Open) * time.Minute
	closing := time.Duration(a.Hours.CloseMinute()) * time.Minute
	start := rng.Start.In(p.locale.Location())
	end := rng.End.In(p.locale.Location())

	startOffset := sinceMidnight(start)
	var endOffset time.Duration
	switch {
	case sameDate(start, end):
		endOffset = sinceMidnight(end)
	case sameDate(start.AddDate(0, 0, 1), end) && sinceMidnight(end) == 0:
		endOffset = 24 * time.Hour
	default:
		return reject(ReasonOutsideOperatingHours, "bookings must end on the day they start")
	}
	if startOffset < open || endOffset > closing {
		return reject(ReasonOutsideOperatingHours, "%s is open from %s to %s", a.Name, a.Hours.Open, closeLabel(a.Hours))
	}
	return nil
}

func checkDuration(a *amenity.Amenity, rng timerange.Interval) error {
	d := rng.Duration()
	if a.MinDuration > 0 && d < a.MinDuration {
		return reject(ReasonDurationTooShort, "minimum duration is %s", a.MinDuration)
	}
	if a.MaxDuration > 0 && d > a.MaxDuration {
		return reject(ReasonDurationTooLong, "maximum duration is %s", a.MaxDuration)
	}
	return nil
}

func (p *AdmissionPolicy) checkHorizon(a *amenity.Amenity, rng timerange.Interval, now time.Time) error {
	if a.MaxAdvanceDays <= 0 {
		return nil
	}
	limit := locale.Date(now, p.locale).AddDate(0, 0, a.MaxAdvanceDays)
	if locale.Date(rng.Start, p.locale).After(limit) {
		return reject(ReasonBeyondHorizon, "bookings open at most %d days ahead", a.MaxAdvanceDays)
	}
	return nil
}

func (p *AdmissionPolicy) checkQuota(a *amenity.Amenity, req AdmissionRequest) error {
	quota, ok := a.Quota()
	if !ok {
		return nil
	}
	month := timerange.Month(req.Range.Start, p.locale.Location())
	count := 0
	for _, other := range req.Existing {
		if other == nil || other.ID == req.ExcludeID || other.UnitID != req.UnitID {
			continue
		}
		if other.Status.IsTerminal() {
			continue
		}
		if id, ok := other.AmenityID(); !ok || id != a.ID {
			continue
		}
		if month.ContainsInstant(other.Range.Start) {
			count++
		}
	}
	if count >= quota {
		return reject(ReasonQuotaExceeded, "unit already holds %d of %d monthly bookings for %s", count, quota, a.Name)
	}
	return nil
}

// AdmissionWindow is the range the caller must load existing bookings for.
func (p *AdmissionPolicy) AdmissionWindow(rng timerange.Interval) timerange.Interval {
	return timerange.Month(rng.Start, p.locale.Location()).Span(rng)
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func closeLabel(h amenity.OperatingHours) string {
	if h.Close == 0 {
		return "24:00"
	}
	return h.Close.String()
}
