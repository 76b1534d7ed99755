package amenity

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeOfDay counts minutes since local midnight.
type TimeOfDay int

func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidConfig, raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidConfig, raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidConfig, raw)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// OperatingHours is the daily window [Open, Close). A zero Close means the end
// of the day; a zero window means no restriction.
type OperatingHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

func (h OperatingHours) Configured() bool {
	return h.Open != 0 || h.Close != 0
}

// CloseMinute resolves a zero Close to 24:00.
func (h OperatingHours) CloseMinute() int {
	if h.Close == 0 {
		return minutesPerDay
	}
	return int(h.Close)
}

func (h OperatingHours) Validate() error {
	if !h.Configured() {
		return nil
	}
	if h.Open < 0 || int(h.Open) >= minutesPerDay {
		return fmt.Errorf("%w: opening time out of range", ErrInvalidConfig)
	}
	if h.Close < 0 || int(h.Close) > minutesPerDay {
		return fmt.Errorf("%w: closing time out of range", ErrInvalidConfig)
	}
	if int(h.Open) >= h.CloseMinute() {
		return fmt.Errorf("%w: opening time must precede closing time", ErrInvalidConfig)
	}
	return nil
}
