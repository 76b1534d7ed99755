package calendar

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a calendar item.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusAwaitingApproval
	StatusConfirmed
	StatusRefused
	StatusCancelledByUser
	StatusCancelledByManager
)

var statusNames = map[Status]string{
	StatusPending:            "PENDING",
	StatusAwaitingApproval:   "AWAITING_APPROVAL",
	StatusConfirmed:          "CONFIRMED",
	StatusRefused:            "REFUSED",
	StatusCancelledByUser:    "CANCELLED_BY_USER",
	StatusCancelledByManager: "CANCELLED_BY_MANAGER",
}

// ActiveStatuses lists every non-terminal status.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusAwaitingApproval, StatusConfirmed}
}

func ParseStatus(raw string) (Status, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	for status, name := range statusNames {
		if name == key {
			return status, nil
		}
	}
	return 0, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", raw)}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusRefused, StatusCancelledByUser, StatusCancelledByManager:
		return true
	default:
		return false
	}
}

// AwaitingDecision covers both spellings of a pending request.
func (s Status) AwaitingDecision() bool {
	switch s {
	case StatusPending, StatusAwaitingApproval:
		return true
	default:
		return false
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("calendar: cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
