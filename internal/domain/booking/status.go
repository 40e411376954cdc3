package booking

import (
	"fmt"
	"strings"

	"shareit/internal/domain/shared/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCompleted, StatusCancelled}

// legacyStatuses maps the capitalised vocabulary written by older clients.
var legacyStatuses = map[string]Status{
	"accepted": StatusConfirmed,
	"returned": StatusCompleted,
}

var legacySpellings = map[Status][]string{
	StatusPending:   {"Pending"},
	StatusConfirmed: {"Accepted"},
	StatusRejected:  {"Rejected"},
	StatusCompleted: {"Returned"},
	StatusCancelled: {"Cancelled"},
}

// StoredNames lists every spelling under which the given statuses may be stored.
func StoredNames(statuses []Status) []string {
	out := make([]string, 0, len(statuses)*2)
	for _, s := range statuses {
		out = append(out, string(s))
		out = append(out, legacySpellings[s]...)
	}
	return out
}

// ParseStatus accepts the canonical vocabulary case-insensitively and the legacy one.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range AllStatuses {
		if string(s) == v {
			return s, nil
		}
	}
	if s, ok := legacyStatuses[v]; ok {
		return s, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown booking status %q", raw))
}

// Live statuses hold their days against other bookings of the same item.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// Label is the wording used in status notifications.
func (s Status) Label() string {
	switch s {
	case StatusConfirmed:
		return "Confirmed"
	case StatusRejected:
		return "Rejected"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Updated"
	}
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleRenter Role = "renter"
	RoleSystem Role = "system"
)

type edge struct {
	from, to Status
}

var permitted = map[Role]map[edge]struct{}{
	RoleOwner: {
		{StatusPending, StatusConfirmed}:   {},
		{StatusPending, StatusRejected}:    {},
		{StatusConfirmed, StatusCompleted}: {},
	},
	RoleRenter: {
		{StatusPending, StatusCancelled}:   {},
		{StatusConfirmed, StatusCancelled}: {},
		{StatusConfirmed, StatusCompleted}: {},
	},
	RoleSystem: {
		{StatusPending, StatusCancelled}: {},
	},
}

// Allowed reports whether role may move a booking from one status to another.
// Expiry of system transitions is checked separately by Booking.Transition.
func Allowed(role Role, from, to Status) bool {
	_, ok := permitted[role][edge{from, to}]
	return ok
}
