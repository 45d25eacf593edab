package models

import "strings"

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusReversed Status = "REVERSED"
)

// IsTerminal reports whether no further PENDING processing applies.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// CanTransition reports whether from -> to is allowed. Terminal states never
// return to PENDING.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusSuccess || to == StatusFailed || to == StatusReversed
	case StatusSuccess:
		return to == StatusReversed
	default:
		return false
	}
}

// MapGatewayStatus converts the payment gateway's status vocabulary to ours.
// Matching is case-insensitive; anything unrecognised stays PENDING.
func MapGatewayStatus(vendor string) Status {
	switch strings.ToLower(strings.TrimSpace(vendor)) {
	case "success":
		return StatusSuccess
	case "failed", "abandoned":
		return StatusFailed
	case "reversed":
		return StatusReversed
	default:
		return StatusPending
	}
}
