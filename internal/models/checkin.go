package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInResponse is returned by the check-in endpoint.
// IsNewEntry is true only for the not-entered → entered transition; a repeat
// scan of an already-entered guest returns the original check-in time.
type CheckInResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	QRHash      string     `json:"qr_hash"`
	Entered     bool       `json:"entered"`
	IsNewEntry  bool       `json:"is_new_entry"`
	Message     string     `json:"message"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
}

// ToggleResponse is returned by the manual toggle endpoint.
type ToggleResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	QRHash      string     `json:"qr_hash"`
	Entered     bool       `json:"entered"`
	Message     string     `json:"message"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
}

// PartyStats aggregates attendance for one party.
type PartyStats struct {
	TotalInvited      int64   `json:"total_invited"`
	EnteredCount      int64   `json:"entered_count"`
	NotEnteredCount   int64   `json:"not_entered_count"`
	PercentageEntered float64 `json:"percentage_entered"`
}
