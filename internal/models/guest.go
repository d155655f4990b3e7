package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is a single invitee of a party. QRHash is the opaque credential
// encoded in the guest's QR code; it is unique across the dataset and never
// changes once issued.
type Guest struct {
	ID          uuid.UUID  `json:"id"`
	PartyID     uuid.UUID  `json:"party_id"`
	Name        string     `json:"name"`
	QRHash      string     `json:"qr_hash"`
	Entered     bool       `json:"entered"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	AddedBy     uuid.UUID  `json:"added_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GuestCreateRequest is the POST /api/parties/:id/guests payload.
type GuestCreateRequest struct {
	Name string `json:"name"`
}

// ListQuery carries the guest-list filtering, sorting and paging options.
// SortBy is validated against a column whitelist by the store.
type ListQuery struct {
	Search  string
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// Pagination is the list envelope metadata.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GuestPage is one page of the guest list.
type GuestPage struct {
	Guests     []Guest    `json:"guests"`
	Pagination Pagination `json:"pagination"`
}
