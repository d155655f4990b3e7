package models

import (
	"time"

	"github.com/google/uuid"
)

// Party groups guests under one event. PartyCode is the short code scanner
// devices use to attach to the party; ShareCode invites collaborators;
// ShareableLinkID identifies the public party page.
type Party struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	PartyCode         string    `json:"party_code"`
	ShareCode         string    `json:"share_code,omitempty"`
	ShareableLinkID   string    `json:"shareable_link_id,omitempty"`
	OwnerID           uuid.UUID `json:"owner_id"`
	PublicDescription string    `json:"public_description"`
	ShowGuestCount    bool      `json:"show_guest_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// PartySummary is the public shape returned to scanner sessions: no codes
// beyond what the caller already knows.
type PartySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Summary strips a party down to its scanner-visible fields.
func (p Party) Summary() PartySummary {
	return PartySummary{ID: p.ID, Name: p.Name}
}
