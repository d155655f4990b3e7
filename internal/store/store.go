package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a uniqueness constraint
// (duplicate username, email, party code or credential).
var ErrConflict = errors.New("already exists")

// UserStore persists accounts and their sessions.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)

	CreateSession(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (uuid.UUID, time.Time, error)
	DeleteSession(ctx context.Context, token string) error
}

// PartyStore persists parties and collaborator membership.
type PartyStore interface {
	CreateParty(ctx context.Context, p models.Party) error
	GetParty(ctx context.Context, id uuid.UUID) (models.Party, error)
	GetPartyByCode(ctx context.Context, code string) (models.Party, error)
	GetPartyByShareCode(ctx context.Context, code string) (models.Party, error)
	ListPartiesForUser(ctx context.Context, userID uuid.UUID) ([]models.Party, error)
	UpdatePartyDetails(ctx context.Context, id uuid.UUID, description string, showGuestCount bool) error
	DeleteParty(ctx context.Context, id, ownerID uuid.UUID) error
	AddCollaborator(ctx context.Context, partyID, userID uuid.UUID) error
	IsMember(ctx context.Context, partyID, userID uuid.UUID) (bool, error)
}

// GuestStore persists guests and serves the list/export reads.
type GuestStore interface {
	CreateGuest(ctx context.Context, g models.Guest) error
	GetGuestByHash(ctx context.Context, partyID uuid.UUID, qrHash string) (models.Guest, error)
	FindGuestByHash(ctx context.Context, qrHash string) (models.Guest, error)
	ListGuests(ctx context.Context, partyID uuid.UUID, q models.ListQuery) (models.GuestPage, error)
	AllGuests(ctx context.Context, partyID uuid.UUID) ([]models.Guest, error)
	RenameGuest(ctx context.Context, partyID uuid.UUID, qrHash, name string) (models.Guest, error)
	DeleteGuest(ctx context.Context, partyID uuid.UUID, qrHash string) (string, error)
}

// CheckInStore applies the entry transitions.
//
// CheckIn must be atomic per credential: of two concurrent calls for the same
// qrHash, exactly one may report isNew=true. ToggleEntry is unconditional and
// may race with CheckIn; last write wins.
type CheckInStore interface {
	CheckIn(ctx context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, bool, error)
	ToggleEntry(ctx context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, error)
	PartyStats(ctx context.Context, partyID uuid.UUID) (models.PartyStats, error)
}

// Store is the full persistence surface the HTTP layer depends on.
type Store interface {
	UserStore
	PartyStore
	GuestStore
	CheckInStore

	Ping(ctx context.Context) error
}
