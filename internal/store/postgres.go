package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qrpass/checkin-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the database
// is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- users & sessions ----

func (p *PostgresStore) CreateUser(ctx context.Context, u models.User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users(id, username, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

const userColumns = "id, username, email, password_hash, created_at"

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

func (p *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (p *PostgresStore) CreateSession(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sessions(token, user_id, expires_at) VALUES ($1,$2,$3)
	`, token, userID, expiresAt)
	return err
}

func (p *PostgresStore) GetSession(ctx context.Context, token string) (uuid.UUID, time.Time, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	err := p.pool.QueryRow(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = $1", token,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, ErrNotFound
	}
	return userID, expiresAt, err
}

func (p *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// ---- parties ----

const partyColumns = "id, name, party_code, share_code, shareable_link_id, owner_id, public_description, show_guest_count, created_at"

func scanParty(row pgx.Row) (models.Party, error) {
	var pt models.Party
	err := row.Scan(&pt.ID, &pt.Name, &pt.PartyCode, &pt.ShareCode, &pt.ShareableLinkID,
		&pt.OwnerID, &pt.PublicDescription, &pt.ShowGuestCount, &pt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Party{}, ErrNotFound
	}
	return pt, err
}

func (p *PostgresStore) CreateParty(ctx context.Context, pt models.Party) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO parties(id, name, party_code, share_code, shareable_link_id,
		                    owner_id, public_description, show_guest_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, pt.ID, pt.Name, pt.PartyCode, pt.ShareCode, pt.ShareableLinkID,
		pt.OwnerID, pt.PublicDescription, pt.ShowGuestCount, pt.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (p *PostgresStore) GetParty(ctx context.Context, id uuid.UUID) (models.Party, error) {
	return scanParty(p.pool.QueryRow(ctx,
		"SELECT "+partyColumns+" FROM parties WHERE id = $1", id))
}

func (p *PostgresStore) GetPartyByCode(ctx context.Context, code string) (models.Party, error) {
	return scanParty(p.pool.QueryRow(ctx,
		"SELECT "+partyColumns+" FROM parties WHERE party_code = $1", code))
}

func (p *PostgresStore) GetPartyByShareCode(ctx context.Context, code string) (models.Party, error) {
	return scanParty(p.pool.QueryRow(ctx,
		"SELECT "+partyColumns+" FROM parties WHERE share_code = $1", code))
}

func (p *PostgresStore) ListPartiesForUser(ctx context.Context, userID uuid.UUID) ([]models.Party, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, party_code, share_code, shareable_link_id,
		       owner_id, public_description, show_guest_count, created_at
		FROM parties WHERE owner_id = $1
		UNION
		SELECT p.id, p.name, p.party_code, p.share_code, p.shareable_link_id,
		       p.owner_id, p.public_description, p.show_guest_count, p.created_at
		FROM parties p JOIN party_collaborators c ON c.party_id = p.id
		WHERE c.user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		pt, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, pt)
	}
	return parties, rows.Err()
}

func (p *PostgresStore) UpdatePartyDetails(ctx context.Context, id uuid.UUID, description string, showGuestCount bool) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE parties SET public_description = $2, show_guest_count = $3 WHERE id = $1
	`, id, description, showGuestCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteParty removes a party and, via cascade, its guests and collaborator
// rows. Only the owner's id matches; anyone else gets ErrNotFound.
func (p *PostgresStore) DeleteParty(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM parties WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) AddCollaborator(ctx context.Context, partyID, userID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO party_collaborators(party_id, user_id) VALUES ($1,$2)
		ON CONFLICT (party_id, user_id) DO NOTHING
	`, partyID, userID)
	return err
}

func (p *PostgresStore) IsMember(ctx context.Context, partyID, userID uuid.UUID) (bool, error) {
	var member bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM parties WHERE id = $1 AND owner_id = $2
			UNION
			SELECT 1 FROM party_collaborators WHERE party_id = $1 AND user_id = $2
		)
	`, partyID, userID).Scan(&member)
	return member, err
}

// ---- guests ----

const guestColumns = "id, party_id, name, qr_hash, entered, check_in_time, added_by, created_at"

func scanGuest(row pgx.Row) (models.Guest, error) {
	var g models.Guest
	err := row.Scan(&g.ID, &g.PartyID, &g.Name, &g.QRHash, &g.Entered,
		&g.CheckInTime, &g.AddedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Guest{}, ErrNotFound
	}
	return g, err
}

func (p *PostgresStore) CreateGuest(ctx context.Context, g models.Guest) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO guests(id, party_id, name, qr_hash, entered, check_in_time, added_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, g.ID, g.PartyID, g.Name, g.QRHash, g.Entered, g.CheckInTime, g.AddedBy, g.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (p *PostgresStore) GetGuestByHash(ctx context.Context, partyID uuid.UUID, qrHash string) (models.Guest, error) {
	return scanGuest(p.pool.QueryRow(ctx,
		"SELECT "+guestColumns+" FROM guests WHERE party_id = $1 AND qr_hash = $2", partyID, qrHash))
}

func (p *PostgresStore) FindGuestByHash(ctx context.Context, qrHash string) (models.Guest, error) {
	return scanGuest(p.pool.QueryRow(ctx,
		"SELECT "+guestColumns+" FROM guests WHERE qr_hash = $1", qrHash))
}

// guestSortColumns whitelists ListGuests sort keys; anything else falls back
// to name.
var guestSortColumns = map[string]string{
	"name":          "name",
	"entered":       "entered",
	"check_in_time": "check_in_time",
}

func (p *PostgresStore) ListGuests(ctx context.Context, partyID uuid.UUID, q models.ListQuery) (models.GuestPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 500 {
		q.PerPage = 50
	}

	column, ok := guestSortColumns[q.SortBy]
	if !ok {
		column = "name"
	}
	dir := "ASC"
	if q.SortDir == "desc" {
		dir = "DESC"
	}

	where := "party_id = $1"
	args := []any{partyID}
	if q.Search != "" {
		where += " AND name ILIKE $2"
		args = append(args, "%"+q.Search+"%")
	}

	var total int64
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM guests WHERE "+where, args...).Scan(&total)
	if err != nil {
		return models.GuestPage{}, err
	}

	offset := (q.Page - 1) * q.PerPage
	query := fmt.Sprintf(
		"SELECT %s FROM guests WHERE %s ORDER BY %s %s NULLS LAST LIMIT %d OFFSET %d",
		guestColumns, where, column, dir, q.PerPage, offset)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return models.GuestPage{}, err
	}
	defer rows.Close()

	guests := []models.Guest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return models.GuestPage{}, err
		}
		guests = append(guests, g)
	}
	if err := rows.Err(); err != nil {
		return models.GuestPage{}, err
	}

	totalPages := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	return models.GuestPage{
		Guests: guests,
		Pagination: models.Pagination{
			Page:       q.Page,
			PerPage:    q.PerPage,
			TotalPages: totalPages,
			TotalItems: total,
			HasNext:    q.Page < totalPages,
			HasPrev:    q.Page > 1,
		},
	}, nil
}

func (p *PostgresStore) AllGuests(ctx context.Context, partyID uuid.UUID) ([]models.Guest, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT "+guestColumns+" FROM guests WHERE party_id = $1 ORDER BY name ASC", partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []models.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (p *PostgresStore) RenameGuest(ctx context.Context, partyID uuid.UUID, qrHash, name string) (models.Guest, error) {
	return scanGuest(p.pool.QueryRow(ctx, `
		UPDATE guests SET name = $3 WHERE party_id = $1 AND qr_hash = $2
		RETURNING `+guestColumns, partyID, qrHash, name))
}

func (p *PostgresStore) DeleteGuest(ctx context.Context, partyID uuid.UUID, qrHash string) (string, error) {
	var name string
	err := p.pool.QueryRow(ctx,
		"DELETE FROM guests WHERE party_id = $1 AND qr_hash = $2 RETURNING name",
		partyID, qrHash).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

// ---- check-in ----

// CheckIn applies the not-entered → entered transition as a compare-and-swap:
// the conditional UPDATE matches only while entered is still false, so of two
// concurrent calls for the same credential exactly one gets a row back. The
// loser re-reads the guest and reports a repeat.
func (p *PostgresStore) CheckIn(ctx context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, bool, error) {
	g, err := scanGuest(p.pool.QueryRow(ctx, `
		UPDATE guests SET entered = TRUE, check_in_time = $3
		WHERE party_id = $1 AND qr_hash = $2 AND entered = FALSE
		RETURNING `+guestColumns, partyID, qrHash, now))
	if err == nil {
		return g, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Guest{}, false, err
	}

	// No transition: either the guest is already entered or the credential
	// is unknown for this party.
	g, err = p.GetGuestByHash(ctx, partyID, qrHash)
	if err != nil {
		return models.Guest{}, false, err
	}
	return g, false, nil
}

// ToggleEntry unconditionally flips entered, clearing check_in_time on the
// entered → not-entered transition. It may race with CheckIn on the same
// credential; last write wins.
func (p *PostgresStore) ToggleEntry(ctx context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, error) {
	return scanGuest(p.pool.QueryRow(ctx, `
		UPDATE guests
		SET entered = NOT entered,
		    check_in_time = CASE WHEN entered THEN NULL ELSE $3 END
		WHERE party_id = $1 AND qr_hash = $2
		RETURNING `+guestColumns, partyID, qrHash, now))
}

func (p *PostgresStore) PartyStats(ctx context.Context, partyID uuid.UUID) (models.PartyStats, error) {
	var total, entered int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE entered)
		FROM guests WHERE party_id = $1
	`, partyID).Scan(&total, &entered)
	if err != nil {
		return models.PartyStats{}, err
	}
	return NewPartyStats(total, entered), nil
}

// NewPartyStats derives the stats payload from raw counts. The percentage is
// rounded to two decimals and is 0 for an empty guest list.
func NewPartyStats(total, entered int64) models.PartyStats {
	var pct float64
	if total > 0 {
		pct = math.Round(float64(entered)/float64(total)*10000) / 100
	}
	return models.PartyStats{
		TotalInvited:      total,
		EnteredCount:      entered,
		NotEnteredCount:   total - entered,
		PercentageEntered: pct,
	}
}
