package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/models"
	"github.com/qrpass/checkin-service/internal/store"
)

// memStore is an in-memory store.Store for handler tests. Same locking
// discipline as the real thing: check-in is a compare-and-swap under the
// store's lock, so concurrent scans of one credential elect one winner.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]models.User
	sessions  map[string]memSession
	parties   map[uuid.UUID]models.Party
	members   map[uuid.UUID]map[uuid.UUID]bool
	guests    map[uuid.UUID]*models.Guest // by guest ID
	byHash    map[string]uuid.UUID
	failPings bool
}

type memSession struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]models.User{},
		sessions: map[string]memSession{},
		parties:  map[uuid.UUID]models.Party{},
		members:  map[uuid.UUID]map[uuid.UUID]bool{},
		guests:   map[uuid.UUID]*models.Guest{},
		byHash:   map[string]uuid.UUID{},
	}
}

func (m *memStore) Ping(ctx context.Context) error {
	if m.failPings {
		return errors.New("db unreachable")
	}
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return store.ErrConflict
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateSession(_ context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memStore) GetSession(_ context.Context, token string) (uuid.UUID, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return uuid.Nil, time.Time{}, store.ErrNotFound
	}
	return s.userID, s.expiresAt, nil
}

func (m *memStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) CreateParty(_ context.Context, p models.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.parties {
		if existing.PartyCode == p.PartyCode || existing.ShareCode == p.ShareCode {
			return store.ErrConflict
		}
	}
	m.parties[p.ID] = p
	m.members[p.ID] = map[uuid.UUID]bool{p.OwnerID: true}
	return nil
}

func (m *memStore) GetParty(_ context.Context, id uuid.UUID) (models.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return models.Party{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetPartyByCode(_ context.Context, code string) (models.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parties {
		if p.PartyCode == code {
			return p, nil
		}
	}
	return models.Party{}, store.ErrNotFound
}

func (m *memStore) GetPartyByShareCode(_ context.Context, code string) (models.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parties {
		if p.ShareCode == code {
			return p, nil
		}
	}
	return models.Party{}, store.ErrNotFound
}

func (m *memStore) ListPartiesForUser(_ context.Context, userID uuid.UUID) ([]models.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Party
	for id, p := range m.parties {
		if m.members[id][userID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdatePartyDetails(_ context.Context, id uuid.UUID, description string, showGuestCount bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return store.ErrNotFound
	}
	p.PublicDescription = description
	p.ShowGuestCount = showGuestCount
	m.parties[id] = p
	return nil
}

func (m *memStore) DeleteParty(_ context.Context, id, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok || p.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.parties, id)
	delete(m.members, id)
	for gid, g := range m.guests {
		if g.PartyID == id {
			delete(m.byHash, g.QRHash)
			delete(m.guests, gid)
		}
	}
	return nil
}

func (m *memStore) AddCollaborator(_ context.Context, partyID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parties[partyID]; !ok {
		return store.ErrNotFound
	}
	m.members[partyID][userID] = true
	return nil
}

func (m *memStore) IsMember(_ context.Context, partyID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[partyID][userID], nil
}

func (m *memStore) CreateGuest(_ context.Context, g models.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byHash[g.QRHash]; taken {
		return store.ErrConflict
	}
	m.guests[g.ID] = &g
	m.byHash[g.QRHash] = g.ID
	return nil
}

func (m *memStore) lookup(partyID uuid.UUID, qrHash string) (*models.Guest, bool) {
	id, ok := m.byHash[qrHash]
	if !ok {
		return nil, false
	}
	g := m.guests[id]
	if g.PartyID != partyID {
		return nil, false
	}
	return g, true
}

func (m *memStore) GetGuestByHash(_ context.Context, partyID uuid.UUID, qrHash string) (models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookup(partyID, qrHash)
	if !ok {
		return models.Guest{}, store.ErrNotFound
	}
	return *g, nil
}

func (m *memStore) FindGuestByHash(_ context.Context, qrHash string) (models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHash[qrHash]
	if !ok {
		return models.Guest{}, store.ErrNotFound
	}
	return *m.guests[id], nil
}

func (m *memStore) partyGuests(partyID uuid.UUID) []models.Guest {
	var out []models.Guest
	for _, g := range m.guests {
		if g.PartyID == partyID {
			out = append(out, *g)
		}
	}
	return out
}

func (m *memStore) ListGuests(_ context.Context, partyID uuid.UUID, q models.ListQuery) (models.GuestPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.partyGuests(partyID)
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		kept := all[:0]
		for _, g := range all {
			if strings.Contains(strings.ToLower(g.Name), needle) {
				kept = append(kept, g)
			}
		}
		all = kept
	}

	desc := q.SortDir == "desc"
	sort.Slice(all, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case "entered":
			less = !all[i].Entered && all[j].Entered
		case "check_in_time":
			ti, tj := all[i].CheckInTime, all[j].CheckInTime
			switch {
			case ti == nil:
				less = false
			case tj == nil:
				less = true
			default:
				less = ti.Before(*tj)
			}
		default:
			less = all[i].Name < all[j].Name
		}
		if desc {
			return !less
		}
		return less
	})

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	total := len(all)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return models.GuestPage{
		Guests: all[start:end],
		Pagination: models.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: int64(total),
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func (m *memStore) AllGuests(_ context.Context, partyID uuid.UUID) ([]models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.partyGuests(partyID)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) RenameGuest(_ context.Context, partyID uuid.UUID, qrHash, name string) (models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookup(partyID, qrHash)
	if !ok {
		return models.Guest{}, store.ErrNotFound
	}
	g.Name = name
	return *g, nil
}

func (m *memStore) DeleteGuest(_ context.Context, partyID uuid.UUID, qrHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookup(partyID, qrHash)
	if !ok {
		return "", store.ErrNotFound
	}
	delete(m.byHash, g.QRHash)
	delete(m.guests, g.ID)
	return g.Name, nil
}

func (m *memStore) CheckIn(_ context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookup(partyID, qrHash)
	if !ok {
		return models.Guest{}, false, store.ErrNotFound
	}
	if g.Entered {
		return *g, false, nil
	}
	g.Entered = true
	t := now
	g.CheckInTime = &t
	return *g, true, nil
}

func (m *memStore) ToggleEntry(_ context.Context, partyID uuid.UUID, qrHash string, now time.Time) (models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookup(partyID, qrHash)
	if !ok {
		return models.Guest{}, store.ErrNotFound
	}
	if g.Entered {
		g.Entered = false
		g.CheckInTime = nil
	} else {
		g.Entered = true
		t := now
		g.CheckInTime = &t
	}
	return *g, nil
}

func (m *memStore) PartyStats(_ context.Context, partyID uuid.UUID) (models.PartyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parties[partyID]; !ok {
		return models.PartyStats{}, store.ErrNotFound
	}
	total, entered := 0, 0
	for _, g := range m.guests {
		if g.PartyID == partyID {
			total++
			if g.Entered {
				entered++
			}
		}
	}
	return store.NewPartyStats(int64(total), int64(entered)), nil
}

var _ store.Store = (*memStore)(nil)
