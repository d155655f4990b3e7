package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ctxBackground() context.Context { return context.Background() }

// newTestRouter registers all routes with the authenticated group
// short-circuited to act as the given user.
func newTestRouter(st *memStore, user uuid.UUID) *gin.Engine {
	r := gin.New()

	RegisterAuthRoutes(r, st, 72*time.Hour)
	RegisterCheckInRoute(r, st)
	RegisterStatsRoute(r, st)
	RegisterScannerRoutes(r, st)

	member := r.Group("/")
	member.Use(func(c *gin.Context) { auth.SetUserID(c, user) })
	RegisterLogoutRoute(member, st)
	RegisterPartyRoutes(member, st)
	RegisterGuestRoutes(member, st)
	RegisterToggleRoute(member, st)
	RegisterExportRoute(member, st)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if ct := w.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func seedUser(t *testing.T, st *memStore, username string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("hunter2secret")
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func seedParty(t *testing.T, st *memStore, owner uuid.UUID, name string) models.Party {
	t.Helper()
	p := models.Party{
		ID:              uuid.New(),
		Name:            name,
		PartyCode:       newPartyCode(),
		ShareCode:       newShareCode(),
		ShareableLinkID: newLinkID(),
		OwnerID:         owner,
		ShowGuestCount:  true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := st.CreateParty(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func seedGuest(t *testing.T, st *memStore, party uuid.UUID, addedBy uuid.UUID, name string) models.Guest {
	t.Helper()
	g := models.Guest{
		ID:        uuid.New(),
		PartyID:   party,
		Name:      name,
		QRHash:    newQRHash(),
		AddedBy:   addedBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateGuest(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	return g
}
