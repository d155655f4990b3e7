package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/models"
	"github.com/qrpass/checkin-service/internal/store"
)

// RegisterGuestRoutes registers the guest CRUD surface. All routes require
// party membership.
//
// POST   /api/parties/:id/guests
// GET    /api/parties/:id/guests
// PUT    /api/parties/:id/guests/:qrHash/edit
// DELETE /api/parties/:id/guests/:qrHash
func RegisterGuestRoutes(r gin.IRoutes, st store.Store) {
	r.POST("/api/parties/:id/guests", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		var req models.GuestCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest name is required"})
			return
		}
		if len(name) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest name must be at most 100 characters"})
			return
		}

		guest, err := createGuestWithFreshHash(c, st, id, name, auth.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create guest"})
			return
		}
		c.JSON(http.StatusCreated, guest)
	})

	r.GET("/api/parties/:id/guests", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		q := models.ListQuery{
			Search:  strings.TrimSpace(c.Query("search")),
			SortBy:  c.DefaultQuery("sort_by", "name"),
			SortDir: c.DefaultQuery("sort_dir", "asc"),
			Page:    intQuery(c, "page", 1),
			PerPage: intQuery(c, "per_page", 50),
		}

		page, err := st.ListGuests(c.Request.Context(), id, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, page)
	})

	r.PUT("/api/parties/:id/guests/:qrHash/edit", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		var req models.GuestCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest name is required"})
			return
		}

		guest, err := st.RenameGuest(c.Request.Context(), id, c.Param("qrHash"), name)
		if err != nil {
			storeError(c, err, "guest not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"guest":   guest,
			"message": "guest name updated",
		})
	})

	r.DELETE("/api/parties/:id/guests/:qrHash", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		name, err := st.DeleteGuest(c.Request.Context(), id, c.Param("qrHash"))
		if err != nil {
			storeError(c, err, "guest not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("guest %s removed", name)})
	})
}

// createGuestWithFreshHash retries credential generation on the rare
// collision so a credential is never shared between guests.
func createGuestWithFreshHash(c *gin.Context, st store.GuestStore, party uuid.UUID, name string, addedBy uuid.UUID) (models.Guest, error) {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		guest := models.Guest{
			ID:        uuid.New(),
			PartyID:   party,
			Name:      name,
			QRHash:    newQRHash(),
			AddedBy:   addedBy,
			CreatedAt: time.Now().UTC(),
		}
		err = st.CreateGuest(c.Request.Context(), guest)
		if err == nil {
			return guest, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return models.Guest{}, err
		}
	}
	return models.Guest{}, err
}

func intQuery(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
