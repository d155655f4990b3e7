package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/models"
	"github.com/qrpass/checkin-service/internal/store"
)

type partyCreateRequest struct {
	Name string `json:"name"`
}

type partyDetailsRequest struct {
	PublicDescription string `json:"public_description"`
	ShowGuestCount    *bool  `json:"show_guest_count"`
}

type collaborateRequest struct {
	ShareCode string `json:"share_code"`
}

// RegisterPartyRoutes registers party management. All routes require an
// authenticated user; mutations beyond creation require membership.
func RegisterPartyRoutes(r gin.IRoutes, st store.Store) {
	r.POST("/api/parties", func(c *gin.Context) {
		var req partyCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" || len(name) > 120 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "party name must be 1-120 characters"})
			return
		}

		party, err := createPartyWithFreshCodes(c, st, name, auth.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create party"})
			return
		}
		c.JSON(http.StatusCreated, party)
	})

	r.GET("/api/parties", func(c *gin.Context) {
		parties, err := st.ListPartiesForUser(c.Request.Context(), auth.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		if parties == nil {
			parties = []models.Party{}
		}
		c.JSON(http.StatusOK, gin.H{"parties": parties})
	})

	r.GET("/api/parties/:id", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}
		party, err := st.GetParty(c.Request.Context(), id)
		if err != nil {
			storeError(c, err, "party not found")
			return
		}
		c.JSON(http.StatusOK, party)
	})

	r.DELETE("/api/parties/:id", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok {
			return
		}
		// Owner-only: the store matches on owner_id, so a collaborator's
		// delete is reported as forbidden rather than not-found.
		err := st.DeleteParty(c.Request.Context(), id, auth.UserID(c))
		if errors.Is(err, store.ErrNotFound) {
			if _, getErr := st.GetParty(c.Request.Context(), id); getErr == nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "only the party owner can delete it"})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "party not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "party removed"})
	})

	r.PUT("/api/parties/:id/details", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}
		var req partyDetailsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		show := true
		if req.ShowGuestCount != nil {
			show = *req.ShowGuestCount
		}
		if err := st.UpdatePartyDetails(c.Request.Context(), id, req.PublicDescription, show); err != nil {
			storeError(c, err, "party not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "party details updated"})
	})

	r.POST("/api/parties/collaborate", func(c *gin.Context) {
		var req collaborateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		party, err := st.GetPartyByShareCode(c.Request.Context(), strings.TrimSpace(req.ShareCode))
		if err != nil {
			storeError(c, err, "invalid share code")
			return
		}

		userID := auth.UserID(c)
		if party.OwnerID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "you already own this party"})
			return
		}
		if err := st.AddCollaborator(c.Request.Context(), party.ID, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("you are now a collaborator on %q", party.Name),
			"party":   party.Summary(),
		})
	})
}

// createPartyWithFreshCodes retries code generation on the rare collision.
func createPartyWithFreshCodes(c *gin.Context, st store.PartyStore, name string, owner uuid.UUID) (models.Party, error) {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		party := models.Party{
			ID:              uuid.New(),
			Name:            name,
			PartyCode:       newPartyCode(),
			ShareCode:       newShareCode(),
			ShareableLinkID: newLinkID(),
			OwnerID:         owner,
			ShowGuestCount:  true,
			CreatedAt:       time.Now().UTC(),
		}
		err = st.CreateParty(c.Request.Context(), party)
		if err == nil {
			return party, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return models.Party{}, err
		}
	}
	return models.Party{}, err
}
