package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/store"
)

// partyID parses the :id route param. Writes a 400 and returns false when it
// is not a UUID.
func partyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party id"})
		return uuid.Nil, false
	}
	return id, true
}

// requireMember checks that the authenticated user owns or collaborates on
// the party. Writes the error response itself when the check fails.
func requireMember(c *gin.Context, st store.PartyStore, party uuid.UUID) bool {
	userID := auth.UserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}

	member, err := st.IsMember(c.Request.Context(), party, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this party"})
		return false
	}
	return true
}

// storeError maps store sentinel errors to HTTP responses.
func storeError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
	}
}
