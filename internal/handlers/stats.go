package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/store"
)

// RegisterStatsRoute registers the public attendance counters endpoint.
// Public so scanner stations can poll it without a session.
//
// GET /api/parties/:id/stats
func RegisterStatsRoute(r gin.IRoutes, st store.CheckInStore) {
	r.GET("/api/parties/:id/stats", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok {
			return
		}
		stats, err := st.PartyStats(c.Request.Context(), id)
		if err != nil {
			storeError(c, err, "party not found")
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}

// RegisterExportRoute registers the CSV guest-list export for members.
//
// GET /api/parties/:id/export/csv
func RegisterExportRoute(r gin.IRoutes, st store.Store) {
	r.GET("/api/parties/:id/export/csv", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		guests, err := st.AllGuests(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=guest_list_%s.csv", id))
		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"Name", "Entered", "Check-in time", "Added by"})

		// Usernames resolve through a small cache so the export does
		// one lookup per distinct collaborator, not per guest.
		names := map[uuid.UUID]string{}
		for _, g := range guests {
			entered := "no"
			if g.Entered {
				entered = "yes"
			}
			when := ""
			if g.CheckInTime != nil {
				when = g.CheckInTime.Format(checkInTimeLayout)
			}
			by, cached := names[g.AddedBy]
			if !cached {
				if u, err := st.GetUserByID(c.Request.Context(), g.AddedBy); err == nil {
					by = u.Username
				} else {
					by = "unknown"
				}
				names[g.AddedBy] = by
			}
			_ = w.Write([]string{g.Name, entered, when, by})
		}
		w.Flush()
	})
}
