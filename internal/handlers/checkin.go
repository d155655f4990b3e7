package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qrpass/checkin-service/internal/models"
	"github.com/qrpass/checkin-service/internal/store"
)

const checkInTimeLayout = "02/01/2006 15:04:05"

// RegisterCheckInRoute registers the public entry endpoint scanned
// credentials are posted to. No auth: scanner stations run unattended.
//
// POST /api/parties/:id/guests/:qrHash/enter
func RegisterCheckInRoute(r gin.IRoutes, st store.CheckInStore) {
	r.POST("/api/parties/:id/guests/:qrHash/enter", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok {
			return
		}

		guest, isNew, err := st.CheckIn(c.Request.Context(), id, c.Param("qrHash"), time.Now().UTC())
		if err != nil {
			storeError(c, err, "Invalid QR code for this party")
			return
		}

		resp := models.CheckInResponse{
			ID:          guest.ID,
			Name:        guest.Name,
			QRHash:      guest.QRHash,
			Entered:     guest.Entered,
			IsNewEntry:  isNew,
			CheckInTime: guest.CheckInTime,
		}
		if isNew {
			resp.Message = fmt.Sprintf("Entry approved! Welcome, %s!", guest.Name)
		} else {
			when := "an unknown time"
			if guest.CheckInTime != nil {
				when = guest.CheckInTime.Format(checkInTimeLayout)
			}
			resp.Message = fmt.Sprintf("%s already checked in at %s.", guest.Name, when)
		}
		c.JSON(http.StatusOK, resp)
	})
}

// RegisterToggleRoute registers the manual override used from the guest
// list. Unlike check-in it flips unconditionally, so a mistaken scan can
// be undone. Requires party membership.
//
// PUT /api/parties/:id/guests/:qrHash/toggle_entry
func RegisterToggleRoute(r gin.IRoutes, st store.Store) {
	r.PUT("/api/parties/:id/guests/:qrHash/toggle_entry", func(c *gin.Context) {
		id, ok := partyID(c)
		if !ok || !requireMember(c, st, id) {
			return
		}

		guest, err := st.ToggleEntry(c.Request.Context(), id, c.Param("qrHash"), time.Now().UTC())
		if err != nil {
			storeError(c, err, "guest not found")
			return
		}

		status := "ABSENT"
		if guest.Entered {
			status = "PRESENT"
		}
		c.JSON(http.StatusOK, models.ToggleResponse{
			ID:          guest.ID,
			Name:        guest.Name,
			QRHash:      guest.QRHash,
			Entered:     guest.Entered,
			Message:     fmt.Sprintf("Status for %s updated: marked as %s.", guest.Name, status),
			CheckInTime: guest.CheckInTime,
		})
	})
}
