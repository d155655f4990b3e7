package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/qrpass/checkin-service/internal/store"
)

// RegisterScannerRoutes registers the endpoints scanner stations use to
// bootstrap: resolving a party code to an ID, and rendering credentials
// as QR images. Both are public.
//
// GET /api/scanner/party?code=ABC123
// GET /qr/:qrHash.png
func RegisterScannerRoutes(r gin.IRoutes, st store.Store) {
	r.GET("/api/scanner/party", func(c *gin.Context) {
		code := strings.ToUpper(strings.TrimSpace(c.Query("code")))
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code query parameter is required"})
			return
		}
		party, err := st.GetPartyByCode(c.Request.Context(), code)
		if err != nil {
			storeError(c, err, "no party with that code")
			return
		}
		c.JSON(http.StatusOK, party.Summary())
	})

	r.GET("/qr/:qrHash", func(c *gin.Context) {
		hash := strings.TrimSuffix(c.Param("qrHash"), ".png")
		if _, err := st.FindGuestByHash(c.Request.Context(), hash); err != nil {
			storeError(c, err, "unknown credential")
			return
		}
		png, err := qrcode.Encode(hash, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render QR code"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})
}
