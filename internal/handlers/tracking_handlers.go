package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drxlabs/drx-store-golang/internal/tracking"
)

// TrackOrderInput carries the full plaintext tracking token. The short
// DRX-TRK display number is not accepted here.
type TrackOrderInput struct {
	TrackingToken *string `json:"trackingToken"`
}

// TrackOrder is the handler for POST /v1/orders/track.
// It resolves a bearer token to the guest-safe order projection.
func (h *Handlers) TrackOrder(c *gin.Context) {
	// 1. --- Parse Input ---
	var input TrackOrderInput
	if err := c.ShouldBindJSON(&input); err != nil || input.TrackingToken == nil || *input.TrackingToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tracking token is required", "order": nil})
		return
	}

	// 2. --- Lookup (records the attempt, gates by address) ---
	view, err := h.Tracker.Lookup(c.Request.Context(), c.ClientIP(), *input.TrackingToken)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts", "order": nil})
		case errors.Is(err, tracking.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tracking token", "order": nil})
		case errors.Is(err, tracking.ErrOrderNotFound):
			// Also covers tokens pointing at authenticated-owner orders.
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "order": nil})
		default:
			log.Printf("track-order: lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "order": nil})
		}
		return
	}

	// 3. --- Success: minimal projection only ---
	c.JSON(http.StatusOK, gin.H{"order": view})
}
