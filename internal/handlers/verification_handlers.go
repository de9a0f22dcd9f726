package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drxlabs/drx-store-golang/internal/verification"
)

// VerifyCodeInput uses a pointer so a missing or non-string "code" is
// distinguishable from an empty one at the parse step.
type VerifyCodeInput struct {
	Code *string `json:"code"`
}

// VerifyCode is the handler for POST /v1/verify-code.
// It redeems a product-authenticity code printed on physical packaging.
func (h *Handlers) VerifyCode(c *gin.Context) {
	// 1. --- Parse Input ---
	var input VerifyCodeInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Code == nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "reason": "invalid_input"})
		return
	}

	// 2. --- Rate-Limit Gate (per caller address) ---
	allowed, err := h.Limiter.RecordAndCheck(c.Request.Context(), "verify:"+c.ClientIP())
	if err != nil {
		log.Printf("verify-code: rate limit check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "reason": "server_error"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"valid": false, "reason": "rate_limited"})
		return
	}

	// 3. --- Redeem ---
	result, err := h.Verifier.Redeem(c.Request.Context(), *input.Code)
	if err != nil {
		// Storage failure or invariant violation. The raw input is
		// never logged; the normalized form is format-checked only.
		log.Printf("verify-code: redemption failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "reason": "server_error"})
		return
	}

	// 4. --- Shape the Response ---
	if result.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": true, "code": result.Code})
		return
	}

	resp := gin.H{"valid": false, "reason": result.Reason}
	if result.Reason == verification.ReasonAlreadyUsed && result.UsedAt != nil {
		resp["usedAt"] = result.UsedAt
	}
	c.JSON(http.StatusOK, resp)
}
