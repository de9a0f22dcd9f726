package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdvisorInput defines the JSON body for the nutrition advisor.
type AdvisorInput struct {
	Question string `json:"question" binding:"required"`
	Model    string `json:"model"`
}

// NutritionAdvisor is the handler for POST /v1/ai/advisor.
// Pure pass-through to Gemini with catalog context.
func (h *Handlers) NutritionAdvisor(c *gin.Context) {
	var input AdvisorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.AIService.GenerateAdvice(c.Request.Context(), input.Question, input.Model)
	if err != nil {
		log.Printf("ai-advisor: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Advisor is unavailable right now"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
