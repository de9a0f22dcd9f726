package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drxlabs/drx-store-golang/internal/auth"
	"github.com/drxlabs/drx-store-golang/internal/models"
)

//
// --- Auth Handlers ---
//

// RegisterUserInput holds the *input* from the user. This is separate
// from models.User because we don't accept an id or role from clients.
type RegisterUserInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /v1/register.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 3. --- Save to Database ---
	now := time.Now()
	query := `
		INSERT INTO users (role, email, password_hash, full_name, created_at, updated_at)
		VALUES ('customer', ?, ?, ?, ?, ?)`

	result, err := h.DB.Exec(query, input.Email, password.Hash, input.FullName, now, now)
	if err != nil {
		// Unique email constraint collision is the common failure here.
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new user ID"})
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"userId":  userID,
	})
}

// LoginInput defines the JSON body for logging in.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find User ---
	var user models.User
	query := "SELECT id, role, email, password_hash, full_name FROM users WHERE email = ?"
	err := h.DB.QueryRow(query, input.Email).Scan(
		&user.ID, &user.Role, &user.Email, &user.PasswordHash, &user.FullName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// 3. --- Check Password ---
	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 4. --- Generate Token ---
	tokenString, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"user": gin.H{
			"id":       user.ID,
			"role":     user.Role,
			"email":    user.Email,
			"fullName": user.FullName,
		},
	})
}
