package handlers

import (
	"database/sql"

	"github.com/drxlabs/drx-store-golang/internal/ai"
	"github.com/drxlabs/drx-store-golang/internal/ratelimit"
	"github.com/drxlabs/drx-store-golang/internal/tracking"
	"github.com/drxlabs/drx-store-golang/internal/verification"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB        *sql.DB
	Verifier  *verification.Service
	Tracker   *tracking.Service
	Limiter   ratelimit.Limiter // guards the verify endpoint; the Tracker carries its own gate
	AIService *ai.AIService
}
