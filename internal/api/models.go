package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT used for API authorization.
	AccessToken string `json:"token"`

	// RefreshToken is the JWT used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the RFC 3339 timestamp when the access token expires.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint. Both tokens are rotated on every refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// AnalyzeRequest defines the payload for submitting an image for analysis.
type AnalyzeRequest struct {
	// Prompt optionally directs the model. A default question is applied
	// when empty.
	Prompt string `json:"prompt" validate:"omitempty,max=2000"`

	// Image is the base64-encoded image payload.
	Image string `json:"image" validate:"required,base64"`
}

// AnalysisResponse represents the response data for an analysis.
type AnalysisResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Prompt           string    `json:"prompt"`
	Label            string    `json:"label,omitempty"`
	Model            string    `json:"model"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ListAnalysesResponse wraps one page of the user's analyses.
type ListAnalysesResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
