package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus represents the processing state of an image analysis.
type AnalysisStatus string

// Possible analysis status values
const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Common validation errors for Analysis
var (
	ErrEmptyAnalysisID       = errors.New("analysis ID cannot be empty")
	ErrEmptyAnalysisUserID   = errors.New("analysis user ID cannot be empty")
	ErrEmptyAnalysisPrompt   = errors.New("analysis prompt cannot be empty")
	ErrEmptyAnalysisModel    = errors.New("analysis model cannot be empty")
	ErrEmptyAnalysisLabel    = errors.New("analysis label cannot be empty")
	ErrInvalidAnalysisStatus = errors.New("invalid analysis status")
)

// Analysis represents one image-analysis request and its outcome. It records
// what was asked (prompt, model) and what came back (label, timing) or why it
// failed, so users can browse their history without re-running inference.
type Analysis struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	Prompt           string         `json:"prompt"`
	Label            string         `json:"label,omitempty"`
	Model            string         `json:"model"`
	Status           AnalysisStatus `json:"status"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewAnalysis creates a pending Analysis for the given user, prompt, and
// model. It generates a new UUID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewAnalysis(userID uuid.UUID, prompt, model string) (*Analysis, error) {
	now := time.Now().UTC()
	analysis := &Analysis{
		ID:        uuid.New(),
		UserID:    userID,
		Prompt:    prompt,
		Model:     model,
		Status:    AnalysisStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	return analysis, nil
}

// Validate checks if the Analysis has valid data.
// Returns an error if any field fails validation.
func (a *Analysis) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAnalysisID
	}

	if a.UserID == uuid.Nil {
		return ErrEmptyAnalysisUserID
	}

	if a.Prompt == "" {
		return ErrEmptyAnalysisPrompt
	}

	if a.Model == "" {
		return ErrEmptyAnalysisModel
	}

	if !isValidAnalysisStatus(a.Status) {
		return ErrInvalidAnalysisStatus
	}

	return nil
}

// MarkCompleted records a successful inference outcome: the model's label and
// the processing time in milliseconds. Returns an error if the label is empty.
func (a *Analysis) MarkCompleted(label string, processingTimeMs int64) error {
	if label == "" {
		return ErrEmptyAnalysisLabel
	}

	a.Status = AnalysisStatusCompleted
	a.Label = label
	a.ErrorMessage = ""
	a.ProcessingTimeMs = processingTimeMs
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed records a failed inference outcome with a sanitized message
// suitable for showing back to the user.
func (a *Analysis) MarkFailed(message string) {
	a.Status = AnalysisStatusFailed
	a.ErrorMessage = message
	a.UpdatedAt = time.Now().UTC()
}

// isValidAnalysisStatus checks if the given status is a valid AnalysisStatus.
func isValidAnalysisStatus(status AnalysisStatus) bool {
	switch status {
	case AnalysisStatusPending, AnalysisStatusCompleted, AnalysisStatusFailed:
		return true
	default:
		return false
	}
}
