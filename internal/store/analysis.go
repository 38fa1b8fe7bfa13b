package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/irislabs/iris-api/internal/domain"
)

// AnalysisStore defines the interface for analysis data persistence.
type AnalysisStore interface {
	// Create saves a new analysis to the store.
	// Returns validation errors from the domain Analysis if data is invalid.
	Create(ctx context.Context, analysis *domain.Analysis) error

	// GetByID retrieves an analysis by its unique ID.
	// Returns ErrAnalysisNotFound if the analysis does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)

	// Update persists the current state of an existing analysis, typically
	// after the inference outcome has been recorded on it.
	// Returns ErrAnalysisNotFound if the analysis does not exist.
	Update(ctx context.Context, analysis *domain.Analysis) error

	// ListByUserID retrieves analyses belonging to the given user, newest
	// first, bounded by limit and offset.
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, error)

	// Delete removes an analysis from the store by its ID.
	// Returns ErrAnalysisNotFound if the analysis does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns an AnalysisStore bound to the provided transaction. The
	// transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) AnalysisStore
}
