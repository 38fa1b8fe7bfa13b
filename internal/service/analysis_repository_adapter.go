package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/store"
)

// NewAnalysisRepositoryAdapter creates a new adapter that allows a
// store.AnalysisStore to be used where an AnalysisRepository is expected.
func NewAnalysisRepositoryAdapter(analysisStore store.AnalysisStore, db *sql.DB) AnalysisRepository {
	return &analysisRepositoryAdapter{
		analysisStore: analysisStore,
		db:            db,
	}
}

// analysisRepositoryAdapter adapts a store.AnalysisStore to the
// AnalysisRepository interface
type analysisRepositoryAdapter struct {
	analysisStore store.AnalysisStore
	db            *sql.DB
}

// Create implements AnalysisRepository.Create
func (a *analysisRepositoryAdapter) Create(ctx context.Context, analysis *domain.Analysis) error {
	return a.analysisStore.Create(ctx, analysis)
}

// GetByID implements AnalysisRepository.GetByID
func (a *analysisRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	return a.analysisStore.GetByID(ctx, id)
}

// Update implements AnalysisRepository.Update
func (a *analysisRepositoryAdapter) Update(ctx context.Context, analysis *domain.Analysis) error {
	return a.analysisStore.Update(ctx, analysis)
}

// ListByUserID implements AnalysisRepository.ListByUserID
func (a *analysisRepositoryAdapter) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Analysis, error) {
	return a.analysisStore.ListByUserID(ctx, userID, limit, offset)
}

// Delete implements AnalysisRepository.Delete
func (a *analysisRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.analysisStore.Delete(ctx, id)
}

// WithTx implements AnalysisRepository.WithTx
func (a *analysisRepositoryAdapter) WithTx(tx *sql.Tx) AnalysisRepository {
	return &analysisRepositoryAdapter{
		analysisStore: a.analysisStore.WithTx(tx),
		db:            a.db,
	}
}

// DB implements AnalysisRepository.DB
func (a *analysisRepositoryAdapter) DB() *sql.DB {
	return a.db
}
