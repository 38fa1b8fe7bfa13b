package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/platform/logger"
	"github.com/irislabs/iris-api/internal/store"
)

// PostgresAnalysisStore implements the store.AnalysisStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAnalysisStore creates a new PostgreSQL implementation of the
// AnalysisStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil,
// the default logger is used.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// Ensure PostgresAnalysisStore implements store.AnalysisStore interface
var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// Create implements store.AnalysisStore.Create
// Returns validation errors from the domain Analysis if data is invalid.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key
// violation).
func (s *PostgresAnalysisStore) Create(ctx context.Context, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := analysis.Validate(); err != nil {
		log.Warn("analysis validation failed during create",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()))
		return err
	}

	query := `
		INSERT INTO analyses (id, user_id, prompt, label, model, status,
			error_message, processing_time_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		analysis.ID,
		analysis.UserID,
		analysis.Prompt,
		analysis.Label,
		analysis.Model,
		analysis.Status,
		analysis.ErrorMessage,
		analysis.ProcessingTimeMs,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during analysis creation",
				slog.String("error", err.Error()),
				slog.String("analysis_id", analysis.ID.String()),
				slog.String("user_id", analysis.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, analysis.UserID)
		}

		log.Error("failed to create analysis",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()),
			slog.String("user_id", analysis.UserID.String()))
		return err
	}

	log.Info("analysis created successfully",
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("user_id", analysis.UserID.String()),
		slog.String("status", string(analysis.Status)))
	return nil
}

// GetByID implements store.AnalysisStore.GetByID
// Returns store.ErrAnalysisNotFound if the analysis does not exist.
func (s *PostgresAnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, prompt, label, model, status,
			error_message, processing_time_ms, created_at, updated_at
		FROM analyses
		WHERE id = $1
	`

	analysis, err := scanAnalysis(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("analysis not found", slog.String("analysis_id", id.String()))
			return nil, store.ErrAnalysisNotFound
		}
		log.Error("failed to get analysis by ID",
			slog.String("error", err.Error()),
			slog.String("analysis_id", id.String()))
		return nil, err
	}

	return analysis, nil
}

// Update implements store.AnalysisStore.Update
// It persists the outcome fields recorded on the analysis (status, label,
// error message, timing). Returns store.ErrAnalysisNotFound if the analysis
// does not exist.
func (s *PostgresAnalysisStore) Update(ctx context.Context, analysis *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := analysis.Validate(); err != nil {
		log.Warn("analysis validation failed during update",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()))
		return err
	}

	query := `
		UPDATE analyses
		SET label = $1, status = $2, error_message = $3,
			processing_time_ms = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		analysis.Label,
		analysis.Status,
		analysis.ErrorMessage,
		analysis.ProcessingTimeMs,
		analysis.UpdatedAt,
		analysis.ID,
	)

	if err != nil {
		log.Error("failed to update analysis",
			slog.String("error", err.Error()),
			slog.String("analysis_id", analysis.ID.String()),
			slog.String("status", string(analysis.Status)))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrAnalysisNotFound); err != nil {
		log.Debug("analysis not found for update",
			slog.String("analysis_id", analysis.ID.String()))
		return err
	}

	log.Info("analysis updated successfully",
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("status", string(analysis.Status)))
	return nil
}

// ListByUserID implements store.AnalysisStore.ListByUserID
// It retrieves analyses belonging to the given user, newest first.
// Returns an empty slice if no analyses match.
func (s *PostgresAnalysisStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20 // Default page size
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, prompt, label, model, status,
			error_message, processing_time_ms, created_at, updated_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query analyses by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	analyses := []*domain.Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			log.Error("failed to scan analysis row",
				slog.String("error", err.Error()))
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed analyses by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(analyses)))
	return analyses, nil
}

// Delete implements store.AnalysisStore.Delete
// Returns store.ErrAnalysisNotFound if the analysis does not exist.
func (s *PostgresAnalysisStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM analyses WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete analysis",
			slog.String("error", err.Error()),
			slog.String("analysis_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, store.ErrAnalysisNotFound); err != nil {
		log.Debug("analysis not found for delete",
			slog.String("analysis_id", id.String()))
		return err
	}

	log.Info("analysis deleted successfully",
		slog.String("analysis_id", id.String()))
	return nil
}

// WithTx implements store.AnalysisStore.WithTx
// It returns an AnalysisStore bound to the provided transaction.
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAnalysis reads one analysis row in the column order used by all
// queries in this file.
func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var analysis domain.Analysis
	var status string

	err := row.Scan(
		&analysis.ID,
		&analysis.UserID,
		&analysis.Prompt,
		&analysis.Label,
		&analysis.Model,
		&status,
		&analysis.ErrorMessage,
		&analysis.ProcessingTimeMs,
		&analysis.CreatedAt,
		&analysis.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	analysis.Status = domain.AnalysisStatus(status)
	return &analysis, nil
}
