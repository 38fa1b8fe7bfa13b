package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/gateway"
	"github.com/irislabs/iris-api/internal/platform/ollama"
	"github.com/irislabs/iris-api/internal/redact"
	"github.com/irislabs/iris-api/internal/store"
)

// defaultPrompt is applied when a request omits the prompt.
const defaultPrompt = "What is in this image?"

// AnalysisRepository defines the repository interface for the service layer.
// It is aligned with store.AnalysisStore plus the handles needed for
// transactional operations.
type AnalysisRepository interface {
	// Create saves a new analysis to the store
	Create(ctx context.Context, analysis *domain.Analysis) error

	// GetByID retrieves an analysis by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)

	// Update saves changes to an existing analysis
	Update(ctx context.Context, analysis *domain.Analysis) error

	// ListByUserID retrieves a page of a user's analyses, newest first
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, error)

	// Delete removes an analysis by its unique ID
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) AnalysisRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// InferenceClient is the surface of the model backend the service consumes.
// *ollama.Client satisfies it.
type InferenceClient interface {
	// Probe reports backend reachability and model readiness; err is nil
	// only when both hold.
	Probe(ctx context.Context) (reachable bool, modelReady bool, err error)

	// Generate performs one inference call.
	Generate(ctx context.Context, prompt string, images []string) (*ollama.GenerateResult, error)

	// Model returns the configured model name.
	Model() string
}

// AnalysisService provides image analysis operations.
type AnalysisService interface {
	// Analyze runs one inference request through the gateway and records the
	// outcome. It blocks until the submission resolves (executed, expired in
	// queue, or rejected) and returns the completed analysis or the
	// submission's terminal error.
	Analyze(ctx context.Context, userID uuid.UUID, prompt, imageB64 string) (*domain.Analysis, error)

	// GetAnalysis retrieves an analysis owned by the given user.
	GetAnalysis(ctx context.Context, userID, analysisID uuid.UUID) (*domain.Analysis, error)

	// ListAnalyses retrieves a page of the user's analyses, newest first.
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, error)

	// DeleteAnalysis removes an analysis owned by the given user.
	DeleteAnalysis(ctx context.Context, userID, analysisID uuid.UUID) error
}

// AnalysisServiceError wraps errors from the analysis service with context.
type AnalysisServiceError struct {
	// Operation is the operation that failed (e.g., "analyze", "delete_analysis")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for AnalysisServiceError.
func (e *AnalysisServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AnalysisServiceError) Unwrap() error {
	return e.Err
}

// NewAnalysisServiceError creates a new AnalysisServiceError.
// It returns known sentinel errors directly without wrapping.
func NewAnalysisServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAnalysisNotFound) || errors.Is(err, ErrNotOwned) {
		return err
	}
	if errors.Is(err, store.ErrAnalysisNotFound) {
		return ErrAnalysisNotFound
	}

	return &AnalysisServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// analysisServiceImpl implements the AnalysisService interface
type analysisServiceImpl struct {
	analysisRepo AnalysisRepository
	gateway      *gateway.Gateway
	inference    InferenceClient
	logger       *slog.Logger
}

var _ AnalysisService = (*analysisServiceImpl)(nil)

// NewAnalysisService creates a new AnalysisService.
// It returns an error if any of the required dependencies are nil.
func NewAnalysisService(
	analysisRepo AnalysisRepository,
	gw *gateway.Gateway,
	inference InferenceClient,
	logger *slog.Logger,
) (AnalysisService, error) {
	if analysisRepo == nil {
		return nil, &AnalysisServiceError{
			Operation: "create_service",
			Message:   "analysisRepo cannot be nil",
		}
	}
	if gw == nil {
		return nil, &AnalysisServiceError{
			Operation: "create_service",
			Message:   "gateway cannot be nil",
		}
	}
	if inference == nil {
		return nil, &AnalysisServiceError{
			Operation: "create_service",
			Message:   "inference client cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &analysisServiceImpl{
		analysisRepo: analysisRepo,
		gateway:      gw,
		inference:    inference,
		logger:       logger.With(slog.String("component", "analysis_service")),
	}, nil
}

// Analyze persists a pending analysis, submits the inference work to the
// gateway, and records the outcome once the submission resolves.
func (s *analysisServiceImpl) Analyze(
	ctx context.Context,
	userID uuid.UUID,
	prompt, imageB64 string,
) (*domain.Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}

	analysis, err := domain.NewAnalysis(userID, prompt, s.inference.Model())
	if err != nil {
		return nil, NewAnalysisServiceError("analyze", "failed to create analysis object", err)
	}

	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		s.logger.Error("failed to persist pending analysis",
			"error", err,
			"analysis_id", analysis.ID,
			"user_id", userID)
		return nil, NewAnalysisServiceError("analyze", "failed to save analysis", err)
	}

	var images []string
	if imageB64 != "" {
		images = []string{imageB64}
	}

	work := func(ctx context.Context) (*ollama.GenerateResult, error) {
		// Availability can change while the submission waits in the queue,
		// so the backend is re-probed inside the admitted unit of work.
		if _, _, probeErr := s.inference.Probe(ctx); probeErr != nil {
			return nil, probeErr
		}
		return s.inference.Generate(ctx, prompt, images)
	}

	res := <-gateway.Submit(s.gateway, ctx, work)
	return s.recordOutcome(ctx, analysis, res.Value, res.Err)
}

// recordOutcome writes the submission's terminal state to the analysis row.
// The write uses a context detached from the request's cancellation: the
// outcome is recorded even when the caller has gone away.
func (s *analysisServiceImpl) recordOutcome(
	ctx context.Context,
	analysis *domain.Analysis,
	result *ollama.GenerateResult,
	workErr error,
) (*domain.Analysis, error) {
	persistCtx := context.WithoutCancel(ctx)

	if workErr != nil {
		analysis.MarkFailed(redact.Error(workErr))
		if err := s.analysisRepo.Update(persistCtx, analysis); err != nil {
			s.logger.Error("failed to record failed analysis",
				"error", err,
				"analysis_id", analysis.ID)
		}
		s.logger.Info("analysis failed",
			"analysis_id", analysis.ID,
			"user_id", analysis.UserID,
			"error", workErr)
		return nil, workErr
	}

	if err := analysis.MarkCompleted(result.Response, result.ProcessingTimeMs); err != nil {
		return nil, NewAnalysisServiceError("analyze", "failed to apply analysis result", err)
	}
	if err := s.analysisRepo.Update(persistCtx, analysis); err != nil {
		s.logger.Error("failed to record completed analysis",
			"error", err,
			"analysis_id", analysis.ID)
		return nil, NewAnalysisServiceError("analyze", "failed to save analysis result", err)
	}

	s.logger.Info("analysis completed",
		"analysis_id", analysis.ID,
		"user_id", analysis.UserID,
		"processing_time_ms", analysis.ProcessingTimeMs)
	return analysis, nil
}

// GetAnalysis retrieves an analysis and enforces ownership.
func (s *analysisServiceImpl) GetAnalysis(
	ctx context.Context,
	userID, analysisID uuid.UUID,
) (*domain.Analysis, error) {
	analysis, err := s.analysisRepo.GetByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, store.ErrAnalysisNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, NewAnalysisServiceError("get_analysis", "failed to retrieve analysis", err)
	}

	if analysis.UserID != userID {
		s.logger.Warn("analysis access denied",
			"analysis_id", analysisID,
			"owner_id", analysis.UserID,
			"requester_id", userID)
		return nil, ErrNotOwned
	}

	return analysis, nil
}

// ListAnalyses retrieves a page of the user's analyses, newest first.
func (s *analysisServiceImpl) ListAnalyses(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Analysis, error) {
	analyses, err := s.analysisRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewAnalysisServiceError("list_analyses", "failed to list analyses", err)
	}
	return analyses, nil
}

// DeleteAnalysis removes an analysis after verifying ownership. The check
// and the delete run in one transaction.
func (s *analysisServiceImpl) DeleteAnalysis(
	ctx context.Context,
	userID, analysisID uuid.UUID,
) error {
	return store.RunInTransaction(
		ctx,
		s.analysisRepo.DB(),
		func(ctx context.Context, tx *sql.Tx) error {
			txRepo := s.analysisRepo.WithTx(tx)

			analysis, err := txRepo.GetByID(ctx, analysisID)
			if err != nil {
				if errors.Is(err, store.ErrAnalysisNotFound) {
					return ErrAnalysisNotFound
				}
				return NewAnalysisServiceError("delete_analysis", "failed to retrieve analysis", err)
			}

			if analysis.UserID != userID {
				s.logger.Warn("analysis delete denied",
					"analysis_id", analysisID,
					"owner_id", analysis.UserID,
					"requester_id", userID)
				return ErrNotOwned
			}

			if err := txRepo.Delete(ctx, analysisID); err != nil {
				return NewAnalysisServiceError("delete_analysis", "failed to delete analysis", err)
			}

			s.logger.Info("analysis deleted",
				"analysis_id", analysisID,
				"user_id", userID)
			return nil
		},
	)
}
