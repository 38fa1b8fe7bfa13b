package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/irislabs/iris-api/internal/domain"
)

// MockAnalysisService implements service.AnalysisService for testing.
type MockAnalysisService struct {
	AnalyzeFn        func(ctx context.Context, userID uuid.UUID, prompt, imageB64 string) (*domain.Analysis, error)
	GetAnalysisFn    func(ctx context.Context, userID, analysisID uuid.UUID) (*domain.Analysis, error)
	ListAnalysesFn   func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Analysis, error)
	DeleteAnalysisFn func(ctx context.Context, userID, analysisID uuid.UUID) error

	// Defaults used when the function fields above are nil.
	Analysis *domain.Analysis
	Analyses []*domain.Analysis
	Err      error
}

// Analyze implements the service.AnalysisService interface.
func (m *MockAnalysisService) Analyze(
	ctx context.Context,
	userID uuid.UUID,
	prompt, imageB64 string,
) (*domain.Analysis, error) {
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, userID, prompt, imageB64)
	}
	return m.Analysis, m.Err
}

// GetAnalysis implements the service.AnalysisService interface.
func (m *MockAnalysisService) GetAnalysis(
	ctx context.Context,
	userID, analysisID uuid.UUID,
) (*domain.Analysis, error) {
	if m.GetAnalysisFn != nil {
		return m.GetAnalysisFn(ctx, userID, analysisID)
	}
	return m.Analysis, m.Err
}

// ListAnalyses implements the service.AnalysisService interface.
func (m *MockAnalysisService) ListAnalyses(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Analysis, error) {
	if m.ListAnalysesFn != nil {
		return m.ListAnalysesFn(ctx, userID, limit, offset)
	}
	return m.Analyses, m.Err
}

// DeleteAnalysis implements the service.AnalysisService interface.
func (m *MockAnalysisService) DeleteAnalysis(
	ctx context.Context,
	userID, analysisID uuid.UUID,
) error {
	if m.DeleteAnalysisFn != nil {
		return m.DeleteAnalysisFn(ctx, userID, analysisID)
	}
	return m.Err
}
