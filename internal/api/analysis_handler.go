package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/irislabs/iris-api/internal/api/shared"
	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/platform/logger"
	"github.com/irislabs/iris-api/internal/redact"
	"github.com/irislabs/iris-api/internal/service"
)

// AnalysisHandler handles analysis-related HTTP requests.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	logger          *slog.Logger
	validator       *validator.Validate
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(
	analysisService service.AnalysisService,
	logger *slog.Logger,
) *AnalysisHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AnalysisHandler")
	}

	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger.With(slog.String("component", "analysis_handler")),
		validator:       validator.New(),
	}
}

// CreateAnalysis handles POST /analyses requests. It submits the image to the
// inference gateway and blocks until the request resolves, so the response
// carries the final analysis outcome rather than a pending placeholder.
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AnalyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	log.Debug("submitting analysis request",
		slog.String("user_id", userID.String()),
		slog.Int("image_bytes", len(req.Image)))

	analysis, err := h.analysisService.Analyze(r.Context(), userID, req.Prompt, req.Image)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to analyze image"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("analysis completed",
		slog.String("user_id", userID.String()),
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("status", string(analysis.Status)))
	shared.RespondWithJSON(w, r, http.StatusCreated, analysisToResponse(analysis))
}

// GetAnalysis handles GET /analyses/{id} requests.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	analysisID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid analysis ID in URL path", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := h.analysisService.GetAnalysis(r.Context(), userID, analysisID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get analysis"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, analysisToResponse(analysis))
}

// ListAnalyses handles GET /analyses requests. Results are ordered newest
// first and paginated via limit/offset query parameters.
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset, err := getPagination(r)
	if err != nil {
		log.Warn("invalid pagination parameters", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	analyses, err := h.analysisService.ListAnalyses(r.Context(), userID, limit, offset)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to list analyses"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	responses := make([]AnalysisResponse, 0, len(analyses))
	for _, analysis := range analyses {
		responses = append(responses, analysisToResponse(analysis))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListAnalysesResponse{
		Analyses: responses,
		Limit:    limit,
		Offset:   offset,
	})
}

// DeleteAnalysis handles DELETE /analyses/{id} requests.
func (h *AnalysisHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	analysisID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid analysis ID in URL path", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.analysisService.DeleteAnalysis(r.Context(), userID, analysisID); err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to delete analysis"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("analysis deleted",
		slog.String("user_id", userID.String()),
		slog.String("analysis_id", analysisID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// analysisToResponse converts a domain.Analysis to an AnalysisResponse.
func analysisToResponse(analysis *domain.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:               analysis.ID.String(),
		UserID:           analysis.UserID.String(),
		Prompt:           analysis.Prompt,
		Label:            analysis.Label,
		Model:            analysis.Model,
		Status:           string(analysis.Status),
		ErrorMessage:     analysis.ErrorMessage,
		ProcessingTimeMs: analysis.ProcessingTimeMs,
		CreatedAt:        analysis.CreatedAt,
		UpdatedAt:        analysis.UpdatedAt,
	}
}
