package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irislabs/iris-api/internal/api/shared"
	"github.com/irislabs/iris-api/internal/domain"
)

func TestGetUserIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns the user ID set by the auth middleware", func(t *testing.T) {
		userID := uuid.New()
		req := httptest.NewRequest("GET", "/analyses", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))

		got, ok := getUserIDFromContext(req)
		assert.True(t, ok)
		assert.Equal(t, userID, got)
	})

	t.Run("rejects a request without a user ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/analyses", nil)

		_, ok := getUserIDFromContext(req)
		assert.False(t, ok)
	})

	t.Run("rejects a nil user ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/analyses", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, uuid.Nil))

		_, ok := getUserIDFromContext(req)
		assert.False(t, ok)
	})

	t.Run("rejects a value of the wrong type", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/analyses", nil)
		req = req.WithContext(
			context.WithValue(req.Context(), shared.UserIDContextKey, "not-a-uuid"),
		)

		_, ok := getUserIDFromContext(req)
		assert.False(t, ok)
	})
}

func TestGetPathUUID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		param     string
		wantErr   string
		wantValid bool
	}{
		{
			name:      "valid UUID",
			param:     uuid.New().String(),
			wantValid: true,
		},
		{
			name:    "missing parameter",
			param:   "",
			wantErr: "id is required",
		},
		{
			name:    "malformed parameter",
			param:   "not-a-uuid",
			wantErr: "id has invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/analyses/"+tt.param, nil)
			rctx := chi.NewRouteContext()
			if tt.param != "" {
				rctx.URLParams.Add("id", tt.param)
			}
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			id, err := getPathUUID(req, "id")

			if tt.wantValid {
				require.NoError(t, err)
				assert.Equal(t, tt.param, id.String())
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, uuid.Nil, id)
		})
	}
}

func TestGetPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{
			name:       "defaults when no parameters given",
			query:      "",
			wantLimit:  20,
			wantOffset: 0,
		},
		{
			name:       "explicit limit and offset",
			query:      "?limit=50&offset=10",
			wantLimit:  50,
			wantOffset: 10,
		},
		{
			name:       "limit clamped to maximum",
			query:      "?limit=500",
			wantLimit:  100,
			wantOffset: 0,
		},
		{
			name:    "zero limit rejected",
			query:   "?limit=0",
			wantErr: true,
		},
		{
			name:    "negative limit rejected",
			query:   "?limit=-5",
			wantErr: true,
		},
		{
			name:    "non-numeric limit rejected",
			query:   "?limit=abc",
			wantErr: true,
		},
		{
			name:    "negative offset rejected",
			query:   "?offset=-1",
			wantErr: true,
		},
		{
			name:    "non-numeric offset rejected",
			query:   "?offset=ten",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/analyses"+tt.query, nil)

			limit, offset, err := getPagination(req)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
