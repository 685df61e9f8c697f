package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepHandler(t *testing.T) {
	userID := uuid.New()

	service := &mockReviewService{
		sweepFn: func(ctx context.Context, now time.Time) (int, error) {
			assert.WithinDuration(t, time.Now().UTC(), now, time.Minute)
			return 7, nil
		},
	}
	handler := NewAdminHandler(service, slog.Default())

	rr := httptest.NewRecorder()
	req := newRequestWithUser(http.MethodPost, "/api/admin/sweep", nil, userID, nil)
	handler.Sweep(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp SweepResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 7, resp.Resurfaced)
}
