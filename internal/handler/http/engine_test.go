package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/internal/lock"
	"github.com/commercegrid/pricing-engine/pkg/health"
)

// ============================================================================
// Mock runner
// ============================================================================

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, now time.Time) (*domain.RunSummary, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(runner *mockRunner) http.Handler {
	return NewRouter(runner, health.NewHandler(), newTestLogger())
}

func okSummary() *domain.RunSummary {
	return &domain.RunSummary{
		Success:        true,
		RulesProcessed: 2,
		ItemsUpdated:   5,
		ItemsCleared:   1,
		Errors:         []string{},
		Logs: []domain.RuleLog{
			{RuleID: "rule-1", RuleName: "Sale A", ItemsAffected: 3},
			{RuleID: "rule-2", RuleName: "Sale B", ItemsAffected: 2},
		},
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestRunEndpoint_EmptyBody(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.AnythingOfType("time.Time")).Return(okSummary(), nil)

	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", nil)
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data domain.RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Success)
	assert.Equal(t, 5, body.Data.ItemsUpdated)
	assert.Len(t, body.Data.Logs, 2)
	runner.AssertExpectations(t)
}

func TestRunEndpoint_ExplicitEvaluationTime(t *testing.T) {
	runner := new(mockRunner)
	want := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)
	runner.On("Run", mock.Anything, want).Return(okSummary(), nil)

	payload := bytes.NewBufferString(`{"now": "2026-07-01T06:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	runner.AssertExpectations(t)
}

func TestRunEndpoint_InvalidTimestamp(t *testing.T) {
	runner := new(mockRunner)

	payload := bytes.NewBufferString(`{"now": "yesterday"}`)
	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunEndpoint_MalformedJSON(t *testing.T) {
	runner := new(mockRunner)

	payload := bytes.NewBufferString(`{"now":`)
	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRunEndpoint_ConcurrentRunConflict(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, lock.ErrAlreadyRunning)

	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", nil)
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "RUN_IN_PROGRESS")
}

func TestRunEndpoint_PartialFailureStillOK(t *testing.T) {
	runner := new(mockRunner)
	summary := okSummary()
	summary.Errors = []string{"Rule Sale A (rule-1): query timeout"}
	runner.On("Run", mock.Anything, mock.AnythingOfType("time.Time")).Return(summary, nil)

	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", nil)
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "query timeout")
}

func TestRunEndpoint_UnsupportedMediaType(t *testing.T) {
	runner := new(mockRunner)

	req := httptest.NewRequest(http.MethodPost, "/internal/discount-engine/run", strings.NewReader("now=tomorrow"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestHealthLiveEndpoint(t *testing.T) {
	runner := new(mockRunner)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	newTestRouter(runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
