package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fitlife-ai/internal/database"
	"fitlife-ai/internal/shared"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("daily usage aggregates", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Planner", PromptTokens: 100, CompletionTokens: 50, Success: true}))
		require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Chat", PromptTokens: 10, CompletionTokens: 5, Success: false}))

		usage, err := s.GetDailyUsage(ctx, 1)
		require.NoError(t, err)
		require.Len(t, usage, 1)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
		assert.Equal(t, 110, usage[0].TotalPrompt)
		assert.Equal(t, 55, usage[0].TotalCompletion)
		assert.Equal(t, 2, usage[0].TotalExecution)
		assert.Equal(t, 1, usage[0].Failures)
	})

	t.Run("cleanup removes old rows", func(t *testing.T) {
		s := newTestStore(t)

		old := time.Now().AddDate(0, 0, -40)
		require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Planner", Timestamp: old}))
		require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "Planner"}))

		n, err := s.Cleanup(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		usage, err := s.GetDailyUsage(ctx, 60)
		require.NoError(t, err)
		require.Len(t, usage, 1)
		assert.Equal(t, 1, usage[0].TotalExecution)
	})

	t.Run("record meta skips calls that never ran", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{AgentName: "Planner"}, false))
		usage, err := s.GetDailyUsage(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, usage)
	})
}

func TestRecorder(t *testing.T) {
	s := newTestStore(t)
	c := NewCollectors()
	r := NewRecorder(s, c, zap.NewNop())

	meta := shared.AgentMeta{
		AgentName: "Planner",
		Usage:     shared.TokenUsage{PromptTokens: 40, CompletionTokens: 60, TotalTokens: 100},
		Latency:   2 * time.Second,
	}
	r.PlanGenerated(meta, nil)
	r.ChatExchanged(shared.AgentMeta{AgentName: "Chat", Latency: time.Second}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("Planner", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("Chat", "failure")))
	assert.Equal(t, 60.0, testutil.ToFloat64(c.tokens.WithLabelValues("Planner", "completion")))

	usage, err := s.GetDailyUsage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 2, usage[0].TotalExecution)
	assert.Equal(t, 1, usage[0].Failures)
}

func TestCollectorsHandler(t *testing.T) {
	c := NewCollectors()
	c.RegisterSessionGauge(func() float64 { return 3 })
	c.ObserveRequest("/", "200")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "fitlife_active_sessions 3")
	assert.True(t, strings.Contains(body, `fitlife_http_requests_total{code="200",route="/"} 1`))
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	h := GetSysHealth(dir, 2, false)

	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, 2, h.ActiveSessions)
	assert.Equal(t, "0 B", h.DataDiskSize)
	assert.Positive(t, h.Goroutines)

	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "ok", GetSysHealth(dir, 0, true).Status)
}
