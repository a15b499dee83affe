package events

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := database.New(models.DatabaseConfig{
		Type:     models.SQLite,
		FilePath: filepath.Join(t.TempDir(), "events.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(db)
}

func event(requestID string, status models.PoemStatus, cost float64) *models.PoemEvent {
	return &models.PoemEvent{
		RequestID:        requestID,
		Status:           status,
		Model:            "openai:gpt-5-mini",
		Tone:             models.ToneNoir,
		Timezone:         "UTC",
		CostUSD:          cost,
		PromptTokens:     100,
		CompletionTokens: 50,
		LatencyMs:        800,
	}
}

func TestRecordAndTodayCostSum(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	sum, err := s.TodayCostSum(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum)

	require.NoError(t, s.Record(ctx, event("cv_aaa", models.StatusOK, 0.0002)))
	require.NoError(t, s.Record(ctx, event("cv_bbb", models.StatusOK, 0.0003)))
	require.NoError(t, s.Record(ctx, event("cv_ccc", models.StatusFallback, 0)))

	sum, err = s.TodayCostSum(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0005, sum, 1e-9)
}

func TestTodayCostSumIgnoresPriorDays(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	old := event("cv_old", models.StatusOK, 5.0)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.Record(ctx, old))

	require.NoError(t, s.Record(ctx, event("cv_new", models.StatusOK, 0.001)))

	sum, err := s.TodayCostSum(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, sum, 1e-9)
}

func TestStats(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	okEvent := event("cv_1", models.StatusOK, 0.001)
	okEvent.Cached = true
	require.NoError(t, s.Record(ctx, okEvent))
	require.NoError(t, s.Record(ctx, event("cv_2", models.StatusOK, 0.002)))
	require.NoError(t, s.Record(ctx, event("cv_3", models.StatusFallback, 0)))

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	stats, err := s.Stats(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.InDelta(t, 0.003, stats.TotalCost, 1e-9)
	assert.Equal(t, int64(450), stats.TotalTokens)
	assert.Equal(t, int64(2), stats.OKRequests)
	assert.Equal(t, int64(1), stats.FallbackRequests)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.InDelta(t, 800, stats.AvgLatencyMs, 1e-9)
}
