package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/chronoverse/chronoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	sum float64
	err error
}

func (s *stubLedger) TodayCostSum(context.Context) (float64, error) {
	return s.sum, s.err
}

func TestAuthorizeUnderLimit(t *testing.T) {
	s := NewService(&stubLedger{sum: 0.25}, 0.5)
	assert.NoError(t, s.Authorize(context.Background()))
}

func TestAuthorizeAtLimit(t *testing.T) {
	s := NewService(&stubLedger{sum: 0.5}, 0.5)

	err := s.Authorize(context.Background())
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrorTypeBudget, appErr.Type)
	assert.Equal(t, 402, appErr.StatusCode)
}

func TestAuthorizeOverLimit(t *testing.T) {
	s := NewService(&stubLedger{sum: 1.75}, 0.5)
	assert.Error(t, s.Authorize(context.Background()))
}

func TestAuthorizeFailsOpen(t *testing.T) {
	s := NewService(&stubLedger{err: errors.New("db gone")}, 0.5)
	assert.NoError(t, s.Authorize(context.Background()))
}

func TestRemaining(t *testing.T) {
	s := NewService(&stubLedger{sum: 0.3}, 0.5)

	remaining, err := s.Remaining(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.2, remaining, 1e-9)
}

func TestRemainingClampsAtZero(t *testing.T) {
	s := NewService(&stubLedger{sum: 0.9}, 0.5)

	remaining, err := s.Remaining(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, remaining)
}
