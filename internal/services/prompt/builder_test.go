package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2026, 3, 14, hour, minute, 0, 0, loc)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		minute int
		format models.ClockFormat
		want   string
	}{
		{"24h afternoon", 15, 4, models.Clock24h, "15:04"},
		{"24h midnight", 0, 5, models.Clock24h, "00:05"},
		{"12h afternoon no meridiem", 15, 4, models.Clock12h, "3:04"},
		{"12h morning no leading zero", 9, 7, models.Clock12h, "9:07"},
		{"12h midnight", 0, 15, models.Clock12h, "12:15"},
		{"auto falls back to 12h", 15, 4, models.ClockAuto.Normalize(), "3:04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTime(localTime(t, tt.hour, tt.minute), tt.format)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaypartFor(t *testing.T) {
	tests := []struct {
		hour   int
		minute int
		want   string
	}{
		{4, 0, "pre-dawn"},
		{5, 59, "pre-dawn"},
		{6, 0, "early morning"},
		{7, 59, "early morning"},
		{8, 0, "morning"},
		{11, 29, "morning"},
		{11, 30, "midday"},
		{13, 29, "midday"},
		{13, 30, "afternoon"},
		{16, 59, "afternoon"},
		{17, 0, "evening"},
		{20, 29, "evening"},
		{20, 30, "late night"},
		{3, 59, "late night"},
		{0, 0, "late night"},
	}

	for _, tt := range tests {
		got := DaypartFor(localTime(t, tt.hour, tt.minute))
		assert.Equal(t, tt.want, got, "hour=%d minute=%d", tt.hour, tt.minute)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()
	now := localTime(t, 9, 41)

	first := b.Build(now, models.ToneNoir, models.Clock12h, "cv_abc123def456")
	second := b.Build(now, models.ToneNoir, models.Clock12h, "cv_abc123def456")

	assert.Equal(t, first, second)
	assert.Equal(t, "9:41", first.TimeUsed)
	assert.Equal(t, "morning", first.Daypart)
	assert.NotEmpty(t, first.DirectiveID)
}

func TestBuildPromptShape(t *testing.T) {
	b := NewBuilder()
	p := b.Build(localTime(t, 17, 30), models.ToneHaiku, models.Clock24h, "cv_000000000000")

	assert.True(t, strings.HasPrefix(p.Text, "You are a Master Poet"))
	assert.Contains(t, p.Text, "time: 17:30\n")
	assert.Contains(t, p.Text, "daypart: evening\n")
	assert.Contains(t, p.Text, "tone: Haiku\n")
	assert.Contains(t, p.Text, "style: "+ToneStyle(models.ToneHaiku))
	assert.Contains(t, p.Text, "For this poem only:")
	assert.True(t, strings.HasSuffix(p.Text, "<<OUTPUT>>\n"))

	// Neither the emitted time nor the daypart carries meridiem tokens
	assert.NotContains(t, p.TimeUsed, "AM")
	assert.NotContains(t, p.TimeUsed, "PM")
	assert.NotContains(t, p.Daypart, "AM")
	assert.NotContains(t, p.Daypart, "PM")
}

func TestBuildDirectiveRotatesByMinute(t *testing.T) {
	b := NewBuilder()

	// 12:00 is minute 720 (bucket "place"), 12:03 is minute 723
	// (bucket "motionverb"); both buckets hold exactly one directive.
	p1 := b.Build(localTime(t, 12, 0), models.ToneMinimal, models.Clock12h, "cv_aaaaaaaaaaaa")
	p2 := b.Build(localTime(t, 12, 3), models.ToneMinimal, models.Clock12h, "cv_aaaaaaaaaaaa")

	assert.Equal(t, "place", p1.DirectiveID)
	assert.Equal(t, "motionverb", p2.DirectiveID)
}

func TestBuildDifferentSaltsCanDiffer(t *testing.T) {
	b := NewBuilder()
	now := localTime(t, 12, 0)

	// Same minute, different request IDs: the bucket is fixed but the
	// rendered bank item is salt-dependent.
	p1 := b.Build(now, models.ToneMinimal, models.Clock12h, "cv_aaaaaaaaaaaa")
	p2 := b.Build(now, models.ToneMinimal, models.Clock12h, "cv_bbbbbbbbbbbb")

	assert.Equal(t, p1.DirectiveID, p2.DirectiveID)
	assert.Equal(t, p1.TimeUsed, p2.TimeUsed)
}
