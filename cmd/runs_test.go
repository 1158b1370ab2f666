package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Topic:     "online checkout",
			Status:    model.RunStatusComplete,
			CreatedAt: now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Topic:     "billing",
			Status:    model.RunStatusFailed,
			Error:     "context canceled",
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "TOPIC")
	assert.Contains(t, lines[1], "abc12345")
	assert.NotContains(t, lines[1], "abc12345-")
	assert.Contains(t, lines[1], "online checkout")
	assert.Contains(t, lines[1], "2025-06-15 10:30")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], "context canceled")

	// Status column starts at the same offset on every row.
	col := strings.Index(lines[0], "STATUS")
	assert.Equal(t, col, strings.Index(lines[1], "complete"))
	assert.Equal(t, col, strings.Index(lines[2], "failed"))
}

func TestFormatRunsList_TruncatesWideTopics(t *testing.T) {
	runs := []model.Run{{
		ID:     "r1",
		Topic:  strings.Repeat("決済エラー", 10),
		Status: model.RunStatusQueued,
	}}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	assert.Contains(t, buf.String(), "…")
	assert.Contains(t, buf.String(), "queued")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatStats(t *testing.T) {
	var buf bytes.Buffer
	formatStats(&buf, &monitoring.MetricsSnapshot{
		RunsTotal: 4, RunsComplete: 2, RunsFailed: 1, RunsInFlight: 1,
		FailRate: 1.0 / 3.0, CostUSD: 0.75, AvgTokens: 750, PainPoints: 5, LookbackHours: 24,
	})

	out := buf.String()
	assert.Contains(t, out, "Runs in last 24h:  4")
	assert.Contains(t, out, "failed:         1 (33.3%)")
	assert.Contains(t, out, "$0.7500")
}
