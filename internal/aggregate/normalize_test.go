package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/model"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Example.com/a/", "https://example.com/a"},
		{"https://example.com/a//", "https://example.com/a/"},
		{"  https://example.com/a  ", "https://example.com/a"},
		{"http://www.example.com/a?b=1", "http://www.example.com/a?b=1"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.in))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"zulu", "2024-01-02T03:04:05Z", "2024-01-02T03:04:05Z"},
		{"offset", "2024-01-02T03:04:05+02:00", "2024-01-02T01:04:05Z"},
		{"fractional", "2024-01-02T03:04:05.250Z", "2024-01-02T03:04:05.25Z"},
		{"naive", "2024-01-02T03:04:05", "2024-01-02T03:04:05Z"},
		{"space separated", "2024-01-02 03:04:05", "2024-01-02T03:04:05Z"},
		{"date only", "2024-01-02", "2024-01-02T00:00:00Z"},
		{"epoch int", 1700000000, "2023-11-14T22:13:20Z"},
		{"epoch float", 1700000000.5, "2023-11-14T22:13:20.5Z"},
		{"epoch string", "1700000000", "2023-11-14T22:13:20Z"},
		{"zero", 0, ""},
		{"empty", "", ""},
		{"garbage", "not a date", ""},
		{"bool", true, ""},
		{"nil", nil, ""},
		{"out of range", 1e20, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.in)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format(time.RFC3339Nano))
		})
	}
}

func TestNormalize(t *testing.T) {
	s := DefaultSettings()
	pos := 3
	r := model.RawRecord{
		Platform:        "reddit",
		Permalink:       "https://Reddit.com/r/shop/1/",
		Title:           "Checkout broken",
		Body:            "Payment page hangs",
		Author:          "u1",
		Timestamp:       "2024-05-01T00:00:00Z",
		Votes:           10,
		Comments:        4,
		RankingPosition: &pos,
	}

	item := Normalize(r, 0, s)

	assert.Equal(t, "reddit", item.Platform)
	assert.Equal(t, "https://reddit.com/r/shop/1", item.CanonicalURL)
	assert.Equal(t, "Checkout broken Payment page hangs", item.NormalizedText)
	assert.InDelta(t, 12.0, item.EngagementSignal, 1e-9)
	assert.InDelta(t, 1.0, item.SourceWeight, 1e-9)
	require.NotNil(t, item.CreatedAt)
	assert.Equal(t, 2024, item.CreatedAt.Year())
	require.Len(t, item.Sources, 1)
	assert.Equal(t, model.SourceRecord{
		ID:              "https://Reddit.com/r/shop/1/",
		Platform:        "reddit",
		URL:             "https://Reddit.com/r/shop/1/",
		RankingPosition: &pos,
	}, item.Sources[0])
	assert.Empty(t, item.TransformationNotes)
}

func TestNormalize_Defaults(t *testing.T) {
	item := Normalize(model.RawRecord{}, 3, DefaultSettings())

	assert.Equal(t, "unknown", item.Platform)
	assert.Empty(t, item.CanonicalURL)
	assert.Empty(t, item.NormalizedText)
	assert.Nil(t, item.CreatedAt)
	assert.InDelta(t, 0.75, item.SourceWeight, 1e-9)
	require.Len(t, item.Sources, 1)
	assert.Equal(t, "unknown#3", item.Sources[0].ID)
}

func TestNormalize_SourceIDFallbackUsesIndex(t *testing.T) {
	r := model.RawRecord{Platform: "reddit", Title: "Checkout keeps failing"}
	s := DefaultSettings()

	assert.Equal(t, "reddit#0", Normalize(r, 0, s).Sources[0].ID)
	assert.Equal(t, "reddit#1", Normalize(r, 1, s).Sources[0].ID)

	r.ID = "t3_abc"
	assert.Equal(t, "t3_abc", Normalize(r, 1, s).Sources[0].ID)
}

func TestNormalize_NegativeEngagementClampedToZero(t *testing.T) {
	r := model.RawRecord{Platform: "reddit", Title: "Downvoted rant", Votes: -12, Comments: 2}

	item := Normalize(r, 0, DefaultSettings())

	assert.InDelta(t, 0.0, item.EngagementSignal, 1e-9)
	assert.GreaterOrEqual(t, item.EngagementSignal, 0.0)
}

func TestNormalize_Deterministic(t *testing.T) {
	r := model.RecordFromMap(map[string]any{
		"source": "google", "title": "Slow sync", "created_at": 1700000000.0, "score": 3.0,
	})
	s := DefaultSettings()
	assert.Equal(t, Normalize(r, 0, s), Normalize(r, 0, s))
}
