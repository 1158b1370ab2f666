package aggregate

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/painpoint-cli/internal/model"
)

const (
	unknownPlatform = "unknown"
	// maxEpochSeconds is 9999-12-31T23:59:59Z.
	maxEpochSeconds = 253402300799
)

// timestampLayouts are tried in order for string timestamps. Layouts
// without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalize turns a raw record into a draft item carrying exactly one
// source record. It never fails; missing fields take defaults. index is the
// record's input position and names the source when the record carries no
// id or link.
func Normalize(r model.RawRecord, index int, s Settings) model.AggregatedItem {
	platform := r.Platform
	if platform == "" {
		platform = unknownPlatform
	}
	link := r.LinkURL()
	engagement := math.Max(0, r.Votes+s.CommentWeight*r.Comments)

	return model.AggregatedItem{
		ID:                  r.ID,
		Platform:            platform,
		URL:                 r.URL,
		Permalink:           r.Permalink,
		Title:               r.Title,
		Text:                r.Body,
		Author:              r.Author,
		CreatedAt:           ParseTimestamp(r.Timestamp),
		EngagementSignal:    engagement,
		SourceWeight:        s.SourceWeight(platform),
		Sources:             []model.SourceRecord{sourceRecord(r, platform, index)},
		TransformationNotes: []string{},
		CanonicalURL:        CanonicalURL(link),
		NormalizedText:      strings.TrimSpace(joinNonEmpty(r.Title, r.Body)),
	}
}

// CanonicalURL lower-cases u and strips exactly one trailing slash. Scheme,
// query and host variants are not unified.
func CanonicalURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.TrimSuffix(u, "/")
}

// ParseTimestamp accepts ISO-8601 strings and epoch seconds (numbers or
// numeric strings). Empty values, zero and anything unparseable yield nil.
func ParseTimestamp(v any) *time.Time {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	secs, ok := model.ToFloat(v)
	if !ok || secs == 0 || math.Abs(secs) > maxEpochSeconds {
		return nil
	}
	whole, frac := math.Modf(secs)
	t := time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return &t
}

func sourceRecord(r model.RawRecord, platform string, index int) model.SourceRecord {
	id := r.ID
	for _, fallback := range []string{r.URL, r.Permalink} {
		if id != "" {
			break
		}
		id = fallback
	}
	if id == "" {
		// Distinct id-less records must stay distinct sources after a merge.
		id = platform + "#" + strconv.Itoa(index)
	}
	return model.SourceRecord{
		ID:              id,
		Platform:        platform,
		URL:             r.LinkURL(),
		RankingPosition: r.RankingPosition,
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
