package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawRecord is a single mention as delivered by a source connector, after
// optional-field parsing. Every field is optional; missing values are zero.
type RawRecord struct {
	ID              string
	Platform        string
	URL             string
	Permalink       string
	Title           string
	Body            string
	Author          string
	Timestamp       any
	Votes           float64
	Comments        float64
	RankingPosition *int
}

// RecordFromMap extracts a RawRecord from a decoded JSON object. Field aliases
// are checked in order and the first non-empty value wins.
func RecordFromMap(m map[string]any) RawRecord {
	r := RawRecord{
		ID:        firstString(m, "id"),
		Platform:  firstString(m, "platform", "source"),
		URL:       firstString(m, "url"),
		Permalink: firstString(m, "permalink"),
		Title:     firstString(m, "title", "summary"),
		Body:      firstString(m, "text", "body", "content"),
		Author:    firstString(m, "author", "username"),
		Votes:     firstNumber(m, "upvotes", "score"),
		Comments:  firstNumber(m, "comments", "num_comments"),
	}
	for _, key := range []string{"created_at", "timestamp"} {
		if v, ok := m[key]; ok && !isEmptyValue(v) {
			r.Timestamp = v
			break
		}
	}
	if v, ok := m["ranking_position"]; ok {
		if n, ok := ToFloat(v); ok && n == math.Trunc(n) {
			pos := int(n)
			r.RankingPosition = &pos
		}
	}
	return r
}

// LinkURL returns the url, falling back to the permalink.
func (r RawRecord) LinkURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Permalink
}

// ToFloat converts JSON-ish numeric values to float64. Numeric strings are
// accepted; NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case json.Number:
			s = x.String()
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case int:
			s = strconv.Itoa(x)
		case int64:
			s = strconv.FormatInt(x, 10)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		if f, ok := ToFloat(v); ok && f != 0 {
			return f
		}
	}
	return 0
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	if f, ok := ToFloat(v); ok {
		return f == 0
	}
	return false
}
