package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/model"
)

// parseResponse pulls the raw pain point entities and optional analysis
// notes out of a model reply. A reply without a pain_points array fails.
func parseResponse(text string) ([]json.RawMessage, *model.AnalysisNotes, error) {
	cleaned := cleanJSON(text)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, nil, eris.Wrap(err, "extract: response is not a JSON object")
	}

	rawPoints, ok := envelope["pain_points"]
	if !ok {
		return nil, nil, eris.New("extract: response has no pain_points field")
	}
	var points []json.RawMessage
	if err := json.Unmarshal(rawPoints, &points); err != nil || points == nil {
		return nil, nil, eris.New("extract: pain_points is not an array")
	}

	var notes *model.AnalysisNotes
	if rawNotes, ok := envelope["analysis_notes"]; ok && string(rawNotes) != "null" {
		var n model.AnalysisNotes
		if err := json.Unmarshal(rawNotes, &n); err != nil {
			zap.L().Debug("extract: ignoring malformed analysis_notes", zap.Error(err))
		} else {
			notes = &n
		}
	}
	return points, notes, nil
}

// cleanJSON strips markdown fences and surrounding prose from a model reply.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
