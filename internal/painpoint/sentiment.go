package painpoint

import (
	"strings"
	"unicode"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/textnorm"
)

var negativeTerms = toSet(
	"annoying", "awful", "bad", "broken", "bug", "buggy", "bugs", "cannot", "can't", "clunky",
	"complaint", "complaints", "confusing", "crash", "crashed", "crashes", "crashing", "difficult",
	"disappointed", "disappointing", "down", "error", "errors", "expensive", "fail", "failed",
	"failing", "fails", "failure", "failures", "frustrated", "frustrating", "glitch", "hang",
	"hangs", "hate", "horrible", "impossible", "issue", "issues", "lag", "laggy", "lost",
	"missing", "outage", "overpriced", "painful", "poor", "problem", "problems", "slow",
	"stuck", "terrible", "timeout", "timeouts", "unable", "unreliable", "unusable", "useless",
	"worse", "worst", "wrong",
)

var positiveTerms = toSet(
	"amazing", "awesome", "best", "easy", "excellent", "fantastic", "fast", "fixed", "glad",
	"great", "happy", "helpful", "improved", "intuitive", "love", "loved", "loves", "nice",
	"perfect", "pleased", "recommend", "reliable", "satisfied", "seamless", "simple", "smooth",
	"solid", "stable", "thanks", "useful", "wonderful",
)

// Sentiment classifies texts by counting lexicon hits. More negative hits
// than positive is negative, the reverse is positive, ties are neutral.
func Sentiment(texts ...string) model.Sentiment {
	var pos, neg int
	for _, text := range texts {
		for _, tok := range tokenize(text) {
			if _, ok := negativeTerms[tok]; ok {
				neg++
			}
			if _, ok := positiveTerms[tok]; ok {
				pos++
			}
		}
	}
	switch {
	case neg > pos:
		return model.SentimentNegative
	case pos > neg:
		return model.SentimentPositive
	default:
		return model.SentimentNeutral
	}
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(textnorm.Fold(text), "’", "'")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
