package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/painpoint-cli/internal/model"
)

// PromptVersion changes whenever the instructions or the response schema
// change, so stored results can be traced to the prompt that produced them.
const PromptVersion = "1.1.0"

const emptyDocumentsNotice = "No documents supplied. Return an empty list for pain_points."

const responseSchema = `{
  "pain_points": [
    {
      "name": "string",
      "description": "string",
      "frequency": "high|medium|low",
      "examples": ["string"],
      "sources": [
        {
          "platform": "reddit|google_search",
          "url": "string",
          "timestamp": "ISO-8601 string",
          "author": "string"
        }
      ]
    }
  ],
  "analysis_notes": {
    "common_themes": ["string"],
    "data_coverage": {
      "reddit_posts_considered": 0,
      "google_results_considered": 0
    },
    "confidence": "high|medium|low",
    "content_warnings": ["string"]
  }
}`

const painPointPrompt = `# SYSTEM ROLE
You are a senior user-research analyst summarizing customer pain points.
Keep the tone professional and concise, stay empathetic, and do not speculate.
Flag sensitive or harmful content explicitly instead of repeating it.

# EXTRACTION STEPS
1. Read every source. Keep only pain points that the sources actually support.
2. Every pain point cites at least one source with its URL and author.
3. Frequency rubric:
   - high   : raised independently by 3 or more distinct authors or platforms.
   - medium : raised by 2 distinct authors or platforms.
   - low    : mentioned once, or only on a single platform.
4. Put direct quotes in the "examples" array. Keep each quote under 280 characters.
5. When several posts describe the same issue, merge them into one pain point and combine their sources.
6. If content looks biased or discriminatory, record it in "analysis_notes.content_warnings".
7. Answer with JSON matching the schema below and nothing else.

# SOURCE DOCUMENTS
%s

# RESPONSE SCHEMA (version %s)
%s
`

// PromptBuilder renders the extraction prompt. Output depends only on the
// documents, so identical input always yields an identical prompt.
type PromptBuilder struct{}

// Build renders the prompt for one batch of documents.
func (PromptBuilder) Build(docs []model.Document) string {
	block := FormatDocuments(docs)
	if block == "" {
		block = emptyDocumentsNotice
	}
	return fmt.Sprintf(painPointPrompt, block, PromptVersion, responseSchema)
}

// FormatDocuments renders documents as a numbered list.
func FormatDocuments(docs []model.Document) string {
	entries := make([]string, 0, len(docs))
	for i, doc := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. Source: %s\n", i+1, orDefault(doc.Platform, "unknown-platform"))
		fmt.Fprintf(&b, "   - Author: %s\n", orDefault(doc.Author, "unknown-author"))
		fmt.Fprintf(&b, "   - Timestamp: %s\n", orDefault(doc.Timestamp, "unknown-timestamp"))
		fmt.Fprintf(&b, "   - URL: %s", orDefault(doc.URL, "unknown-url"))
		if summary := strings.TrimSpace(doc.Summary); summary != "" {
			fmt.Fprintf(&b, "\n   - Summary: %s", summary)
		}
		if content := strings.TrimSpace(doc.Content); content != "" {
			b.WriteString("\n   - Content:\n")
			b.WriteString(indent(content, "     "))
		}
		entries = append(entries, b.String())
	}
	return strings.Join(entries, "\n")
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

// indent prefixes every non-blank line.
func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
