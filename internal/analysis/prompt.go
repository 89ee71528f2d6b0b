package analysis

import "strings"

const (
	// Budget for raw OCR text inside the final prompt, in bytes.
	finalPromptTextBudget = 9000

	chunkWindow  = 1000
	chunkOverlap = 150
	maxChunks    = 10

	maxTimeHints = 8
	maxNameHints = 15
)

const finalPromptHeader = `Analyze the OCR text below, extracted from one user's screenshots.
Return exactly one JSON object of the form {"short_summary": "..."} and nothing else.
The short_summary is 2 to 4 plain-language sentences telling the user what private
information their screenshots leak: when they are active, who they talk to, where
they go, and anything that could embarrass them professionally.
Address the user directly as "you". Do not repeat phone numbers, email addresses
or street addresses verbatim. Do not invent details that are not in the text.`

// BuildFinalSummaryPrompt assembles the single prompt sent to the model.
// Oversized text is chunked and stitched so the prompt stays within budget
// while still sampling the whole run.
func BuildFinalSummaryPrompt(texts []string, timeHints, nameHints []string) string {
	var b strings.Builder
	b.WriteString(finalPromptHeader)
	b.WriteString("\n")

	if hints := joinHints(timeHints, maxTimeHints); hints != "" {
		b.WriteString("\nTimes seen in the text: ")
		b.WriteString(hints)
	}
	if hints := joinHints(nameHints, maxNameHints); hints != "" {
		b.WriteString("\nPossible person names: ")
		b.WriteString(hints)
	}

	b.WriteString("\n\nOCR TEXT:\n")
	b.WriteString(promptText(strings.TrimSpace(strings.Join(texts, "\n\n"))))
	return b.String()
}

func promptText(combined string) string {
	if len(combined) <= finalPromptTextBudget {
		return combined
	}
	stitched := strings.Join(ChunkText(combined), "\n[...]\n")
	if len(stitched) > finalPromptTextBudget {
		stitched = stitched[:finalPromptTextBudget]
	}
	return stitched
}

// ChunkText splits text into overlapping windows, breaking on spaces where
// possible. At most maxChunks chunks are produced; any remainder is dropped.
func ChunkText(text string) []string {
	var chunks []string
	start := 0
	for start < len(text) && len(chunks) < maxChunks {
		end := start + chunkWindow
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		cut := lastSpaceBetween(text, end-(chunkOverlap+50), end)
		if cut <= start {
			cut = end
		}
		chunks = append(chunks, text[start:cut])
		next := cut - chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

func lastSpaceBetween(text string, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to - 1; i >= from; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i
		}
	}
	return -1
}

func joinHints(hints []string, limit int) string {
	if len(hints) > limit {
		hints = hints[:limit]
	}
	var kept []string
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			kept = append(kept, h)
		}
	}
	return strings.Join(kept, ", ")
}
