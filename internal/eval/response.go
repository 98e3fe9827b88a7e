package eval

import (
	"encoding/json"
	"strconv"
	"strings"
)

const summaryExtractChars = 500

// StructuredResponse mirrors the JSON object the evaluation prompts request
// from the model.
type StructuredResponse struct {
	Score               float64  `json:"score"`
	Summary             string   `json:"summary"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

// ParseResponse interprets raw model output. The boolean reports whether the
// structured form was accepted; when false the caller degrades to the
// heuristic functions below over the raw text. Markdown code fences around
// the JSON body are tolerated.
func ParseResponse(raw string) (StructuredResponse, bool) {
	text := stripMarkdownFence(strings.TrimSpace(raw))

	var resp StructuredResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return StructuredResponse{}, false
	}
	if err := validateCategoryJSON([]byte(text)); err != nil {
		return StructuredResponse{}, false
	}
	return resp, true
}

// stripMarkdownFence removes a leading ```json or bare ``` fence and a
// trailing ```.
func stripMarkdownFence(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// ExtractScore scans degraded model output for a score. The first line that
// mentions "score" and carries digits contributes every digit on the line,
// concatenated; values over 100 wrap modulo 100. No such line yields 0.
func ExtractScore(text string) int {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), "score") {
			continue
		}
		var digits strings.Builder
		for _, r := range line {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 0 {
			continue
		}
		s := digits.String()
		if n, err := strconv.Atoi(s); err == nil && n <= 100 {
			return n
		}
		// wrapping modulo 100 keeps just the trailing two digits
		n, _ := strconv.Atoi(s[len(s)-2:])
		return n
	}
	return 0
}

// ExtractSummary takes the leading slice of degraded output as the summary.
func ExtractSummary(text string) string {
	return truncateRunes(text, summaryExtractChars)
}

// truncateRunes caps s at n runes without splitting multibyte characters.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
