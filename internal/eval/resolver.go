package eval

import (
	"log/slog"
	"strings"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/extract"
)

// PromptMap maps categories to the prompts a template defines for them.
// Partial on purpose: a template contributes only the categories its author
// named, except that a template matching nothing falls back to the full
// default set.
type PromptMap map[constants.Category]string

// DefaultPromptMap returns the six-entry default prompt set.
func DefaultPromptMap() PromptMap {
	prompts := make(PromptMap, len(constants.Definitions()))
	for id, prompt := range constants.DefaultPrompts() {
		prompts[id] = prompt
	}
	return prompts
}

// ResolvePrompts builds a PromptMap from spreadsheet-extracted text. Sheets
// are recognized by their boundary markers; each sheet name is lowercased
// and tested against the ordered keyword table, first category match wins,
// at most one category per sheet. A later sheet matching the same category
// overwrites the earlier prompt. Never fails: zero matches yield defaults.
func ResolvePrompts(content string, logger *slog.Logger) PromptMap {
	if logger == nil {
		logger = slog.Default()
	}

	prompts := PromptMap{}
	for _, sheet := range strings.Split(content, extract.SheetMarkerPrefix) {
		sheet = strings.TrimSpace(sheet)
		if sheet == "" {
			continue
		}
		name, body, found := strings.Cut(sheet, "\n")
		if !found {
			// a sheet heading with no body contributes nothing
			continue
		}
		name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "==="))
		lower := strings.ToLower(name)

		for _, entry := range constants.SheetKeywordTable() {
			if matchesAnyKeyword(lower, entry.Keywords) {
				prompts[entry.Category] = cleanPromptContent(body)
				logger.Debug("template.resolve.matched",
					"sheet", name, "category", entry.Category)
				break
			}
		}
	}

	if len(prompts) == 0 {
		logger.Warn("template.resolve.no_matches", "fallback", "default prompts")
		return DefaultPromptMap()
	}
	return prompts
}

func matchesAnyKeyword(lowerName string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// cleanPromptContent flattens sheet body text into a single prompt line:
// blank lines and marker remnants drop, the rest joins on single spaces.
func cleanPromptContent(content string) string {
	var cleaned []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "===") {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, " ")
}
