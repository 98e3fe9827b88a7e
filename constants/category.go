package constants

import (
	"strings"
)

// Category identifies one of the six manuscript evaluation dimensions.
type Category string

const (
	LineEditing   Category = "line-editing"
	Plot          Category = "plot"
	Character     Category = "character"
	Flow          Category = "flow"
	Worldbuilding Category = "worldbuilding"
	Readiness     Category = "readiness"
)

// Definition carries the display metadata and the default prompt for one
// category. The set is fixed at six entries and never extended at runtime.
type Definition struct {
	ID            Category
	Title         string
	Description   string
	DefaultPrompt string
}

var definitions = []Definition{
	{
		ID:            LineEditing,
		Title:         "Line & Copy Editing",
		Description:   "Grammar, syntax, clarity, and prose fluidity analysis",
		DefaultPrompt: "Analyze the manuscript for grammar, syntax, clarity, and prose fluidity. Provide a score out of 100 and a detailed summary of findings.",
	},
	{
		ID:            Plot,
		Title:         "Plot Evaluation",
		Description:   "Story structure, pacing, narrative tension, and resolution effectiveness",
		DefaultPrompt: "Evaluate the plot structure, pacing, narrative tension, and resolution effectiveness. Provide a score out of 100 and a detailed summary of findings.",
	},
	{
		ID:            Character,
		Title:         "Character Evaluation",
		Description:   "Character depth, motivation, consistency, and emotional impact",
		DefaultPrompt: "Assess character depth, motivation, consistency, and emotional impact throughout the manuscript. Provide a score out of 100 and a detailed summary of findings.",
	},
	{
		ID:            Flow,
		Title:         "Book Flow Evaluation",
		Description:   "Rhythm, transitions, escalation patterns, and narrative cohesion",
		DefaultPrompt: "Evaluate the book flow, including rhythm, transitions, escalation patterns, and narrative cohesion. Provide a score out of 100 and a detailed summary of findings.",
	},
	{
		ID:            Worldbuilding,
		Title:         "Worldbuilding & Setting",
		Description:   "Setting depth, continuity, and originality assessment",
		DefaultPrompt: "Analyze the worldbuilding and setting for depth, continuity, and originality. Provide a score out of 100 and a detailed summary of findings.",
	},
	{
		ID:            Readiness,
		Title:         "LADI Readiness Score",
		Description:   "Overall readiness assessment with proprietary scoring system",
		DefaultPrompt: "Provide an overall LADI readiness assessment using our proprietary scoring system. Consider all aspects of the manuscript and assign a readiness tier (High Readiness, Moderate Readiness, Needs Work, etc.) with a score out of 100 and detailed justification.",
	},
}

// Definitions returns the six category definitions in evaluation order.
// Callers must not mutate the returned slice.
func Definitions() []Definition {
	return definitions
}

// DefinitionFor looks up a single category definition.
func DefinitionFor(id Category) (Definition, bool) {
	for _, def := range definitions {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// DefaultPrompts returns the full six-entry category -> default prompt map.
func DefaultPrompts() map[Category]string {
	prompts := make(map[Category]string, len(definitions))
	for _, def := range definitions {
		prompts[def.ID] = def.DefaultPrompt
	}
	return prompts
}

// AsStringSlice returns the category ids in evaluation order.
func AsStringSlice() []string {
	result := make([]string, len(definitions))
	for i, def := range definitions {
		result[i] = string(def.ID)
	}
	return result
}

// Canonicalize maps free-form input onto a known category id.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"line editing":   LineEditing,
		"copy editing":   LineEditing,
		"characters":     Character,
		"book flow":      Flow,
		"world building": Worldbuilding,
		"ladi readiness": Readiness,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, def := range definitions {
		if normalized == string(def.ID) {
			return def.ID, true
		}
	}

	return "", false
}
