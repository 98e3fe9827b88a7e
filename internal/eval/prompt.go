package eval

import (
	"fmt"
)

// System messages for the two prompt scaffolds. Both demand JSON-only output
// so the structured parse path is the common case.
const (
	basicSystemPrompt    = "You are a professional manuscript evaluator. Provide evaluations in JSON format only."
	templateSystemPrompt = "You are an expert manuscript evaluator. Provide evaluations in JSON format only."
)

// buildBasicPrompt embeds a default-prompt evaluation request. The excerpt
// is already capped by the caller.
func buildBasicPrompt(title, prompt, excerpt string) string {
	return fmt.Sprintf(`You are a professional manuscript evaluator specializing in %s.

%s

Please provide your evaluation in the following JSON format:
{
    "score": <number between 0-100>,
    "summary": "<detailed summary of findings>",
    "strengths": ["<list of strengths>"],
    "areas_for_improvement": ["<list of areas for improvement>"]
}

Manuscript text to evaluate:
%s`, title, prompt, excerpt)
}

// buildTemplatePrompt embeds a custom-criteria evaluation request resolved
// from an uploaded template.
func buildTemplatePrompt(customPrompt, excerpt string) string {
	return fmt.Sprintf(`You are an expert manuscript evaluator. Please evaluate the following manuscript excerpt using this specific criteria:

%s

Manuscript excerpt:
%s

Please provide your evaluation in the following JSON format:
{
    "score": <score_out_of_100>,
    "summary": "<detailed_summary_of_findings>",
    "strengths": ["<strength1>", "<strength2>"],
    "areas_for_improvement": ["<area1>", "<area2>"]
}`, customPrompt, excerpt)
}
