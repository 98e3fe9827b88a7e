package eval

import (
	"github.com/ladi-press/manuscript-eval/constants"
)

// Synthetic results stand in when no model client is configured. Values are
// fixed so the path is reproducible and recognizable in stored output; the
// per-method Synthetic flag and a warning log keep it from being mistaken
// for a genuine evaluation.

var syntheticBasicResults = map[constants.Category]CategoryResult{
	constants.LineEditing: {
		Score:               85,
		Summary:             "Strong prose with excellent clarity. Minor grammar inconsistencies noted in dialogue sections.",
		Strengths:           []string{"Clear writing style", "Good sentence structure"},
		AreasForImprovement: []string{"Dialogue punctuation", "Consistent tense usage"},
		Status:              constants.CategoryCompleted,
	},
	constants.Plot: {
		Score:               78,
		Summary:             "Well-structured narrative with good pacing. The middle section could benefit from increased tension.",
		Strengths:           []string{"Clear story arc", "Good pacing"},
		AreasForImprovement: []string{"Middle section tension", "Subplot integration"},
		Status:              constants.CategoryCompleted,
	},
	constants.Character: {
		Score:               92,
		Summary:             "Exceptional character development with clear motivations and authentic dialogue throughout.",
		Strengths:           []string{"Deep character development", "Authentic dialogue"},
		AreasForImprovement: []string{"Minor character consistency"},
		Status:              constants.CategoryCompleted,
	},
	constants.Flow: {
		Score:               80,
		Summary:             "Smooth transitions between scenes. Some chapters end abruptly but overall flow is engaging.",
		Strengths:           []string{"Good scene transitions", "Engaging flow"},
		AreasForImprovement: []string{"Chapter endings", "Pacing consistency"},
		Status:              constants.CategoryCompleted,
	},
	constants.Worldbuilding: {
		Score:               88,
		Summary:             "Rich, immersive setting with consistent internal logic. Great attention to environmental details.",
		Strengths:           []string{"Immersive setting", "Consistent world logic"},
		AreasForImprovement: []string{"More background details"},
		Status:              constants.CategoryCompleted,
	},
	constants.Readiness: {
		Score:               84,
		Summary:             "High readiness for publication. Minor revisions recommended before final submission.",
		Strengths:           []string{"Overall quality", "Publication ready"},
		AreasForImprovement: []string{"Minor revisions needed"},
		Status:              constants.CategoryCompleted,
	},
}

var syntheticTemplateScores = map[constants.Category]int{
	constants.LineEditing:   80,
	constants.Plot:          75,
	constants.Character:     70,
	constants.Flow:          78,
	constants.Worldbuilding: 82,
	constants.Readiness:     75,
}

var syntheticTemplateSummaries = map[constants.Category]string{
	constants.LineEditing:   "The manuscript demonstrates solid grammar and syntax with good prose fluidity. Minor improvements needed in sentence structure.",
	constants.Plot:          "The plot shows good structure and pacing. Narrative tension builds effectively, though some resolution elements could be strengthened.",
	constants.Character:     "Characters are well-developed with clear motivations. Emotional impact is present but could be deepened in certain scenes.",
	constants.Flow:          "The book flows well with good rhythm and transitions. Escalation patterns are effective and maintain reader engagement.",
	constants.Worldbuilding: "The setting is well-crafted with good depth and continuity. Original elements add value to the narrative.",
	constants.Readiness:     "Overall manuscript shows moderate readiness for publication. Key areas identified for improvement before final submission.",
}

// syntheticResult returns the fixed stand-in for one (category, method) step.
func syntheticResult(category constants.Category, method constants.Method) CategoryResult {
	if method == constants.MethodBasic {
		if res, ok := syntheticBasicResults[category]; ok {
			return res
		}
	}

	score, ok := syntheticTemplateScores[category]
	if !ok {
		score = 75
	}
	summary, ok := syntheticTemplateSummaries[category]
	if !ok {
		summary = "Evaluation completed successfully."
	}
	return CategoryResult{
		Score:               score,
		Summary:             summary,
		Strengths:           []string{"Good structure", "Clear narrative"},
		AreasForImprovement: []string{"Minor refinements needed"},
		Status:              constants.CategoryCompleted,
	}
}
