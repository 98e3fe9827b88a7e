package constants

// SheetKeywords maps template sheet names onto categories. The table is
// ordered: the first category whose keyword matches a sheet name wins, and
// a sheet maps to at most one category. Matching is case-insensitive
// substring containment on the sheet name.
type SheetKeywords struct {
	Category Category
	Keywords []string
}

var sheetKeywords = []SheetKeywords{
	{LineEditing, []string{"line editing", "line-editing", "copy editing", "grammar"}},
	{Plot, []string{"plot", "story structure", "narrative"}},
	{Character, []string{"character", "characters", "characterization"}},
	{Flow, []string{"flow", "book flow", "rhythm", "transitions"}},
	{Worldbuilding, []string{"worldbuilding", "world building", "setting"}},
	{Readiness, []string{"readiness", "ladi readiness", "overall", "final"}},
}

// SheetKeywordTable returns the ordered keyword table. Process-wide and
// read-only; callers must not mutate it.
func SheetKeywordTable() []SheetKeywords {
	return sheetKeywords
}
