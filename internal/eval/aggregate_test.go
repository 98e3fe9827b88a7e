package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladi-press/manuscript-eval/constants"
)

func contribution(score int, summary string) CategoryResult {
	return CategoryResult{
		Score:               score,
		Summary:             summary,
		Strengths:           []string{},
		AreasForImprovement: []string{},
		Status:              constants.CategoryCompleted,
	}
}

func TestAggregatorPairwiseMerge(t *testing.T) {
	t.Run("two contributions average exactly", func(t *testing.T) {
		agg := NewAggregator(false)
		agg.Add(constants.Plot, contribution(70, "first"))
		agg.Add(constants.Plot, contribution(90, "second"))

		combined := agg.Combined()
		require.Contains(t, combined, constants.Plot)
		assert.Equal(t, 80, combined[constants.Plot].Score)
	})

	t.Run("three contributions fold pairwise, not true mean", func(t *testing.T) {
		agg := NewAggregator(false)
		agg.Add(constants.Plot, contribution(70, "a"))
		agg.Add(constants.Plot, contribution(90, "b"))
		agg.Add(constants.Plot, contribution(50, "c"))

		// round((round((70+90)/2)+50)/2) = round((80+50)/2) = 65
		got := agg.Combined()[constants.Plot].Score
		assert.Equal(t, 65, got)
		assert.NotEqual(t, 70, got, "pairwise fold must differ from the true mean here")
	})

	t.Run("text fields keep the first contribution", func(t *testing.T) {
		agg := NewAggregator(false)
		first := contribution(70, "first summary")
		first.Strengths = []string{"opening chapters"}
		agg.Add(constants.Character, first)
		agg.Add(constants.Character, contribution(90, "second summary"))

		merged := agg.Combined()[constants.Character]
		assert.Equal(t, 80, merged.Score)
		assert.Equal(t, "first summary", merged.Summary)
		assert.Equal(t, []string{"opening chapters"}, merged.Strengths)
	})
}

func TestAggregatorRunningMean(t *testing.T) {
	agg := NewAggregator(true)
	agg.Add(constants.Plot, contribution(70, "a"))
	agg.Add(constants.Plot, contribution(90, "b"))
	agg.Add(constants.Plot, contribution(50, "c"))

	// (70+90+50)/3 = 70, the true mean the pairwise fold misses
	assert.Equal(t, 70, agg.Combined()[constants.Plot].Score)
}

func TestOverallScore(t *testing.T) {
	t.Run("empty set scores zero", func(t *testing.T) {
		assert.Equal(t, 0, OverallScore(nil))
		assert.Equal(t, 0, OverallScore(map[constants.Category]CategoryResult{}))
	})

	t.Run("rounded mean across categories", func(t *testing.T) {
		categories := map[constants.Category]CategoryResult{
			constants.LineEditing:   contribution(85, ""),
			constants.Plot:          contribution(78, ""),
			constants.Character:     contribution(92, ""),
			constants.Flow:          contribution(80, ""),
			constants.Worldbuilding: contribution(88, ""),
			constants.Readiness:     contribution(84, ""),
		}
		// 507/6 = 84.5, half rounds away from zero
		assert.Equal(t, 85, OverallScore(categories))
	})

	t.Run("single category passes through", func(t *testing.T) {
		categories := map[constants.Category]CategoryResult{
			constants.Plot: contribution(63, ""),
		}
		assert.Equal(t, 63, OverallScore(categories))
	})
}

func TestAggregatorAddMethod(t *testing.T) {
	agg := NewAggregator(false)
	agg.AddMethod(MethodResult{Categories: map[constants.Category]CategoryResult{
		constants.Plot:        contribution(70, "plot first"),
		constants.LineEditing: contribution(60, "line first"),
	}})
	agg.AddMethod(MethodResult{Categories: map[constants.Category]CategoryResult{
		constants.Plot: contribution(90, "plot second"),
	}})

	combined := agg.Combined()
	require.Len(t, combined, 2)
	assert.Equal(t, 80, combined[constants.Plot].Score)
	assert.Equal(t, 60, combined[constants.LineEditing].Score)
	assert.Equal(t, "plot first", combined[constants.Plot].Summary)

	// overall = round((80+60)/2) = 70
	assert.Equal(t, 70, agg.Overall())
}
