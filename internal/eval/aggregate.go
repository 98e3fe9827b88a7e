package eval

import (
	"math"

	"github.com/ladi-press/manuscript-eval/constants"
)

// Aggregator folds per-method category contributions into the combined set.
//
// The default merge is a left-fold of pairwise rounded means: the stored
// score and the incoming score average at each step, so with three or more
// contributions earlier ones carry less weight than later ones. That is the
// system's documented historical behavior and callers depend on it for
// parity; RunningMean switches to a true mean over all contributions. Text
// fields always keep the first contribution.
type Aggregator struct {
	runningMean bool
	combined    map[constants.Category]CategoryResult
	sums        map[constants.Category]int
	counts      map[constants.Category]int
}

func NewAggregator(runningMean bool) *Aggregator {
	return &Aggregator{
		runningMean: runningMean,
		combined:    make(map[constants.Category]CategoryResult),
		sums:        make(map[constants.Category]int),
		counts:      make(map[constants.Category]int),
	}
}

// Add folds one contribution into the combined set.
func (a *Aggregator) Add(id constants.Category, res CategoryResult) {
	a.sums[id] += res.Score
	a.counts[id]++

	existing, ok := a.combined[id]
	if !ok {
		a.combined[id] = res
		return
	}

	if a.runningMean {
		existing.Score = roundHalfAway(float64(a.sums[id]) / float64(a.counts[id]))
	} else {
		existing.Score = roundHalfAway(float64(existing.Score+res.Score) / 2)
	}
	a.combined[id] = existing
}

// AddMethod folds every category of one method result.
func (a *Aggregator) AddMethod(mr MethodResult) {
	for _, def := range constants.Definitions() {
		if res, ok := mr.Categories[def.ID]; ok {
			a.Add(def.ID, res)
		}
	}
}

// Combined returns the merged category set.
func (a *Aggregator) Combined() map[constants.Category]CategoryResult {
	return a.combined
}

// Overall computes the rounded mean over the combined categories.
func (a *Aggregator) Overall() int {
	return OverallScore(a.combined)
}

// OverallScore computes the rounded mean score across categories, 0 when
// none were evaluated.
func OverallScore(categories map[constants.Category]CategoryResult) int {
	if len(categories) == 0 {
		return 0
	}
	sum := 0
	for _, res := range categories {
		sum += res.Score
	}
	return roundHalfAway(float64(sum) / float64(len(categories)))
}

// roundHalfAway is the single rounding policy used at every rounding site:
// halves round away from zero.
func roundHalfAway(v float64) int {
	return int(math.Round(v))
}
