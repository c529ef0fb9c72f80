package evaluation

import (
	"math"

	"github.com/volatiletech/null/v8"
)

type tally struct {
	sum   int
	count int
}

func (t tally) average() null.Float64 {
	if t.count == 0 {
		return null.Float64{}
	}
	return null.Float64From(round2(float64(t.sum) / float64(t.count)))
}

// averagesOf computes the category averages and the overall one, which is the mean of every
// rating rather than the mean of the category averages.
func averagesOf(details []Detail) Averages {
	tallies := make(map[Category]tally, len(Categories))
	var all tally
	for _, d := range details {
		if d.Category.CriteriaCount() == 0 {
			continue
		}
		t := tallies[d.Category]
		t.sum += d.Rating
		t.count++
		tallies[d.Category] = t

		all.sum += d.Rating
		all.count++
	}
	return Averages{
		Communications: tallies[Communications].average(),
		Management:     tallies[Management].average(),
		Assessment:     tallies[Assessment].average(),
		Overall:        all.average(),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
