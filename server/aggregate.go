package attento

import (
	Mt "github.com/maroda/attento/types"
)

// Aggregator runs the scorer over every detection in one snapshot
type Aggregator struct {
	Scorer *Scorer
}

func NewAggregator(s *Scorer) *Aggregator {
	return &Aggregator{Scorer: s}
}

// emptySummary always carries every bucket, including unknown,
// so sum(summary) == total_people holds from the start
func emptySummary() map[Mt.Behavior]int {
	return map[Mt.Behavior]int{
		Mt.Attentive:   0,
		Mt.Sleeping:    0,
		Mt.LookingDown: 0,
		Mt.LookingAway: 0,
		Mt.Unknown:     0,
	}
}

// AggregateFrame classifies each person independently and tallies
// the frame summary. Order of detections is preserved and no
// detection influences another's result.
func (a *Aggregator) AggregateFrame(people [][]Mt.Keypoint) Mt.FrameResult {
	result := Mt.FrameResult{
		Summary: emptySummary(),
	}

	if len(people) == 0 {
		return result
	}

	for _, kps := range people {
		pr := a.Scorer.ScoreKeypoints(kps)
		result.PerPerson = append(result.PerPerson, pr)
		result.Summary[pr.Behavior]++
	}

	result.TotalPeople = len(people)
	result.AttentionRate = FloatPrecise(
		100*float64(result.Summary[Mt.Attentive])/float64(result.TotalPeople), 1)

	return result
}
