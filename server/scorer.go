package attento

import (
	"math"

	Mt "github.com/maroda/attento/types"
)

/*

	Multi-signal weighted voting.

	No single geometric threshold is reliable across camera angles
	and partial occlusion, so each signal votes a weight into the
	behavior accumulators and the largest accumulator wins.

	The band boundaries and weights below are calibrated against a
	fixed overhead classroom camera. They are part of the observable
	contract, do not tidy them up.

*/

// S1: head elevation bands, highest-weight signal
const (
	HeadUprightMin = 0.55  // clearly upright
	HeadRaisedMin  = 0.30  // upright enough
	HeadDippedMin  = 0.10  // dipped toward desk
	HeadLowMin     = -0.10 // below this the head sits under the shoulder line

	WeightHeadUpright  = 3.0
	WeightHeadRaised   = 2.0
	WeightHeadDipped   = 2.0 // to looking_down
	WeightDippedDrowse = 0.5 // uncertainty spillover to sleeping
	WeightHeadLowSleep = 1.5
	WeightHeadLowDown  = 1.0
	WeightHeadUnder    = 3.0 // head far below shoulder line
)

// S2: trunk tilt (pixels, matches the shoulder width fallback scale)
const (
	TrunkSlumpMin    = 20.0  // shoulders below hips
	TrunkUprightMax  = -60.0 // shoulders well above hips
	WeightTrunkSlump = 1.2
	WeightTrunkUp    = 1.0
)

// S3: apparent eye separation
const (
	EyeWideMin       = 0.20 // face-on
	EyeNarrowMax     = 0.12 // profile view
	WeightEyesWide   = 1.0
	WeightEyesNarrow = 1.5
)

// S4: ear symmetry
const (
	WeightEarsBoth = 0.8
	WeightEarsOne  = 1.2
)

// S5: wrist-to-face proximity, the phone-use heuristic
const (
	WristNearMax     = 0.6
	WristCloseMax    = 1.0
	WeightWristNear  = 1.5
	PenaltyWristNear = 0.5 // subtracted from attentive
	WeightWristClose = 0.5
)

// S6: elbow elevation
const WeightElbowUp = 0.5

// MinSignalTotal guards against deciding on too little evidence
const MinSignalTotal = 1.0

// Confidence calibration
const (
	ConfidenceCap   = 97
	TiebreakGap     = 0.5
	TiebreakPenalty = 15
	TiebreakConfMin = 40
)

// scoreOrder fixes winner resolution for exact ties
var scoreOrder = []Mt.Behavior{Mt.Attentive, Mt.LookingDown, Mt.Sleeping, Mt.LookingAway}

// Scorer resolves a SignalSet into a behavior label with confidence
type Scorer struct {
	// TiebreakAttentive resolves near-ties toward the non-alerting
	// label to suppress false positives. This can mask a genuine
	// sleeping/looking_down near-tie, which is why it is a knob.
	TiebreakAttentive bool
}

func NewScorer() *Scorer {
	return &Scorer{TiebreakAttentive: true}
}

// ScoreKeypoints runs extraction and scoring for one person.
// Fewer than 13 keypoint slots is an immediate unknown.
func (s *Scorer) ScoreKeypoints(kps []Mt.Keypoint) Mt.PersonResult {
	if len(kps) < Mt.KPMinCount {
		return unknownResult(0)
	}
	return s.Score(ExtractSignals(kps))
}

// Score applies signals S1-S6 to the four accumulators and
// resolves the winner. Pure and deterministic.
func (s *Scorer) Score(sig SignalSet) Mt.PersonResult {
	acc := map[Mt.Behavior]float64{
		Mt.Attentive:   0,
		Mt.LookingDown: 0,
		Mt.Sleeping:    0,
		Mt.LookingAway: 0,
	}

	// S1: head elevation, five contiguous bands
	if sig.HeadElevation.OK {
		r := sig.HeadElevation.Val
		switch {
		case r > HeadUprightMin:
			acc[Mt.Attentive] += WeightHeadUpright
		case r > HeadRaisedMin:
			acc[Mt.Attentive] += WeightHeadRaised
		case r > HeadDippedMin:
			acc[Mt.LookingDown] += WeightHeadDipped
			acc[Mt.Sleeping] += WeightDippedDrowse
		case r > HeadLowMin:
			acc[Mt.Sleeping] += WeightHeadLowSleep
			acc[Mt.LookingDown] += WeightHeadLowDown
		default:
			acc[Mt.Sleeping] += WeightHeadUnder
		}
	}

	// S2: trunk tilt
	if sig.TrunkDelta.OK {
		switch {
		case sig.TrunkDelta.Val > TrunkSlumpMin:
			acc[Mt.Sleeping] += WeightTrunkSlump
		case sig.TrunkDelta.Val < TrunkUprightMax:
			acc[Mt.Attentive] += WeightTrunkUp
		}
	}

	// S3: eye separation
	if sig.EyeSeparation.OK {
		switch {
		case sig.EyeSeparation.Val >= EyeWideMin:
			acc[Mt.Attentive] += WeightEyesWide
		case sig.EyeSeparation.Val < EyeNarrowMax:
			acc[Mt.LookingAway] += WeightEyesNarrow
		}
	}

	// S4: ear symmetry
	switch {
	case sig.LeftEarSeen && sig.RightEarSeen:
		acc[Mt.Attentive] += WeightEarsBoth
	case sig.LeftEarSeen != sig.RightEarSeen:
		acc[Mt.LookingAway] += WeightEarsOne
	}

	// S5: each visible wrist votes independently
	for _, w := range []Signal{sig.WristFaceLeft, sig.WristFaceRight} {
		if !w.OK {
			continue
		}
		switch {
		case w.Val < WristNearMax:
			acc[Mt.LookingDown] += WeightWristNear
			acc[Mt.Attentive] -= PenaltyWristNear
		case w.Val < WristCloseMax:
			acc[Mt.LookingDown] += WeightWristClose
		}
	}

	// S6: elbow elevation
	if sig.LeftElbowUp || sig.RightElbowUp {
		acc[Mt.LookingDown] += WeightElbowUp
	}

	// The S5 penalty must not drive a category negative
	total := 0.0
	for k, v := range acc {
		if v < 0 {
			acc[k] = 0
			v = 0
		}
		total += v
	}

	if total < MinSignalTotal {
		return unknownResult(sig.VisibleKPs)
	}

	winner, second := resolveWinner(acc)
	confidence := int(math.Round(100 * acc[winner] / total))
	if confidence > ConfidenceCap {
		confidence = ConfidenceCap
	}

	// Near-tie fallback, see TiebreakAttentive
	if s.TiebreakAttentive && winner != Mt.Attentive && acc[winner]-acc[second] < TiebreakGap {
		winner = Mt.Attentive
		confidence -= TiebreakPenalty
		if confidence < TiebreakConfMin {
			confidence = TiebreakConfMin
		}
	}

	return Mt.PersonResult{
		Behavior:   winner,
		Confidence: confidence,
		Details: Mt.PersonDetails{
			Scores:     acc,
			VisibleKPs: sig.VisibleKPs,
		},
	}
}

// resolveWinner returns the top two categories in scoreOrder,
// ties keep the earlier category
func resolveWinner(acc map[Mt.Behavior]float64) (winner, second Mt.Behavior) {
	winner = scoreOrder[0]
	for _, b := range scoreOrder[1:] {
		if acc[b] > acc[winner] {
			winner = b
		}
	}
	for _, b := range scoreOrder {
		if b == winner {
			continue
		}
		if second == "" || acc[b] > acc[second] {
			second = b
		}
	}
	return winner, second
}

func unknownResult(visible int) Mt.PersonResult {
	return Mt.PersonResult{
		Behavior:   Mt.Unknown,
		Confidence: 0,
		Details: Mt.PersonDetails{
			Scores:     map[Mt.Behavior]float64{},
			VisibleKPs: visible,
		},
	}
}
