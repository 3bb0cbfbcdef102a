package fxhr

import (
	"math"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
	"github.com/rtkmulti/rtkmulti/pkg/hyp"
	"github.com/rtkmulti/rtkmulti/pkg/mhc"
)

// Validation thresholds for the fix-and-hold candidate.
const (
	NHypotheses             = 2
	MinEpochs               = 100
	MinFixFraction          = 0.70
	ResidThresh             = 0.02
	LowSolQual              = 100.0
	RtkPosThresh            = 0.1
	MinAlternativeFixes     = 10
	ResidFineThresh         = 0.01
	SlotContinuousFloat int = 0
	SlotFixAndHold      int = 1
)

// Strategy implements mhc.Strategy with the fix-and-hold two-slot policy.
type Strategy struct{}

var _ mhc.Strategy = Strategy{}

// Init populates a freshly constructed controller with the strategy's two
// slots: slot 0 continuous/float (GLONASS and BDS AR off), target SolQFloat;
// slot 1 the caller's full options, target SolQFix, pinned as the controller's
// main index.
func Init(c *mhc.Controller, seed *gnssgo.Rtk) {
	floatOpt := c.Options
	floatOpt.ModeAr = gnssgo.ArModeCont
	floatOpt.GloModeAr = gnssgo.ArModeOff
	floatOpt.BdsModeAr = gnssgo.ArModeOff

	idx0 := c.Add(seed)
	if idx0 != SlotContinuousFloat {
		panic("fxhr: expected slot 0 to be the first activated hypothesis")
	}
	h0 := c.Hypothesis(SlotContinuousFloat)
	h0.Rtk().Opt = floatOpt
	h0.TargetSolutionStatus = gnssgo.SolQFloat

	idx1 := c.Add(seed)
	if idx1 != SlotFixAndHold {
		panic("fxhr: expected slot 1 to be the second activated hypothesis")
	}
	h1 := c.Hypothesis(SlotFixAndHold)
	h1.TargetSolutionStatus = gnssgo.SolQFix

	c.SetIndexMain(SlotFixAndHold)
}

// Split is a no-op: the two hypotheses are created once, in Init, not
// dynamically.
func (Strategy) Split(c *mhc.Controller, input mhc.Input) {}

// Qualify validates slot 1 only; slot 0 is never excluded. An invalid slot 1
// is rescued from the continuous-float baseline rather than dropped.
func (Strategy) Qualify(c *mhc.Controller) {
	h0 := c.Hypothesis(SlotContinuousFloat)
	h1 := c.Hypothesis(SlotFixAndHold)
	if h0 == nil || h1 == nil || !h0.IsActive() || !h1.IsActive() {
		return
	}

	result := Validate(h0, h1, c)
	h1.SolutionQuality = result.SolutionQuality
	if result.Valid == 0 {
		resetFromSibling(h1, h0)
	}
}

// resetFromSibling resets dst to a fresh copy of src's current RTK state
// (preserving dst's own processing options), and rebuilds dst's stats history
// from src's history truncated to the second-most-recent entry so that dst's
// own just-appended current-epoch record remains the latest (see DESIGN.md).
func resetFromSibling(dst, src *hyp.Hypothesis) {
	preservedOpt := dst.Rtk().Opt
	currentEpoch, hasCurrent := dst.GetLastStats()
	donorHistory := src.StatsHistory().OldestFirst(1)

	dst.Reset(src.Rtk(), preservedOpt)

	dst.StatsHistory().Rebuild(donorHistory)
	if hasCurrent {
		dst.StatsHistory().Add(currentEpoch)
	}
}

// Merge copies slot 1's RTK state into the controller's output.
func (Strategy) Merge(c *mhc.Controller) {
	h1 := c.Hypothesis(SlotFixAndHold)
	if h1 == nil || !h1.IsActive() {
		return
	}
	*c.RtkOut = *h1.Rtk().Copy()
}

// ValidationResult carries the outcome of Validate so it can be unit-tested
// without going through Controller.
type ValidationResult struct {
	Valid           int // -1 indeterminate, 0 invalid, 1 valid
	SolutionQuality float64
	NAlt            int
	RmsRes          float64
	FixFraction     float64
}

// Validate scores slot 1 against slot 0: a fix-fraction gate over recent
// history (the head epoch is allowed to be float), a minimum-history gate,
// then the residual-RMS and alternative-fix checks.
func Validate(slot0, slot1 *hyp.Hypothesis, c *mhc.Controller) ValidationResult {
	res := ValidationResult{SolutionQuality: -1, Valid: -1}

	if slot1.TargetSolutionStatus != gnssgo.SolQFix {
		return res
	}

	e := slot1.StatsHistory().Length()
	if e >= 2 {
		fixed := 0
		for i := 1; i <= e-1; i++ {
			s, ok := slot1.GetStats(i)
			if ok && s.SolutionStatus == gnssgo.SolQFix {
				fixed++
			}
		}
		res.FixFraction = float64(fixed) / float64(e-1)
		if res.FixFraction < MinFixFraction {
			res.SolutionQuality = LowSolQual + 1.0
			return res
		}
	}

	if e < MinEpochs {
		return res
	}

	res.NAlt = countAlternativeFixes(slot0, slot1)
	res.RmsRes = rmsResidualsFixed(slot1)
	res.SolutionQuality = res.RmsRes

	if res.RmsRes >= ResidThresh {
		c.RaiseLargeResCounter()
	}
	if res.NAlt >= MinAlternativeFixes && res.RmsRes >= ResidFineThresh {
		c.RaiseAlterFixCounter()
	}

	if res.RmsRes < ResidThresh && (res.NAlt < MinAlternativeFixes || res.RmsRes < ResidFineThresh) {
		res.Valid = 1
	} else {
		res.Valid = 0
	}
	return res
}

// countAlternativeFixes counts epochs, over the common prefix of slot0 and
// slot1 histories, where slot1 disagrees with a fix slot0 holds: slot0 fixed
// while slot1 is not, or both fixed but further apart than RtkPosThresh.
func countAlternativeFixes(slot0, slot1 *hyp.Hypothesis) int {
	e0 := slot0.StatsHistory().Length()
	e1 := slot1.StatsHistory().Length()
	n := e0
	if e1 < n {
		n = e1
	}

	count := 0
	for i := 0; i < n; i++ {
		s0, ok0 := slot0.GetStats(i)
		s1, ok1 := slot1.GetStats(i)
		if !ok0 || !ok1 {
			continue
		}
		fix0 := s0.SolutionStatus == gnssgo.SolQFix
		fix1 := s1.SolutionStatus == gnssgo.SolQFix
		switch {
		case fix0 && !fix1:
			count++
		case fix0 && fix1:
			if dist3(s0.Position, s1.Position) > RtkPosThresh {
				count++
			}
		}
	}
	return count
}

func dist3(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// rmsResidualsFixed computes the RMS of non-zero carrier residuals across all
// satellites/frequencies in fix or hold status, over every fixed epoch in
// slot1's history. Non-FIX epochs are skipped entirely, before the
// per-satellite fix flags are consulted.
func rmsResidualsFixed(slot1 *hyp.Hypothesis) float64 {
	var sumSq float64
	var count int

	n := slot1.StatsHistory().Length()
	for i := 0; i < n; i++ {
		s, ok := slot1.GetStats(i)
		if !ok || s.SolutionStatus != gnssgo.SolQFix {
			continue
		}
		for sat := 0; sat < gnssgo.MaxSat; sat++ {
			for f := 0; f < gnssgo.NFreq; f++ {
				fix := s.CarrierFixStatus[sat][f]
				if fix != gnssgo.FixFix && fix != gnssgo.FixHold {
					continue
				}
				r := s.ResidualsCarrier[sat][f]
				if r == 0 {
					continue
				}
				sumSq += r * r
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}
