package ifb

import (
	"github.com/sirupsen/logrus"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

// Mode is the IFB estimator's state.
type Mode int

const (
	Search Mode = iota
	Adjustment
	Frozen
)

func (m Mode) String() string {
	switch m {
	case Search:
		return "SEARCH"
	case Adjustment:
		return "ADJUSTMENT"
	case Frozen:
		return "FROZEN"
	default:
		return "UNKNOWN"
	}
}

// Search range, guard, and smoothing constants for the glo_dt state machine.
const (
	MinGloDtSearch      = -0.3
	MaxGloDtSearch      = 0.3
	SearchStep          = 0.02
	MinSats             = 8
	MinGloSats          = 4
	MaxAdjustmentCount  = 1000
	MaxAdjustmentWindow = 20
	MaxFixOutage        = 200
	ValidationCount     = 200
	FreezeCount         = 200
	MaxGloDtDrift       = 0.05

	freq0 = 0 // frequency index used by the enough-sats guard and LS solve (L1)
)

// Estimator is the GLONASS inter-frequency bias state machine. Created once
// and kept for the life of the session; not safe for concurrent use.
type Estimator struct {
	mode Mode

	adjustmentCount int
	fixOutage       int

	gloDt        float64
	gloDtInitial float64
	deltaGloDt   float64

	signalToReset bool

	logger logrus.FieldLogger
}

// New returns an estimator in its initial SEARCH state with glo_dt = 0. The
// search scan therefore first wraps on its 16th step, not midway through the
// range (see DESIGN.md).
func New(logger logrus.FieldLogger) *Estimator {
	return &Estimator{logger: logger}
}

// IsValid reports whether the estimator has been constructed (always true once
// returned by New; exposed to mirror the C API's validity predicate).
func (e *Estimator) IsValid() bool { return true }

// Mode returns the estimator's current mode.
func (e *Estimator) Mode() Mode { return e.mode }

// GloDt returns the current scalar bias estimate.
func (e *Estimator) GloDt() float64 { return e.gloDt }

// DeltaGloDt returns the change in GloDt from the most recent Process call.
func (e *Estimator) DeltaGloDt() float64 { return e.deltaGloDt }

// AdjustmentCount exposes the current adjustment counter for tests/telemetry.
func (e *Estimator) AdjustmentCount() int { return e.adjustmentCount }

// FixOutage exposes the current fix-outage counter for tests/telemetry.
func (e *Estimator) FixOutage() int { return e.fixOutage }

// SendSignalToReset arms a reset to be applied on the next Process call.
func (e *Estimator) SendSignalToReset() { e.signalToReset = true }

// reset restores all fields to their initial, SEARCH-mode values.
func (e *Estimator) reset() {
	e.mode = Search
	e.adjustmentCount = 0
	e.fixOutage = 0
	e.gloDt = 0
	e.gloDtInitial = 0
	e.signalToReset = false
	if e.logger != nil {
		e.logger.Debug("ifb: reset to SEARCH")
	}
}

// enoughSats reports whether the epoch carries enough fixed satellites to act
// on: total fixed >= MinSats, and the GLONASS subset of those >= MinGloSats.
func enoughSats(rtk *gnssgo.Rtk) bool {
	total, glo := 0, 0
	for sat := 0; sat < gnssgo.MaxSat; sat++ {
		ss := &rtk.Ssat[sat]
		if ss.Vsat[freq0] != 1 {
			continue
		}
		if ss.Fix[freq0] != gnssgo.FixFix && ss.Fix[freq0] != gnssgo.FixHold {
			continue
		}
		total++
		if ss.Sys == gnssgo.SysGLO {
			glo++
		}
	}
	return total >= MinSats && glo >= MinGloSats
}

// findReference locates the reference GLONASS satellite's channel number.
func findReference(rtk *gnssgo.Rtk) (k int, ok bool) {
	for sat := 0; sat < gnssgo.MaxSat; sat++ {
		ss := &rtk.Ssat[sat]
		if ss.Sys == gnssgo.SysGLO && ss.IsReference {
			return ss.FreqNum, true
		}
	}
	return 0, false
}

// optimizeGloDtLocal performs the one-epoch scalar least-squares solve of
// glo_dt against this epoch's GLONASS carrier residuals. A missing reference
// GLONASS satellite yields ok=false rather than an assertion failure, leaving
// the caller to skip this epoch's update (see DESIGN.md).
func optimizeGloDtLocal(rtk *gnssgo.Rtk) (delta float64, ok bool) {
	kRef, found := findReference(rtk)
	if !found {
		return 0, false
	}

	const scale = gnssgo.CLIGHT / gnssgo.FreqGlo1
	var sumAA, sumAB float64
	n := 0
	for sat := 0; sat < gnssgo.MaxSat; sat++ {
		ss := &rtk.Ssat[sat]
		if ss.Sys != gnssgo.SysGLO || ss.IsReference {
			continue
		}
		if ss.Vsat[freq0] != 1 {
			continue
		}
		if ss.Fix[freq0] != gnssgo.FixFix && ss.Fix[freq0] != gnssgo.FixHold {
			continue
		}
		a := -float64(ss.FreqNum-kRef) * scale
		b := ss.Resc[freq0]
		sumAA += a * a
		sumAB += a * b
		n++
	}
	if n == 0 || sumAA == 0 {
		return 0, false
	}
	return sumAB / sumAA, true
}

// searchStep advances the triangular scan of glo_dt over
// [MinGloDtSearch, MaxGloDtSearch].
func (e *Estimator) searchStep(rtk *gnssgo.Rtk) {
	if !enoughSats(rtk) {
		return
	}
	e.gloDt += SearchStep
	if e.gloDt > MaxGloDtSearch {
		e.gloDt -= MaxGloDtSearch - MinGloDtSearch
	}
}

// adjustmentStep folds this epoch's least-squares delta into the smoothed
// glo_dt estimate. The first adjustment is taken whole and pins glo_dt_initial;
// later ones are weighted by 1/min(count, MaxAdjustmentWindow).
func (e *Estimator) adjustmentStep(rtk *gnssgo.Rtk) {
	if int(rtk.RtkSol.Stat) != gnssgo.SolQFix || !enoughSats(rtk) {
		return
	}
	delta, ok := optimizeGloDtLocal(rtk)
	if !ok {
		return
	}

	if e.adjustmentCount < MaxAdjustmentCount {
		e.adjustmentCount++
	}

	if e.adjustmentCount == 1 {
		e.gloDt += delta
		e.gloDtInitial = e.gloDt
		return
	}
	w := e.adjustmentCount
	if w > MaxAdjustmentWindow {
		w = MaxAdjustmentWindow
	}
	e.gloDt += delta / float64(w)
}

func (e *Estimator) checkSearchToAdjustment(rtk *gnssgo.Rtk) bool {
	return e.mode == Search && int(rtk.RtkSol.Stat) == gnssgo.SolQFix && enoughSats(rtk)
}

func (e *Estimator) checkAdjustmentToSearch(rtk *gnssgo.Rtk) bool {
	if e.mode != Adjustment || int(rtk.RtkSol.Stat) == gnssgo.SolQFix {
		return false
	}
	if e.adjustmentCount >= ValidationCount {
		return false
	}
	outageBound := e.adjustmentCount
	if outageBound > MaxFixOutage {
		outageBound = MaxFixOutage
	}
	return e.fixOutage >= outageBound
}

func (e *Estimator) checkAdjustmentToFrozen() bool {
	return e.mode == Adjustment && e.adjustmentCount >= FreezeCount
}

func (e *Estimator) checkReset() bool {
	if e.signalToReset {
		return true
	}
	if e.mode != Adjustment {
		return false
	}
	drift := e.gloDt - e.gloDtInitial
	if drift < 0 {
		drift = -drift
	}
	return drift > MaxGloDtDrift
}

// Process runs one epoch: update the fix-outage counter, apply any pending
// mode transition, execute the mode's step, apply the reset predicate, and
// record the resulting glo_dt delta — in that order.
func (e *Estimator) Process(rtk *gnssgo.Rtk) {
	gloDtPrev := e.gloDt

	switch int(rtk.RtkSol.Stat) {
	case gnssgo.SolQFloat:
		if e.fixOutage < MaxFixOutage {
			e.fixOutage++
		}
	case gnssgo.SolQFix:
		e.fixOutage = 0
	}

	switch {
	case e.checkSearchToAdjustment(rtk):
		e.mode = Adjustment
	case e.checkAdjustmentToSearch(rtk):
		e.mode = Search
		e.adjustmentCount = 0
		e.gloDtInitial = 0
	case e.checkAdjustmentToFrozen():
		e.mode = Frozen
	}

	switch e.mode {
	case Search:
		e.searchStep(rtk)
	case Adjustment:
		e.adjustmentStep(rtk)
	case Frozen:
	}

	if e.checkReset() {
		e.reset()
	}

	e.deltaGloDt = e.gloDt - gloDtPrev
}
