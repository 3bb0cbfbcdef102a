package hyp

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

// Hypothesis owns one RTK filter state plus its bounded stats history.
// Invariant: IsActive() <=> StatsHistory().Length() > 0, once the hypothesis
// has stepped at least once after activation.
type Hypothesis struct {
	ID uuid.UUID

	rtk    *gnssgo.Rtk
	stats  *StatsQueue
	active bool

	// SolutionQuality is -1 (undefined) until a strategy's validate sets it.
	SolutionQuality float64

	// TargetSolutionStatus is the SolQ* this hypothesis is expected to reach
	// once valid (e.g. SolQFloat for a continuous-float slot, SolQFix for a
	// fix-and-hold slot).
	TargetSolutionStatus int

	logger logrus.FieldLogger
}

// New returns an inactive hypothesis with pre-allocated, unused storage.
func New(logger logrus.FieldLogger) *Hypothesis {
	return &Hypothesis{
		ID:              uuid.New(),
		rtk:             &gnssgo.Rtk{},
		stats:           NewStatsQueue(),
		SolutionQuality: -1,
		logger:          logger,
	}
}

// IsActive reports whether this hypothesis currently holds a live RTK state.
func (h *Hypothesis) IsActive() bool { return h.active }

// Rtk returns the hypothesis's RTK state. Ownership stays with the hypothesis;
// callers must not mutate it outside of Step/Activate/Reset.
func (h *Hypothesis) Rtk() *gnssgo.Rtk { return h.rtk }

// StatsHistory returns the hypothesis's stats queue.
func (h *Hypothesis) StatsHistory() *StatsQueue { return h.stats }

// Activate seeds this hypothesis's RTK state from seed (or a freshly
// initialized state if nil) and marks it active. A non-nil seed also
// contributes the first stats-history entry, so the new hypothesis starts
// with a snapshot of the state it was cloned from.
func (h *Hypothesis) Activate(seed *gnssgo.Rtk, opt gnssgo.PrcOpt) {
	if seed != nil {
		h.rtk = seed.Copy()
		h.stats.Add(GetStats(h.rtk))
	} else {
		h.rtk = &gnssgo.Rtk{}
		h.rtk.InitRtk(opt)
	}
	h.rtk.Opt = opt
	h.active = true
	if h.logger != nil {
		h.logger.WithField("hypothesis", h.ID).Debug("hyp: activated")
	}
}

// Deactivate clears this hypothesis's stats history and RTK state, marking it
// inactive and its solution quality undefined.
func (h *Hypothesis) Deactivate() {
	h.rtk.FreeRtk()
	h.rtk = &gnssgo.Rtk{}
	h.stats.Reset()
	h.active = false
	h.SolutionQuality = -1
	if h.logger != nil {
		h.logger.WithField("hypothesis", h.ID).Debug("hyp: deactivated")
	}
}

// Reset deactivates then reactivates this hypothesis from seed.
func (h *Hypothesis) Reset(seed *gnssgo.Rtk, opt gnssgo.PrcOpt) {
	h.Deactivate()
	h.Activate(seed, opt)
}

// Step advances this hypothesis by one epoch: invokes the positioning engine,
// then appends the resulting stats snapshot to history.
func (h *Hypothesis) Step(engine gnssgo.Engine, obs []gnssgo.ObsD, nav *gnssgo.Nav) {
	engine.RtkPos(h.rtk, obs, nav)
	h.stats.Add(GetStats(h.rtk))
}

// GetStats returns the stats record indexFromHead epochs back from the most
// recent.
func (h *Hypothesis) GetStats(indexFromHead int) (Stats, bool) {
	return h.stats.Get(indexFromHead)
}

// GetLastStats returns the most recent stats record.
func (h *Hypothesis) GetLastStats() (Stats, bool) {
	return h.stats.Last()
}

// CopyStatsHistory replaces this hypothesis's stats history with up to
// upToIndexFromHead+1 of src's most recent entries.
func (h *Hypothesis) CopyStatsHistory(src *Hypothesis, upToIndexFromHead int) {
	h.stats.CopyFrom(src.stats, upToIndexFromHead)
}
