package hyp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

type stubEngine struct {
	stat int
}

func (e *stubEngine) RtkPos(rtk *gnssgo.Rtk, obs []gnssgo.ObsD, nav *gnssgo.Nav) int {
	rtk.RtkSol.Stat = uint8(e.stat)
	return e.stat
}

func TestNewHypothesisIsInactive(t *testing.T) {
	h := New(nil)
	assert.False(t, h.IsActive())
	assert.Equal(t, -1.0, h.SolutionQuality)
}

func TestActivateMarksActiveAndSeedsFromNil(t *testing.T) {
	h := New(nil)
	opt := gnssgo.DefaultPrcOpt()
	h.Activate(nil, opt)

	assert.True(t, h.IsActive())
	assert.Equal(t, opt, h.Rtk().Opt)
	assert.Equal(t, 0, h.StatsHistory().Length(), "no seed, no snapshot to record")
}

func TestActivateFromSeedRecordsInitialSnapshot(t *testing.T) {
	h := New(nil)
	seed := &gnssgo.Rtk{}
	seed.RtkSol.Stat = gnssgo.SolQFix
	seed.RtkSol.Rr = [6]float64{1, 2, 3}

	h.Activate(seed, gnssgo.DefaultPrcOpt())

	assert.Equal(t, 1, h.StatsHistory().Length())
	s, ok := h.GetLastStats()
	assert.True(t, ok)
	assert.Equal(t, gnssgo.SolQFix, s.SolutionStatus)
	assert.Equal(t, [3]float64{1, 2, 3}, s.Position)
}

func TestActivateCopiesSeedWithoutAliasing(t *testing.T) {
	h := New(nil)
	seed := &gnssgo.Rtk{}
	seed.X = []float64{1, 2, 3}
	opt := gnssgo.DefaultPrcOpt()

	h.Activate(seed, opt)
	h.Rtk().X[0] = 99

	assert.Equal(t, 1.0, seed.X[0], "activating must deep-copy the seed's filter state")
}

func TestDeactivateClearsHistoryAndQuality(t *testing.T) {
	h := New(nil)
	h.Activate(nil, gnssgo.DefaultPrcOpt())
	h.Step(&stubEngine{stat: gnssgo.SolQFix}, nil, nil)
	h.SolutionQuality = 0.01

	h.Deactivate()

	assert.False(t, h.IsActive())
	assert.Equal(t, -1.0, h.SolutionQuality)
	assert.Equal(t, 0, h.StatsHistory().Length())
}

func TestResetIsDeactivateThenActivate(t *testing.T) {
	h := New(nil)
	opt := gnssgo.DefaultPrcOpt()
	h.Activate(nil, opt)
	for i := 0; i < 5; i++ {
		h.Step(&stubEngine{stat: gnssgo.SolQFix}, nil, nil)
	}

	seed := &gnssgo.Rtk{}
	seed.RtkSol.Stat = gnssgo.SolQFloat
	h.Reset(seed, opt)

	assert.True(t, h.IsActive())
	assert.Equal(t, 1, h.StatsHistory().Length(), "old history cleared, seed snapshot appended")
	s, ok := h.GetLastStats()
	assert.True(t, ok)
	assert.Equal(t, gnssgo.SolQFloat, s.SolutionStatus)
}

func TestStepAppendsStatsEachCall(t *testing.T) {
	h := New(nil)
	h.Activate(nil, gnssgo.DefaultPrcOpt())

	h.Step(&stubEngine{stat: gnssgo.SolQFix}, nil, nil)
	h.Step(&stubEngine{stat: gnssgo.SolQFloat}, nil, nil)

	assert.Equal(t, 2, h.StatsHistory().Length())
	last, ok := h.GetLastStats()
	assert.True(t, ok)
	assert.Equal(t, gnssgo.SolQFloat, last.SolutionStatus)
	prev, ok := h.GetStats(1)
	assert.True(t, ok)
	assert.Equal(t, gnssgo.SolQFix, prev.SolutionStatus)
}

func TestCopyStatsHistoryTruncatesToRequestedDepth(t *testing.T) {
	src := New(nil)
	src.Activate(nil, gnssgo.DefaultPrcOpt())
	for i := 0; i < 5; i++ {
		src.Step(&stubEngine{stat: gnssgo.SolQFix}, nil, nil)
	}

	dst := New(nil)
	dst.Activate(nil, gnssgo.DefaultPrcOpt())
	dst.CopyStatsHistory(src, 2) // most recent 3 entries

	assert.Equal(t, 3, dst.StatsHistory().Length())
}

func TestGetStatsZeroesFixStatusForInvalidSat(t *testing.T) {
	rtk := &gnssgo.Rtk{}
	rtk.RtkSol.Stat = gnssgo.SolQFix
	rtk.Ssat[0].Vsat[0] = 0
	rtk.Ssat[0].Fix[0] = gnssgo.FixFix // stale flag from a prior epoch

	s := GetStats(rtk)

	assert.Equal(t, uint8(gnssgo.FixNone), s.CarrierFixStatus[0][0])
}
