package boq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

func mkTime(sec int64) gnssgo.Gtime { return gnssgo.Gtime{Time: sec} }

func bundle(t int64, sats ...int) gnssgo.Obs {
	o := gnssgo.Obs{}
	for _, sat := range sats {
		o.Data = append(o.Data, gnssgo.ObsD{
			Time: mkTime(t),
			Sat:  sat,
			P:    [gnssgo.NFreq]float64{20000000},
			L:    [gnssgo.NFreq]float64{100000000},
		})
	}
	return o
}

func checkInvariant(t *testing.T, q *Queue) {
	t.Helper()
	assert.True(t, q.checkInvariant(), "offset permutation / length invariant violated")
}

func TestQueueInvariantAfterAddAndEvict(t *testing.T) {
	q := New(nil)
	for i := 0; i < Capacity+5; i++ {
		q.Add([]gnssgo.Obs{bundle(int64(100+i), 1)})
		checkInvariant(t, q)
	}
	assert.Equal(t, Capacity, q.Length())
}

func TestAddIgnoresBundlesWithNoGoodSat(t *testing.T) {
	q := New(nil)
	bad := gnssgo.Obs{Data: []gnssgo.ObsD{{Time: mkTime(100), Sat: 1}}} // no P/L
	q.Add([]gnssgo.Obs{bad})
	assert.Equal(t, 0, q.Length())
}

// A GPS-only bundle at t=100 followed by a GLO-only bundle at t=120, projected
// at t=125 with maxage=10, should contain only GLO (GPS is stale by 25s).
func TestProjectStaleEpochSkipped(t *testing.T) {
	q := New(nil)
	q.Add([]gnssgo.Obs{bundle(100, 1)})  // GPS sat 1
	q.Add([]gnssgo.Obs{bundle(120, 33)}) // GLO sat 33 (33 <= 32+24)

	var dst gnssgo.Obs
	q.Project(&dst, gnssgo.SysGPS|gnssgo.SysGLO, mkTime(125), 10)

	assert.Len(t, dst.Data, 1)
	assert.Equal(t, 33, dst.Data[0].Sat)
}

// Only the newest good-sat bundle per constellation is ever a candidate: when
// it fails the age check the group is skipped outright, even if an older
// bundle in the queue would have passed.
func TestProjectDoesNotFallBackToOlderBundleWhenNewestIsStale(t *testing.T) {
	q := New(nil)
	q.Add([]gnssgo.Obs{bundle(100, 1)}) // within maxage of tRef
	q.Add([]gnssgo.Obs{bundle(200, 2)}) // newest GPS candidate, 95s stale

	var dst gnssgo.Obs
	q.Project(&dst, gnssgo.SysGPS, mkTime(105), 10)

	assert.Empty(t, dst.Data)
}

func TestProjectMaxageZeroDisablesAgeCheck(t *testing.T) {
	q := New(nil)
	q.Add([]gnssgo.Obs{bundle(0, 1)})

	var dst gnssgo.Obs
	q.Project(&dst, gnssgo.SysGPS, mkTime(100000), 0)

	assert.Len(t, dst.Data, 1)
}

func TestProjectIsRepeatableWithoutMutation(t *testing.T) {
	q := New(nil)
	q.Add([]gnssgo.Obs{bundle(100, 1, 2)})

	var first, second gnssgo.Obs
	q.Project(&first, gnssgo.SysGPS, mkTime(100), 10)
	q.Project(&second, gnssgo.SysGPS, mkTime(100), 10)

	assert.Equal(t, first.Data, second.Data)
}

func TestProjectSortsBySatAscending(t *testing.T) {
	q := New(nil)
	q.Add([]gnssgo.Obs{bundle(100, 5, 2, 9)})

	var dst gnssgo.Obs
	q.Project(&dst, gnssgo.SysGPS, mkTime(100), 10)

	assert.Equal(t, []int{2, 5, 9}, []int{dst.Data[0].Sat, dst.Data[1].Sat, dst.Data[2].Sat})
}

func TestStickyCycleSlipSurvivesUntilProjected(t *testing.T) {
	q := New(nil)

	slipped := bundle(100, 1)
	slipped.Data[0].LLI[0] = 1 // cycle slip on sat 1, freq 0
	q.Add([]gnssgo.Obs{slipped})

	// A later bundle for the same sat/freq, without its own slip flag, still
	// picks up the sticky bit once projected.
	q.Add([]gnssgo.Obs{bundle(101, 1)})

	var dst gnssgo.Obs
	q.Project(&dst, gnssgo.SysGPS, mkTime(101), 10)
	assert.Len(t, dst.Data, 1)
	assert.NotZero(t, dst.Data[0].LLI[0]&1, "sticky slip bit should have propagated")

	// Once consumed, a second projection should no longer carry the bit (the
	// underlying stored bundle never had LLI set on its own).
	q.Add([]gnssgo.Obs{bundle(102, 1)})
	var dst2 gnssgo.Obs
	q.Project(&dst2, gnssgo.SysGPS, mkTime(102), 10)
	assert.Zero(t, dst2.Data[0].LLI[0]&1)
}
