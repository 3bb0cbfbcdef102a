package boq

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
	"github.com/rtkmulti/rtkmulti/pkg/gnssgo/gtime"
)

// Capacity is the ring buffer's bundle capacity: a few tens of seconds of
// base-station data at 1 Hz.
const Capacity = 32

// slipKey identifies a (satellite, frequency) pair in the sticky cycle-slip
// bitmap.
type slipKey struct {
	sat, freq int
}

// Queue is the base-observation reordering queue. It absorbs base bundles
// arriving at independent per-constellation cadences and projects, for any
// rover epoch, the freshest usable record set per constellation.
type Queue struct {
	storage [Capacity]gnssgo.Obs
	offset  [Capacity]int // permutation: logical slot i -> storage slot offset[i]
	length  int

	slip map[slipKey]bool // sticky cycle-slip bitmap

	logger logrus.FieldLogger
}

// New returns an empty queue with its storage pre-allocated and its
// permutation vector at the identity. Bundle slots are reused through the
// permutation vector, but each Add copies the admitted bundle's records into a
// newly allocated slice and each Project builds its per-constellation extracts
// in new slices; the sticky-slip map is bounded by MaxSat*NFreq distinct keys.
func New(logger logrus.FieldLogger) *Queue {
	q := &Queue{slip: make(map[slipKey]bool), logger: logger}
	for i := range q.offset {
		q.offset[i] = i
	}
	return q
}

// Length returns the number of bundles currently held.
func (q *Queue) Length() int { return q.length }

// checkInvariant reports whether the permutation and length invariants hold;
// used only by tests, never on the steady-state hot path.
func (q *Queue) checkInvariant() bool {
	seen := make([]bool, Capacity)
	for _, o := range q.offset {
		if o < 0 || o >= Capacity || seen[o] {
			return false
		}
		seen[o] = true
	}
	return q.length >= 0 && q.length <= Capacity
}

// cut evicts the oldest (logical index 0) bundle by rotating the permutation
// vector left by one, so its storage slot is reused by the next Add.
func (q *Queue) cut() {
	if q.length == 0 {
		return
	}
	evicted := q.offset[0]
	copy(q.offset[0:], q.offset[1:q.length])
	q.offset[q.length-1] = evicted
	q.length--
}

// markSlips records a sticky cycle-slip bit for every (sat, freq) in bundle
// reporting LLI bit 0.
func (q *Queue) markSlips(bundle *gnssgo.Obs) {
	for i := range bundle.Data {
		o := &bundle.Data[i]
		for f := 0; f < gnssgo.NFreq; f++ {
			if o.CycleSlip(f) {
				q.slip[slipKey{o.Sat, f}] = true
			}
		}
	}
}

// applyStickySlips ORs the sticky slip bits into the stored copy's LLI, so a
// slip flagged on an earlier, unprojected bundle is still visible once this
// bundle's (sat, freq) is finally projected.
func (q *Queue) applyStickySlips(bundle *gnssgo.Obs) {
	for i := range bundle.Data {
		o := &bundle.Data[i]
		for f := 0; f < gnssgo.NFreq; f++ {
			if q.slip[slipKey{o.Sat, f}] {
				o.LLI[f] |= 1
			}
		}
	}
}

// Add appends zero or more observation bundles to the queue, evicting the
// oldest entries first once at capacity. Bundles with no good satellites are
// ignored.
func (q *Queue) Add(bundles []gnssgo.Obs) {
	for bi := range bundles {
		bundle := bundles[bi]
		if !hasGoodSat(&bundle) {
			continue
		}

		q.markSlips(&bundle)
		q.applyStickySlips(&bundle)

		if q.length == Capacity {
			q.cut()
		}
		slot := q.offset[q.length]
		q.storage[slot] = copyObs(bundle)
		q.length++

		if q.logger != nil {
			q.logger.WithField("n_sat", bundle.N()).Debug("boq: bundle admitted")
		}
	}
}

func hasGoodSat(bundle *gnssgo.Obs) bool {
	for i := range bundle.Data {
		if bundle.Data[i].HasGoodSignal() {
			return true
		}
	}
	return false
}

func copyObs(o gnssgo.Obs) gnssgo.Obs {
	return gnssgo.Obs{Data: append([]gnssgo.ObsD(nil), o.Data...)}
}

// constellationGroups partitions SYS_* bits into projection groups:
// GPS|QZS|SBS merged into one group, GLO/GAL/BDS/IRN/LEO each a singleton.
func constellationGroups(navsysMask int) []int {
	groups := make([]int, 0, 6)
	merged := navsysMask & (gnssgo.SysGPS | gnssgo.SysQZS | gnssgo.SysSBS)
	if merged != 0 {
		groups = append(groups, merged)
	}
	for _, bit := range []int{gnssgo.SysGLO, gnssgo.SysGAL, gnssgo.SysCMP, gnssgo.SysIRN, gnssgo.SysLEO} {
		if navsysMask&bit != 0 {
			groups = append(groups, bit)
		}
	}
	return groups
}

// isDataCurrent applies the projection age gate. maxage<=0 or a zero reference
// time both disable the check entirely.
func isDataCurrent(tRef, tData gnssgo.Gtime, maxage float64) bool {
	if maxage <= 0 || tRef.IsZero() {
		return true
	}
	return math.Abs(gtime.Diff(tRef, tData)) <= maxage
}

// extractSystem returns a copy of bundle containing only the records whose
// satellite belongs to systemMask.
func extractSystem(bundle *gnssgo.Obs, systemMask int) gnssgo.Obs {
	out := gnssgo.Obs{}
	for i := range bundle.Data {
		if gnssgo.SatSys(bundle.Data[i].Sat)&systemMask != 0 {
			out.Data = append(out.Data, bundle.Data[i])
		}
	}
	return out
}

// clearSlipsFor clears the sticky cycle-slip bits for every (sat, freq)
// present in extracted, since a projection has now consumed them.
func (q *Queue) clearSlipsFor(extracted *gnssgo.Obs) {
	for i := range extracted.Data {
		o := &extracted.Data[i]
		for f := 0; f < gnssgo.NFreq; f++ {
			delete(q.slip, slipKey{o.Sat, f})
		}
	}
}

// Project fills dst with the constellation-wise freshest bundle content within
// maxage of tRef, then sorts the result by satellite id ascending.
func (q *Queue) Project(dst *gnssgo.Obs, navsysMask int, tRef gnssgo.Gtime, maxage float64) {
	dst.Data = dst.Data[:0]

	for _, group := range constellationGroups(navsysMask) {
		for li := q.length - 1; li >= 0; li-- {
			bundle := &q.storage[q.offset[li]]
			extracted := extractSystem(bundle, group)
			if len(extracted.Data) == 0 || !hasGoodSat(&extracted) {
				continue
			}
			// Only the newest good-sat candidate per group is ever
			// considered: if it is stale the group goes unprojected this
			// epoch, with no fallback to older bundles.
			if isDataCurrent(tRef, bundle.Time(), maxage) {
				q.clearSlipsFor(&extracted)
				dst.Data = append(dst.Data, extracted.Data...)
			}
			break
		}
	}

	sort.Slice(dst.Data, func(i, j int) bool { return dst.Data[i].Sat < dst.Data[j].Sat })
}
