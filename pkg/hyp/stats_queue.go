package hyp

// MaxStatsQueue bounds a hypothesis's stats history, in epochs.
const MaxStatsQueue = 300

// StatsQueue is a bounded ring buffer of Stats, indexed from head (most recent)
// to tail (oldest), following the same offset-permutation storage-reuse pattern
// as pkg/boq.Queue.
type StatsQueue struct {
	storage [MaxStatsQueue]Stats
	offset  [MaxStatsQueue]int
	length  int
}

// NewStatsQueue returns an empty, pre-allocated stats queue.
func NewStatsQueue() *StatsQueue {
	q := &StatsQueue{}
	for i := range q.offset {
		q.offset[i] = i
	}
	return q
}

// Length returns the number of epochs currently stored.
func (q *StatsQueue) Length() int { return q.length }

// Reset empties the queue without reallocating storage.
func (q *StatsQueue) Reset() {
	q.length = 0
}

// cut evicts the oldest (tail-most, i.e. lowest storage-order index) entry by
// rotating the permutation vector left by one.
func (q *StatsQueue) cut() {
	if q.length == 0 {
		return
	}
	evicted := q.offset[0]
	copy(q.offset[0:], q.offset[1:q.length])
	q.offset[q.length-1] = evicted
	q.length--
}

// Add appends s as the new most-recent (head) epoch, evicting the oldest entry
// first if at capacity.
func (q *StatsQueue) Add(s Stats) {
	if q.length == MaxStatsQueue {
		q.cut()
	}
	slot := q.offset[q.length]
	q.storage[slot] = s
	q.length++
}

// Get returns the Stats record indexFromHead epochs back from the most recent
// (indexFromHead==0 is the current/most recent epoch), and whether that index
// is in range. The head-newest view over a tail-newest ring is
// storage[offset[length-1-indexFromHead]].
func (q *StatsQueue) Get(indexFromHead int) (Stats, bool) {
	if indexFromHead < 0 || indexFromHead >= q.length {
		return Stats{}, false
	}
	tailIndex := q.length - 1 - indexFromHead
	return q.storage[q.offset[tailIndex]], true
}

// Last returns the most recent epoch's Stats, equivalent to Get(0).
func (q *StatsQueue) Last() (Stats, bool) {
	return q.Get(0)
}

// CopyFrom replaces this queue's contents with up to upToIndexFromHead+1 of
// src's most recent entries (oldest first). General-purpose history seeding
// utility; FXHR's qualify uses the more specific Rebuild when the receiving
// hypothesis's own just-stepped entry must be preserved as the new head.
func (q *StatsQueue) CopyFrom(src *StatsQueue, upToIndexFromHead int) {
	q.Reset()
	if upToIndexFromHead < 0 {
		return
	}
	n := src.Length()
	if upToIndexFromHead >= n {
		upToIndexFromHead = n - 1
	}
	for i := upToIndexFromHead; i >= 0; i-- {
		s, ok := src.Get(i)
		if !ok {
			continue
		}
		q.Add(s)
	}
}

// Rebuild replaces this queue's contents with the given entries, applied
// oldest-first (entries[0] becomes the oldest surviving epoch, entries[len-1]
// becomes the new head).
func (q *StatsQueue) Rebuild(entries []Stats) {
	q.Reset()
	for _, s := range entries {
		q.Add(s)
	}
}

// OldestFirst returns all of this queue's entries except the most recent
// skipHead epochs, ordered oldest-first (nil if none remain). Used by FXHR qualify to
// extract "everything except the head" from a donor hypothesis's history.
func (q *StatsQueue) OldestFirst(skipHead int) []Stats {
	n := q.length - skipHead
	if n <= 0 {
		return nil
	}
	out := make([]Stats, 0, n)
	for i := q.length - 1; i >= skipHead; i-- {
		s, ok := q.Get(i)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}
