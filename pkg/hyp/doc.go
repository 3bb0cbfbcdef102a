// Package hyp implements a single RTK hypothesis: one RTK filter state plus a
// bounded, ring-buffered history of per-epoch statistics, using the same
// ring-buffer-with-permutation-vector storage-reuse pattern as pkg/boq.
package hyp
