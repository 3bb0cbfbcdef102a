// Package boq implements the base-observation reordering queue: a
// fixed-capacity ring buffer of base-station observation bundles, classified
// by constellation, with sticky cycle-slip propagation and a per-epoch
// constellation-wise freshest-within-maxage projection.
package boq
