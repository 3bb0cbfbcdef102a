// Package mhc implements the multi-hypothesis RTK controller: a fixed-capacity
// set of hypothesis slots, a designated main index, a processing-options
// snapshot, and an output RTK state, driven each epoch by an external Strategy
// and the shared positioning engine. Active hypotheses step concurrently, with
// a join barrier before qualification.
package mhc
