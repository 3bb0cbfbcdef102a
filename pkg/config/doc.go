// Package config loads and validates the processing-options configuration
// surface: base_multi_epoch, maxtdiff, navsys, the per-constellation
// ambiguity-resolution modes, and refpos.
package config
