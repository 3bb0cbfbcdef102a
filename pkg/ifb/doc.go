// Package ifb estimates the GLONASS inter-frequency bias: a three-mode state
// machine (SEARCH, ADJUSTMENT, FROZEN, plus reset) that searches for and then
// tracks a scalar glo_dt correction applied to GLONASS carrier-phase residuals
// between satellites of different frequency channels.
package ifb
