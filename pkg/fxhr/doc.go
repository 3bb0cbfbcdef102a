// Package fxhr implements the fix-and-hold refinement strategy: a concrete
// mhc.Strategy maintaining exactly two hypotheses, a continuous-float baseline
// (slot 0) and a fix-and-hold candidate (slot 1), validated via RMS carrier
// residuals, recent fix rate, and agreement with the baseline.
package fxhr
