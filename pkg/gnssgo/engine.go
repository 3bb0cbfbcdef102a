package gnssgo

import "math"

// Engine is the positioning-engine contract: a (near-)pure function of an RTK
// state, an observation bundle and navigation data, mutating rtk in place and
// returning its resulting solution status (SolQ*). Production implementations
// (ambiguity resolution, Kalman filtering) live outside this repository; see
// SimpleEngine for a reference stand-in used to exercise the orchestration
// layer end to end.
type Engine interface {
	RtkPos(rtk *Rtk, obs []ObsD, nav *Nav) int
}

// ObservationSource is the observation-decoder contract: something that yields
// one Obs bundle per call, bounded at MaxObs records.
type ObservationSource interface {
	Next() (Obs, error)
}

// SimpleEngine is an explicitly non-authoritative stand-in for the real
// positioning engine. It computes no position (RtkSol.Rr is left untouched);
// it performs only a synthetic ambiguity-status assignment driven by
// per-satellite synthetic carrier residuals, just enough to drive BOQ/MHC/FXHR/IFB through their real state
// machines in tests and demos. It must never be mistaken for a production RTK
// filter: ambiguity resolution and Kalman update internals belong to the real
// engine.
type SimpleEngine struct {
	// FixThreshold is the absolute carrier residual (m) below which SimpleEngine
	// reports a satellite/frequency as fixed rather than float.
	FixThreshold float64
}

// NewSimpleEngine returns a SimpleEngine with the conventional fix-and-hold
// residual threshold.
func NewSimpleEngine() *SimpleEngine {
	return &SimpleEngine{FixThreshold: 0.02}
}

// RtkPos implements Engine. It is deliberately simple: it does not solve a
// least-squares position from pseudoranges (that machinery belongs to the real
// engine); instead it advances rtk.RtkSol.Time, marks satellites vsat/fix based
// on whether they carry both code and carrier measurements, and synthesizes a
// residual sequence so downstream consumers (IFB, FXHR) have something non-
// trivial to react to.
func (e *SimpleEngine) RtkPos(rtk *Rtk, obs []ObsD, nav *Nav) int {
	if len(obs) == 0 {
		rtk.RtkSol.Stat = SolQNone
		return SolQNone
	}
	rtk.RtkSol.Time = obs[0].Time

	nGood, nFix, nSat := 0, 0, 0
	for i := range obs {
		o := &obs[i]
		if o.Sat <= 0 || o.Sat > MaxSat {
			continue
		}
		used := false
		ss := &rtk.Ssat[o.Sat-1]
		ss.Sys = uint8(SatSys(o.Sat))
		if geph, ok := glonassChannel(nav, o.Sat); ok {
			ss.FreqNum = geph
		}
		for f := 0; f < NFreq; f++ {
			if o.P[f] == 0 || o.L[f] == 0 {
				ss.Vsat[f] = 0
				ss.Fix[f] = FixNone
				ss.Resc[f] = 0
				ss.Resp[f] = 0
				continue
			}
			nGood++
			used = true
			ss.Vsat[f] = 1
			resid := syntheticResidual(o, f)
			ss.Resc[f] = resid
			ss.Resp[f] = resid * 10
			if math.Abs(resid) < e.FixThreshold {
				ss.Fix[f] = FixFix
				nFix++
			} else {
				ss.Fix[f] = FixFloat
			}
		}
		if used {
			nSat++
		}
	}

	switch {
	case nGood == 0:
		rtk.RtkSol.Stat = SolQNone
	case nFix > 0 && nFix == nGood:
		rtk.RtkSol.Stat = SolQFix
	default:
		rtk.RtkSol.Stat = SolQFloat
	}
	rtk.RtkSol.Ns = uint8(nSat)
	return int(rtk.RtkSol.Stat)
}

func glonassChannel(nav *Nav, sat int) (int, bool) {
	if nav == nil {
		return 0, false
	}
	return nav.GloFreqNum(sat)
}

// syntheticResidual derives a small, deterministic pseudo-residual from the
// observation's own measurements so SimpleEngine's behavior is reproducible
// without any external randomness.
func syntheticResidual(o *ObsD, freq int) float64 {
	frac := o.L[freq] - math.Trunc(o.L[freq])
	return frac * 0.05
}
