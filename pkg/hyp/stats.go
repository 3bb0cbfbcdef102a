package hyp

import "github.com/rtkmulti/rtkmulti/pkg/gnssgo"

// Stats is a per-epoch projection of an Rtk state, kept compact so history
// does not store full RTK states.
type Stats struct {
	SolutionStatus   int
	ResidualsCarrier [gnssgo.MaxSat][gnssgo.NFreq]float64
	CarrierFixStatus [gnssgo.MaxSat][gnssgo.NFreq]uint8
	Position         [3]float64
}

// GetStats extracts a Stats snapshot from rtk, zeroing the fix status for any
// satellite/frequency not currently valid (vsat==0) so stale flags from a
// prior epoch never leak into history.
func GetStats(rtk *gnssgo.Rtk) Stats {
	var s Stats
	s.SolutionStatus = int(rtk.RtkSol.Stat)
	s.Position = [3]float64{rtk.RtkSol.Rr[0], rtk.RtkSol.Rr[1], rtk.RtkSol.Rr[2]}

	for sat := 0; sat < gnssgo.MaxSat; sat++ {
		ss := &rtk.Ssat[sat]
		for f := 0; f < gnssgo.NFreq; f++ {
			s.ResidualsCarrier[sat][f] = ss.Resc[f]
			if ss.Vsat[f] == 0 {
				s.CarrierFixStatus[sat][f] = gnssgo.FixNone
			} else {
				s.CarrierFixStatus[sat][f] = ss.Fix[f]
			}
		}
	}
	return s
}
