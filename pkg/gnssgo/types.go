package gnssgo

import "github.com/rtkmulti/rtkmulti/pkg/gnssgo/gtime"

// Gtime re-exports the shared GNSS time type so callers of this package never have
// to import pkg/gnssgo/gtime directly.
type Gtime = gtime.Gtime

// Physical and array-size constants, matching RTKLIB's conventions.
const (
	CLIGHT   = 299792458.0 // speed of light (m/s)
	FreqGlo1 = 1.60200e9   // GLONASS G1 base frequency (Hz)
	D2R      = 0.017453292519943295 // deg to rad
	R2D      = 57.29577951308232    // rad to deg

	NFreq  = 3   // number of carrier frequencies processed
	NExObs = 0   // extra observation slots beyond the carrier frequencies
	MaxSat = 231 // max satellite count (RTKLIB MAXSAT)
	MaxObs = 96  // max observations per epoch
)

// Navigation system bitmasks (RTKLIB SYS_*).
const (
	SysNone = 0x00
	SysGPS  = 0x01
	SysSBS  = 0x02
	SysGLO  = 0x04
	SysGAL  = 0x08
	SysQZS  = 0x10
	SysCMP  = 0x20 // BeiDou
	SysIRN  = 0x40
	SysLEO  = 0x80
	SysAll  = 0xFF
)

// Solution status (RTKLIB SOLQ_*).
const (
	SolQNone   = 0
	SolQFix    = 1
	SolQFloat  = 2
	SolQSBAS   = 3
	SolQDGPS   = 4
	SolQSingle = 5
	SolQPPP    = 6
	SolQDR     = 7
	MaxSolQ    = 7
)

// Per-satellite ambiguity-fix status: 0=not used, 1=float, 2=fix, 3=hold.
const (
	FixNone  = 0
	FixFloat = 1
	FixFix   = 2
	FixHold  = 3
)

// Ambiguity-resolution modes (RTKLIB ARMODE_*).
const (
	ArModeOff     = 0
	ArModeCont    = 1
	ArModeInst    = 2
	ArModeFixHold = 3
	ArModeWLNL    = 4
	ArModeTCAR    = 5
)

// Positioning modes (RTKLIB PMODE_*), trimmed to the ones this module references.
const (
	PModeSingle = 0
	PModeKinema = 5
	PModeStatic = 2
)

// Base-position mode (RTKLIB refpos values).
const (
	RefPosPosSingle = 0
	RefPosPosFixed  = 1
	RefPosPosRTCM   = 2
	RefPosPosRaw    = 3
)

// ObsD is a single-satellite, single-epoch observation record. LLI bit 0
// signals a cycle slip.
type ObsD struct {
	Time Gtime
	Sat  int
	Rcv  int // 1=rover, 2=base

	SNR  [NFreq + NExObs]uint16
	LLI  [NFreq + NExObs]uint8
	Code [NFreq + NExObs]uint8
	L    [NFreq + NExObs]float64 // carrier phase (cycles)
	P    [NFreq + NExObs]float64 // pseudorange (m)
	D    [NFreq + NExObs]float32 // Doppler (Hz)
}

// HasGoodSignal reports whether this record has a usable carrier+code pair on any
// frequency, the "good satellite" predicate BOQ uses to admit a bundle.
func (o *ObsD) HasGoodSignal() bool {
	for f := 0; f < NFreq; f++ {
		if o.P[f] != 0 && o.L[f] != 0 {
			return true
		}
	}
	return false
}

// CycleSlip reports whether LLI bit 0 is set on the given frequency.
func (o *ObsD) CycleSlip(freq int) bool {
	return o.LLI[freq]&1 != 0
}

// Obs is an ordered bundle of ObsD sharing a receiver epoch.
type Obs struct {
	Data []ObsD
}

// N returns the number of records currently held.
func (o *Obs) N() int { return len(o.Data) }

// Time returns the bundle's nominal epoch time: the time of its first record, or
// the zero Gtime if empty.
func (o *Obs) Time() Gtime {
	if len(o.Data) == 0 {
		return Gtime{}
	}
	return o.Data[0].Time
}

// Systems returns the bitwise-OR of SYS_* values present in this bundle.
func (o *Obs) Systems() int {
	mask := 0
	for i := range o.Data {
		mask |= SatSys(o.Data[i].Sat)
	}
	return mask
}

// SatSys maps a satellite id to its SYS_* constellation bit. Satellite numbering
// follows RTKLIB's contiguous per-system ranges.
func SatSys(sat int) int {
	switch {
	case sat <= 0:
		return SysNone
	case sat <= 32:
		return SysGPS
	case sat <= 32+24:
		return SysGLO
	case sat <= 32+24+30:
		return SysGAL
	case sat <= 32+24+30+10:
		return SysQZS
	case sat <= 32+24+30+10+35:
		return SysCMP
	case sat <= 32+24+30+10+35+39:
		return SysIRN
	case sat <= 32+24+30+10+35+39+5:
		return SysSBS
	default:
		return SysLEO
	}
}

// Eph is a GPS/GAL/QZS/BDS broadcast ephemeris record. Trimmed to the fields this
// module's reference engine needs; full ephemeris management is out of scope.
type Eph struct {
	Sat   int
	Toe   Gtime
	A, E, I0, OMG0, Omg, M0, Deln, OMGd, Idot float64
	Cuc, Cus, Crc, Crs, Cic, Cis              float64
	Svh, Sva                                  int
}

// GEph is a GLONASS broadcast ephemeris record, carrying the frequency channel
// number IFB needs.
type GEph struct {
	Sat     int
	Toe     Gtime
	FreqNum int // channel number k, roughly -7..+6
	Pos     [3]float64
	Vel     [3]float64
	Acc     [3]float64
	TauN    float64
	GammaN  float64
}

// Nav is the subset of navigation data this module's components read. Ephemeris
// management (selection, downloading, SSR/SBAS corrections) is an external
// collaborator's responsibility; this struct only carries what the reference
// engine and the IFB estimator need to run.
type Nav struct {
	Ephs   []Eph
	Geph   []GEph
	GloFcn [32]int // per-slot GLONASS channel number table; not read by GloFreqNum
}

// GloFreqNum returns the GLONASS frequency channel number for sat from the
// first GLONASS ephemeris record for that satellite. The GloFcn slot table is
// not consulted: with no matching ephemeris it reports (0, false).
func (n *Nav) GloFreqNum(sat int) (int, bool) {
	for i := range n.Geph {
		if n.Geph[i].Sat == sat {
			return n.Geph[i].FreqNum, true
		}
	}
	return 0, false
}

// Sol is a single-epoch solution.
type Sol struct {
	Time  Gtime
	Rr    [6]float64 // position/velocity (m, m/s), ECEF
	Qr    [6]float32 // position variance/covariance
	Stat  uint8      // SolQ*
	Ns    uint8      // number of satellites used
	Age   float32
	Ratio float32 // AR validation ratio; overwritten with sentinel codes by MHC
}

// SSat is per-satellite status carried inside Rtk.
type SSat struct {
	Sys         uint8
	Vsat        [NFreq]uint8 // valid-satellite flag per frequency
	Fix         [NFreq]uint8 // FixNone/FixFloat/FixFix/FixHold
	Slip        [NFreq]uint8
	Resc        [NFreq]float64 // carrier-phase residual (m)
	Resp        [NFreq]float64 // pseudorange residual (m)
	Azel        [2]float64
	FreqNum     int  // GLONASS channel number k; populated by the engine
	IsReference bool // reference-satellite flag for the current DD grouping
}

// AmbC is the per-satellite ambiguity-continuity bookkeeping record RTKLIB
// keeps across epochs (outage counters, fix epoch, reference ambiguity). Kept
// minimal; ambiguity resolution internals belong to the engine.
type AmbC struct {
	Epoch [NFreq]int
	Outc  [NFreq]int
	Fixc  [NFreq]int
	LC    [NFreq]float64
}

// PrcOpt is the processing-options snapshot, trimmed to the fields this
// pipeline recognizes as configuration.
type PrcOpt struct {
	Mode        int
	NavSys      int
	ModeAr      int
	GpsModeAr   int
	GloModeAr   int
	BdsModeAr   int
	RefPos      int
	Rb          [3]float64 // base position, ECEF (m)
	MaxTmDiff   float64    // BOQ projection maxage (s)
	BaseMultiEp bool       // base_multi_epoch
}

// DefaultPrcOpt returns conventional kinematic-rover / fix-and-hold defaults.
func DefaultPrcOpt() PrcOpt {
	return PrcOpt{
		Mode:      PModeKinema,
		NavSys:    SysGPS | SysGLO | SysGAL | SysCMP | SysQZS | SysSBS,
		ModeAr:    ArModeFixHold,
		GpsModeAr: ArModeFixHold,
		GloModeAr: ArModeFixHold,
		BdsModeAr: ArModeFixHold,
		RefPos:    RefPosPosFixed,
		MaxTmDiff: 30.0,
	}
}

// Rtk is the RTK filter state, opaque to the orchestration layers beyond the
// fields documented here. Only Engine implementations mutate
// RtkSol/Ssat/X/P; Rb is also written by the controller's per-epoch
// base-position update.
type Rtk struct {
	RtkSol Sol
	Rb     [6]float64 // base position/velocity, ECEF
	Nx, Na int
	X, P   []float64 // filter state/covariance, float mode
	Xa, Pa []float64 // filter state/covariance, fixed mode
	Nfix   int
	Ambc   [MaxSat]AmbC
	Ssat   [MaxSat]SSat
	Opt    PrcOpt
}

// InitRtk (re)initializes rtk for the given options, zeroing filter storage.
func (rtk *Rtk) InitRtk(opt PrcOpt) {
	rtk.RtkSol = Sol{}
	rtk.Rb = [6]float64{}
	rtk.Nx, rtk.Na = 0, 0
	rtk.X, rtk.P = nil, nil
	rtk.Xa, rtk.Pa = nil, nil
	rtk.Nfix = 0
	rtk.Ambc = [MaxSat]AmbC{}
	rtk.Ssat = [MaxSat]SSat{}
	rtk.Opt = opt
}

// FreeRtk releases filter storage.
func (rtk *Rtk) FreeRtk() {
	rtk.Nx, rtk.Na = 0, 0
	rtk.X, rtk.P, rtk.Xa, rtk.Pa = nil, nil, nil, nil
}

// Copy returns a deep copy of rtk so a hypothesis can be reset from another
// hypothesis's current state without aliasing slices.
func (rtk *Rtk) Copy() *Rtk {
	out := *rtk
	if rtk.X != nil {
		out.X = append([]float64(nil), rtk.X...)
	}
	if rtk.P != nil {
		out.P = append([]float64(nil), rtk.P...)
	}
	if rtk.Xa != nil {
		out.Xa = append([]float64(nil), rtk.Xa...)
	}
	if rtk.Pa != nil {
		out.Pa = append([]float64(nil), rtk.Pa...)
	}
	return &out
}
