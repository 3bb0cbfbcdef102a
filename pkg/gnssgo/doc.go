// Package gnssgo holds the core GNSS data types shared by every subsystem in this
// repository: observation records, navigation data, solution state, and the RTK
// filter state that the positioning engine mutates each epoch.
//
// The types here intentionally mirror the field names and numbering RTKLIB (and its
// Go ports) use, since BOQ, HYP, MHC, FXHR and IFB are all built against that same
// vocabulary. The positioning engine itself — the thing that actually resolves
// ambiguities and runs the Kalman update — is treated as an external collaborator;
// see Engine and SimpleEngine.
package gnssgo
