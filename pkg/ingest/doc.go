// Package ingest adapts raw byte streams into the gnssgo.ObservationSource
// contract: framing only, never decoding. Turning a framed message's payload
// into gnssgo.ObsD records is the caller's decoder's job.
package ingest
