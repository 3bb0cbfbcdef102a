package ingest

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// defaultSerialTimeout is a short read deadline so a quiet port never blocks
// Next() forever.
const defaultSerialTimeout = 100 * time.Millisecond

// SerialSource opens a serial port and frames RTCM3 messages off of it,
// satisfying gnssgo.ObservationSource. Fixed 8N1 framing; no TCP relay or
// "port:brate:..." path-string parsing.
type SerialSource struct {
	port serial.Port
	*RTCM3Source
}

// OpenSerial opens portName at baud with 8N1 framing and wraps it in an
// RTCM3Source using decode to turn framed payloads into observation bundles.
func OpenSerial(portName string, baud int, decode Decoder) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("ingest: open serial port %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(defaultSerialTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("ingest: set read timeout: %w", err)
	}
	return &SerialSource{port: p, RTCM3Source: NewRTCM3Source(p, decode)}, nil
}

// Close closes the underlying serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
