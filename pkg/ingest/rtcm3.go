package ingest

import (
	"fmt"
	"io"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

// Decoder turns a framed RTCM3 message (type, payload) into an observation
// bundle. This package never decodes message payloads itself; callers supply
// their own.
type Decoder func(messageType int, payload []byte) (gnssgo.Obs, error)

// Frame is one framed RTCM3 message: the D3 preamble stripped, length
// validated, payload and message type extracted.
type Frame struct {
	MessageType int
	Payload     []byte
}

// RTCM3Source reads a byte stream and frames RTCM3 messages off of it,
// dispatching each frame's payload to Decode to satisfy
// gnssgo.ObservationSource. It performs no CRC validation of its own; the
// decoder is expected to reject malformed payloads.
type RTCM3Source struct {
	r      io.Reader
	buf    []byte
	read   [4096]byte
	Decode Decoder
}

// NewRTCM3Source returns a source reading framed RTCM3 messages from r.
func NewRTCM3Source(r io.Reader, decode Decoder) *RTCM3Source {
	return &RTCM3Source{r: r, Decode: decode}
}

// Next blocks until one complete RTCM3 frame has been read and decoded, or an
// error occurs. A read that returns no bytes and no error (as a serial read
// timeout does) also ends the call with an error; any partial frame stays
// buffered for the next call.
func (s *RTCM3Source) Next() (gnssgo.Obs, error) {
	for {
		if frame, ok := s.tryExtractFrame(); ok {
			return s.Decode(frame.MessageType, frame.Payload)
		}
		n, err := s.r.Read(s.read[:])
		if n > 0 {
			s.buf = append(s.buf, s.read[:n]...)
		}
		if err != nil {
			return gnssgo.Obs{}, fmt.Errorf("ingest: read: %w", err)
		}
		if n == 0 {
			return gnssgo.Obs{}, fmt.Errorf("ingest: read: no data")
		}
	}
}

// tryExtractFrame implements the D3-preamble, 10-bit-length RTCM3 framing
// rule: preamble byte 0xD3, 6 reserved bits then a 10-bit payload length in
// the next two bytes, payload, then a 3-byte CRC.
func (s *RTCM3Source) tryExtractFrame() (Frame, bool) {
	for len(s.buf) >= 3 && s.buf[0] != 0xD3 {
		s.buf = s.buf[1:]
	}
	if len(s.buf) < 6 {
		return Frame{}, false
	}
	length := (int(s.buf[1]&0x03) << 8) | int(s.buf[2])
	total := length + 6
	if len(s.buf) < total {
		return Frame{}, false
	}

	messageType := (int(s.buf[3]) << 4) | (int(s.buf[4]) >> 4)
	payload := make([]byte, length)
	copy(payload, s.buf[3:3+length])
	s.buf = s.buf[total:]

	return Frame{MessageType: messageType, Payload: payload}, true
}
