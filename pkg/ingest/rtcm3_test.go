package ingest

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

// rtcm3Frame assembles a wire frame around payload: D3 preamble, 10-bit
// length, payload, 3-byte CRC (zeroed; framing does not validate it).
func rtcm3Frame(payload []byte) []byte {
	frame := []byte{0xD3, byte(len(payload) >> 8 & 0x03), byte(len(payload))}
	frame = append(frame, payload...)
	return append(frame, 0, 0, 0)
}

// payload1004 is a minimal payload whose first 12 bits encode message type
// 1004 (0x3EC).
var payload1004 = []byte{0x3E, 0xC0, 0x00, 0x00}

func recordingDecoder(types *[]int) Decoder {
	return func(messageType int, payload []byte) (gnssgo.Obs, error) {
		*types = append(*types, messageType)
		return gnssgo.Obs{Data: []gnssgo.ObsD{{Sat: 1}}}, nil
	}
}

func TestNextFramesSingleMessage(t *testing.T) {
	var types []int
	src := NewRTCM3Source(bytes.NewReader(rtcm3Frame(payload1004)), recordingDecoder(&types))

	obs, err := src.Next()

	assert.NoError(t, err)
	assert.Equal(t, []int{1004}, types)
	assert.Equal(t, 1, obs.N())
}

func TestNextResyncsPastLeadingGarbage(t *testing.T) {
	var types []int
	stream := append([]byte{0x00, 0xFF, 0x42}, rtcm3Frame(payload1004)...)
	src := NewRTCM3Source(bytes.NewReader(stream), recordingDecoder(&types))

	_, err := src.Next()

	assert.NoError(t, err)
	assert.Equal(t, []int{1004}, types)
}

func TestNextSurvivesSplitReads(t *testing.T) {
	var types []int
	r := iotest.OneByteReader(bytes.NewReader(rtcm3Frame(payload1004)))
	src := NewRTCM3Source(r, recordingDecoder(&types))

	_, err := src.Next()

	assert.NoError(t, err)
	assert.Equal(t, []int{1004}, types)
}

func TestNextFramesBackToBackMessages(t *testing.T) {
	var types []int
	stream := append(rtcm3Frame(payload1004), rtcm3Frame([]byte{0x3E, 0xD0})...) // 1004 then 1005
	src := NewRTCM3Source(bytes.NewReader(stream), recordingDecoder(&types))

	_, err1 := src.Next()
	_, err2 := src.Next()

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, []int{1004, 1005}, types)
}

func TestNextPropagatesReadError(t *testing.T) {
	src := NewRTCM3Source(bytes.NewReader(nil), recordingDecoder(&[]int{}))

	_, err := src.Next()

	assert.ErrorIs(t, err, io.EOF)
}
