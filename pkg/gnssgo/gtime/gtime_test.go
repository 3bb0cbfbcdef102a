package gtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffCarriesFractionalSeconds(t *testing.T) {
	a := Gtime{Time: 100, Sec: 0.75}
	b := Gtime{Time: 99, Sec: 0.25}
	assert.InDelta(t, 1.5, Diff(a, b), 1e-12)
	assert.InDelta(t, -1.5, Diff(b, a), 1e-12)
}

func TestAddRenormalizesFraction(t *testing.T) {
	tt := Add(Gtime{Time: 100, Sec: 0.9}, 0.2)
	assert.Equal(t, int64(101), tt.Time)
	assert.InDelta(t, 0.1, tt.Sec, 1e-12)

	tt = Add(Gtime{Time: 100, Sec: 0.1}, -0.2)
	assert.Equal(t, int64(99), tt.Time)
	assert.InDelta(t, 0.9, tt.Sec, 1e-12)
}

func TestZeroValueMeansNoTimestamp(t *testing.T) {
	assert.True(t, Gtime{}.IsZero())
	assert.False(t, Gtime{Time: 1}.IsZero())
	assert.Equal(t, "0000/00/00 00:00:00.000", Gtime{}.String())
}
