package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rtkmulti.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
base_multi_epoch: true
maxtdiff: 15.5
navsys: 5
modear: 3
glomodear: 3
bdsmodear: 0
refpos: 1
refpos_xyz: [4027881.0, 306998.0, 4919499.0]
serial_port: /dev/ttyUSB0
`)

	opt, err := Load(path)

	require.NoError(t, err)
	assert.True(t, opt.BaseMultiEpoch)
	assert.Equal(t, 15.5, opt.MaxTmDiff)
	assert.Equal(t, gnssgo.SysGPS|gnssgo.SysGLO, opt.NavSys)
	assert.Equal(t, "/dev/ttyUSB0", opt.SerialPort)
}

func TestLoadRejectsOutOfRangeArMode(t *testing.T) {
	path := writeConfig(t, "navsys: 1\nmodear: 9\n")

	_, err := Load(path)

	assert.Error(t, err, "modear above ArModeTCAR must be rejected at init")
}

func TestLoadRejectsNegativeMaxTmDiff(t *testing.T) {
	path := writeConfig(t, "navsys: 1\nmaxtdiff: -1\n")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPrcOptCarriesBasePosition(t *testing.T) {
	opt := Default()
	opt.RefPosXYZ = [3]float64{1, 2, 3}

	prc := opt.PrcOpt()

	assert.Equal(t, [3]float64{1, 2, 3}, prc.Rb)
	assert.Equal(t, opt.NavSys, prc.NavSys)
	assert.Equal(t, opt.MaxTmDiff, prc.MaxTmDiff)
}
