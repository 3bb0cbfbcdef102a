package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
)

// Options is the recognized configuration surface. Struct tags drive both
// YAML decoding and validator.v10 validation.
type Options struct {
	BaseMultiEpoch bool    `yaml:"base_multi_epoch"`
	MaxTmDiff      float64 `yaml:"maxtdiff" validate:"gte=0"`
	NavSys         int     `yaml:"navsys" validate:"required"`
	ModeAr         int     `yaml:"modear" validate:"gte=0,lte=5"`
	GpsModeAr      int     `yaml:"gpsmodear" validate:"gte=0,lte=5"`
	GloModeAr      int     `yaml:"glomodear" validate:"gte=0,lte=5"`
	BdsModeAr      int     `yaml:"bdsmodear" validate:"gte=0,lte=5"`
	RefPos         int     `yaml:"refpos" validate:"gte=0,lte=3"`
	RefPosXYZ      [3]float64 `yaml:"refpos_xyz"`

	SerialPort string `yaml:"serial_port"`
	LogLevel   string `yaml:"log_level"`
}

var validate = validator.New()

// Load reads and validates options from a YAML file at path.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	opt := Default()
	if err := yaml.Unmarshal(data, opt); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate.Struct(opt); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return opt, nil
}

// Default returns options matching gnssgo.DefaultPrcOpt, expressed in the
// config surface's shape.
func Default() *Options {
	d := gnssgo.DefaultPrcOpt()
	return &Options{
		BaseMultiEpoch: d.BaseMultiEp,
		MaxTmDiff:      d.MaxTmDiff,
		NavSys:         d.NavSys,
		ModeAr:         d.ModeAr,
		GpsModeAr:      d.GpsModeAr,
		GloModeAr:      d.GloModeAr,
		BdsModeAr:      d.BdsModeAr,
		RefPos:         d.RefPos,
		LogLevel:       "info",
	}
}

// PrcOpt converts Options into the gnssgo.PrcOpt processing snapshot the core
// components consume.
func (o *Options) PrcOpt() gnssgo.PrcOpt {
	return gnssgo.PrcOpt{
		Mode:        gnssgo.PModeKinema,
		NavSys:      o.NavSys,
		ModeAr:      o.ModeAr,
		GpsModeAr:   o.GpsModeAr,
		GloModeAr:   o.GloModeAr,
		BdsModeAr:   o.BdsModeAr,
		RefPos:      o.RefPos,
		Rb:          o.RefPosXYZ,
		MaxTmDiff:   o.MaxTmDiff,
		BaseMultiEp: o.BaseMultiEpoch,
	}
}
