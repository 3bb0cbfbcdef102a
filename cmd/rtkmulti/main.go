// Command rtkmulti runs the multi-hypothesis RTK pipeline against a rover and,
// optionally, a base observation source. It wires the fix-and-hold strategy by
// default; the reference SimpleEngine stands in for a production positioning
// engine.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rtkmulti/rtkmulti/pkg/config"
	"github.com/rtkmulti/rtkmulti/pkg/fxhr"
	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
	"github.com/rtkmulti/rtkmulti/pkg/ifb"
	"github.com/rtkmulti/rtkmulti/pkg/ingest"
	"github.com/rtkmulti/rtkmulti/pkg/mhc"
	"github.com/rtkmulti/rtkmulti/pkg/rtksvr"
)

func main() {
	app := &cli.App{
		Name:  "rtkmulti",
		Usage: "multi-hypothesis fix-and-hold RTK server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML configuration file"},
			&cli.StringFlag{Name: "serial-port", Usage: "rover serial port, overrides config's serial_port"},
			&cli.IntFlag{Name: "baud", Value: 115200, Usage: "rover serial port baud rate"},
			&cli.StringFlag{Name: "base-serial-port", Usage: "optional base-station serial port"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "logrus level: debug, info, warn, error"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("rtkmulti: fatal error")
	}
}

func run(c *cli.Context) error {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("rtkmulti: invalid log level: %w", err)
	}
	logger.SetLevel(level)

	opt := gnssgo.DefaultPrcOpt()
	serialPort := c.String("serial-port")
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		opt = cfg.PrcOpt()
		if serialPort == "" {
			serialPort = cfg.SerialPort
		}
	}
	if serialPort == "" {
		return fmt.Errorf("rtkmulti: no rover serial port given (--serial-port or config serial_port)")
	}

	engine := gnssgo.NewSimpleEngine()
	controller := mhc.New(opt, engine, logger)
	fxhr.Init(controller, nil)

	nav := &gnssgo.Nav{}
	estimator := ifb.New(logger)
	server := rtksvr.NewServer(opt, controller, fxhr.Strategy{}, estimator, nav, logger)

	rover, err := ingest.OpenSerial(serialPort, c.Int("baud"), unimplementedDecoder)
	if err != nil {
		return err
	}
	defer rover.Close()
	server.SetRover(rover)

	if basePort := c.String("base-serial-port"); basePort != "" {
		base, err := ingest.OpenSerial(basePort, c.Int("baud"), unimplementedDecoder)
		if err != nil {
			return err
		}
		defer base.Close()
		server.SetBaseSource(base)
	}

	server.OnSolution = func(rtk *gnssgo.Rtk) {
		logger.WithFields(logrus.Fields{
			"stat":  rtk.RtkSol.Stat,
			"ratio": rtk.RtkSol.Ratio,
		}).Debug("rtkmulti: epoch solution")
	}

	if err := server.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("rtkmulti: shutting down")
	return server.Stop()
}

// unimplementedDecoder stands in for a real RTCM3 observation-message decoder.
func unimplementedDecoder(messageType int, payload []byte) (gnssgo.Obs, error) {
	return gnssgo.Obs{}, fmt.Errorf("rtkmulti: no decoder registered for RTCM3 message type %d (%d bytes); "+
		"supply a gnssgo.ObservationSource backed by a real RTCM3 decoder", messageType, len(payload))
}
