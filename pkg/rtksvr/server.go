package rtksvr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rtkmulti/rtkmulti/pkg/boq"
	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
	"github.com/rtkmulti/rtkmulti/pkg/ifb"
	"github.com/rtkmulti/rtkmulti/pkg/mhc"
)

// Server is the RTK pipeline's driver loop. One mutex guards every pipeline
// turn; the loop runs in a background goroutine cancelled via context.
type Server struct {
	rover      gnssgo.ObservationSource
	baseSource gnssgo.ObservationSource

	boq        *boq.Queue
	controller *mhc.Controller
	strategy   mhc.Strategy
	estimator  *ifb.Estimator
	nav        *gnssgo.Nav
	opt        gnssgo.PrcOpt

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	mutex   sync.Mutex
	logger  logrus.FieldLogger

	// OnSolution, if set, is invoked after each epoch's pipeline turn with the
	// committed output RTK state. Solution formatting stays with the caller.
	OnSolution func(*gnssgo.Rtk)
}

// NewServer constructs a server wired to controller/strategy/estimator, with a
// pre-allocated base-observation queue.
func NewServer(opt gnssgo.PrcOpt, controller *mhc.Controller, strategy mhc.Strategy, estimator *ifb.Estimator, nav *gnssgo.Nav, logger logrus.FieldLogger) *Server {
	return &Server{
		boq:        boq.New(logger),
		controller: controller,
		strategy:   strategy,
		estimator:  estimator,
		nav:        nav,
		opt:        opt,
		logger:     logger,
	}
}

// SetRover sets the rover observation source.
func (s *Server) SetRover(src gnssgo.ObservationSource) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rover = src
}

// SetBaseSource sets the base-station observation source.
func (s *Server) SetBaseSource(src gnssgo.ObservationSource) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.baseSource = src
}

// Start begins the pipeline loop in a background goroutine.
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return fmt.Errorf("rtksvr: already running")
	}
	if s.rover == nil {
		return fmt.Errorf("rtksvr: no rover observation source set")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.run()
	s.running = true
	return nil
}

// Stop cancels the pipeline loop.
func (s *Server) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
	return nil
}

func (s *Server) run() {
	if s.logger != nil {
		s.logger.Info("rtksvr: pipeline started")
	}
	for {
		select {
		case <-s.ctx.Done():
			if s.logger != nil {
				s.logger.Info("rtksvr: pipeline stopped")
			}
			return
		default:
		}

		if err := s.Tick(); err != nil {
			if s.logger != nil {
				s.logger.WithError(err).Warn("rtksvr: epoch skipped")
			}
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

// Tick runs exactly one epoch of the pipeline: ingest base observations, pull
// a rover bundle, project base observations, advance the controller, and
// update the IFB estimate. Exported for deterministic single-step use in
// tests and offline replay.
func (s *Server) Tick() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.baseSource != nil {
		if bundle, err := s.baseSource.Next(); err == nil {
			s.boq.Add([]gnssgo.Obs{bundle})
		}
	}

	rover, err := s.rover.Next()
	if err != nil {
		return fmt.Errorf("rtksvr: rover read: %w", err)
	}

	var baseProjection gnssgo.Obs
	maxage := 0.0
	if s.opt.BaseMultiEp {
		maxage = s.opt.MaxTmDiff
	}
	s.boq.Project(&baseProjection, s.opt.NavSys, rover.Time(), maxage)

	combined := gnssgo.Obs{Data: append(append([]gnssgo.ObsD(nil), rover.Data...), baseProjection.Data...)}

	s.controller.Options.Rb = s.opt.Rb
	s.controller.Process(s.strategy, mhc.Input{Obs: combined.Data, Nav: s.nav})

	if s.estimator != nil {
		s.estimator.Process(s.controller.RtkOut)
	}

	if s.OnSolution != nil {
		s.OnSolution(s.controller.RtkOut)
	}
	return nil
}
