package mhc

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rtkmulti/rtkmulti/pkg/gnssgo"
	"github.com/rtkmulti/rtkmulti/pkg/hyp"
)

// MaxRtkHypotheses is the fixed slot capacity of a Controller.
const MaxRtkHypotheses = 5

// Sentinel ratio codes consumed by downstream solution formatting. Both are
// impossible as genuine AR validation ratios (see DESIGN.md).
const (
	AlterFixCode = -1.0
	LargeResCode = -2.0
	// CodeShowDuration is how many epochs a raised sentinel counter persists
	// before decaying back to zero.
	CodeShowDuration = 10
)

// Controller owns a fixed set of hypothesis slots, the processing-options
// snapshot they share, and the published output RTK state. Only its public
// operations mutate the hypotheses.
type Controller struct {
	mu sync.Mutex

	Options gnssgo.PrcOpt
	RtkOut  *gnssgo.Rtk

	hypotheses  [MaxRtkHypotheses]*hyp.Hypothesis
	nHypotheses int
	indexMain   int // -1 when unset

	alterFixOutCounter int
	largeResOutCounter int

	engine gnssgo.Engine
	logger logrus.FieldLogger
}

// New returns a controller with all slots inactive.
func New(options gnssgo.PrcOpt, engine gnssgo.Engine, logger logrus.FieldLogger) *Controller {
	c := &Controller{
		Options:   options,
		RtkOut:    &gnssgo.Rtk{},
		indexMain: -1,
		engine:    engine,
		logger:    logger,
	}
	c.RtkOut.InitRtk(options)
	for i := range c.hypotheses {
		c.hypotheses[i] = hyp.New(logger)
	}
	return c
}

// NHypotheses returns the number of active slots.
func (c *Controller) NHypotheses() int { return c.nHypotheses }

// IndexMain returns the designated main slot index, or -1 if unset.
func (c *Controller) IndexMain() int { return c.indexMain }

// SetIndexMain designates index as the main slot. Exposed for strategies (e.g.
// FXHR pins index_main=1 at construction).
func (c *Controller) SetIndexMain(index int) { c.indexMain = index }

// Hypothesis returns the hypothesis at index, or nil if out of range.
func (c *Controller) Hypothesis(index int) *hyp.Hypothesis {
	if index < 0 || index >= MaxRtkHypotheses {
		return nil
	}
	return c.hypotheses[index]
}

// Add activates the lowest-index inactive slot, seeding it from seed, and
// returns its index, or -1 if every slot is active.
func (c *Controller) Add(seed *gnssgo.Rtk) int {
	for i, h := range c.hypotheses {
		if !h.IsActive() {
			h.Activate(seed, c.Options)
			c.nHypotheses++
			if c.logger != nil {
				c.logger.WithField("index", i).Debug("mhc: hypothesis added")
			}
			return i
		}
	}
	return -1
}

// Exclude deactivates the slot at index. If index was the main slot, the main
// index is reset to -1. Excluding an already-inactive slot is a no-op with no
// side effect.
func (c *Controller) Exclude(index int) {
	h := c.Hypothesis(index)
	if h == nil || !h.IsActive() {
		return
	}
	h.Deactivate()
	c.nHypotheses--
	if c.indexMain == index {
		c.indexMain = -1
	}
	if c.logger != nil {
		c.logger.WithField("index", index).Debug("mhc: hypothesis excluded")
	}
}

// step runs the positioning engine for every active hypothesis concurrently
// and joins before returning; each worker touches only its own hypothesis and
// the read-only navigation data. A panicking step is turned into an excluded hypothesis after
// the join barrier, so one bad hypothesis never takes the controller (or the
// server loop) down with it, and exclusion never races the other workers.
func (c *Controller) step(input Input) {
	var wg sync.WaitGroup
	panicked := make(chan int, MaxRtkHypotheses)
	for i := range c.hypotheses {
		h := c.hypotheses[i]
		if !h.IsActive() {
			continue
		}
		wg.Add(1)
		go func(h *hyp.Hypothesis, idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					if c.logger != nil {
						c.logger.WithField("index", idx).WithField("panic", r).Error("mhc: hypothesis step panicked, excluding")
					}
					panicked <- idx
				}
			}()
			h.Step(c.engine, input.Obs, input.Nav)
		}(h, i)
	}
	wg.Wait()
	close(panicked)
	for idx := range panicked {
		c.Exclude(idx)
	}
}

// updateBasePos sets every active hypothesis's base position to the
// controller's current Options.Rb.
func (c *Controller) updateBasePos() {
	for _, h := range c.hypotheses {
		if !h.IsActive() {
			continue
		}
		h.Rtk().Opt.Rb = c.Options.Rb
		h.Rtk().Rb[0], h.Rtk().Rb[1], h.Rtk().Rb[2] = c.Options.Rb[0], c.Options.Rb[1], c.Options.Rb[2]
	}
}

// RaiseAlterFixCounter marks that the next CodeShowDuration calls to
// applyRatioOverride should overwrite rtk_out.sol.ratio with AlterFixCode.
func (c *Controller) RaiseAlterFixCounter() { c.alterFixOutCounter = CodeShowDuration }

// RaiseLargeResCounter marks that the next CodeShowDuration calls to
// applyRatioOverride should overwrite rtk_out.sol.ratio with LargeResCode.
func (c *Controller) RaiseLargeResCounter() { c.largeResOutCounter = CodeShowDuration }

// applyRatioOverride overwrites the published ratio with a sentinel code while
// the matching counter is positive, decrementing it each epoch.
func (c *Controller) applyRatioOverride() {
	if c.alterFixOutCounter > 0 {
		c.RtkOut.RtkSol.Ratio = AlterFixCode
		c.alterFixOutCounter--
	}
	if c.largeResOutCounter > 0 {
		c.RtkOut.RtkSol.Ratio = LargeResCode
		c.largeResOutCounter--
	}
}

// Process runs one full epoch: update-base-pos, strategy.split, parallel step,
// strategy.qualify, strategy.merge, ratio overrides. The order is
// load-bearing: qualify must see every hypothesis's just-appended stats, and
// merge must see qualify's exclusions.
func (c *Controller) Process(strategy Strategy, input Input) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updateBasePos()
	strategy.Split(c, input)
	c.step(input)
	strategy.Qualify(c)
	strategy.Merge(c)
	c.applyRatioOverride()
}
