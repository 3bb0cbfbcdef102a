package mhc

import "github.com/rtkmulti/rtkmulti/pkg/gnssgo"

// Input bundles the per-epoch data a Strategy and the controller's step phase
// need: the combined observation records and navigation data.
type Input struct {
	Obs []gnssgo.ObsD
	Nav *gnssgo.Nav
}

// Strategy is the controller's sole extension point: a triple of hooks
// dispatched each epoch by Controller.Process, in Split/Qualify/Merge order.
type Strategy interface {
	// Split may add or remove hypotheses based on the controller's current
	// state and the epoch's input.
	Split(c *Controller, input Input)
	// Qualify recomputes each hypothesis's solution quality and may exclude
	// hypotheses that fail validation.
	Qualify(c *Controller)
	// Merge writes one hypothesis's RTK state into the controller's output.
	Merge(c *Controller)
}
