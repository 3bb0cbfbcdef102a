/*
Package rtksvr drives the per-epoch RTK pipeline: pull a rover observation
bundle, project the freshest base observations from the base-observation
queue, advance the multi-hypothesis controller, and update the GLONASS IFB
estimate — once per epoch, under a single server-wide mutex.

# Thread Safety

Start/Stop/SetRover/SetBaseSource are safe for concurrent use. The run loop
itself executes single-threaded except for the controller's internal
per-hypothesis fan-out (see pkg/mhc).
*/
package rtksvr
