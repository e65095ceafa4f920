// Package sim provides the discrete-event simulation kernel for dispatch-sim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: the Event interface and the Kernel capability handed to Execute
//   - queue.go: the future event list, a heap ordered by (time, sequence)
//   - simulator.go: the wall-clock-paced run loop
//
// # Architecture
//
// The sim package knows nothing about orders or carriers; the domain lives in
// sub-packages:
//   - sim/model/: Order and Carrier entities and the order file loader
//   - sim/bus/: typed request/response contract between events and the driver
//   - sim/delivery/: the three dispatch events and the Story driver
//   - sim/trace/: the append-only event log, summaries and invariant checks
//   - sim/store/: SQLite export of event logs
//
// # Time
//
// Simulation time is a time.Duration since the start of the run. The run loop
// derives it from an injected Clock scaled by the acceleration rate. WallClock
// paces playback against real time; VirtualClock makes runs instantaneous and
// is what tests use. Both produce the same event order and the same log.
package sim
