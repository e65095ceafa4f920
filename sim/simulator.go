// sim/simulator.go
package sim

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// Simulator is the core object that holds simulation time, the future event
// list, the event log, and the run loop.
//
// Simulation time is derived from elapsed wall time scaled by the
// acceleration rate, so an observer sees events at their real relative
// cadence. Event order is still decided by the queue alone.
type Simulator struct {
	// Clock is the current simulation time. It never decreases.
	Clock time.Duration
	// EventQueue has all pending events, ordered by Key
	EventQueue EventQueue
	// Trace is the append-only log of everything that happened
	Trace *trace.EventLog
	// Processed counts executed events across all runs
	Processed int

	seq          uint64
	acceleration float64
	wall         Clock
	printer      Printer
}

// NewSimulator creates a Simulator with an empty future event list.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		EventQueue:   make(EventQueue, 0),
		Trace:        trace.NewEventLog(),
		acceleration: cfg.AccelerationRate,
		wall:         cfg.Clock,
		printer:      cfg.Printer,
	}, nil
}

// AccelerationRate returns the configured playback speed.
func (sim *Simulator) AccelerationRate() float64 {
	return sim.acceleration
}

// Now returns the current simulation time.
func (sim *Simulator) Now() time.Duration {
	return sim.Clock
}

// Schedule pushes an event into the future event list and returns its key.
// Times in the past are accepted; such events run on the next drain pass.
func (sim *Simulator) Schedule(ev Event) Key {
	sim.seq++
	key := Key{Time: ev.Timestamp(), Seq: sim.seq}
	heap.Push(&sim.EventQueue, queued{key: key, ev: ev})
	logrus.Tracef("[%v] Scheduled %T at %v", sim.Clock, ev, key)
	return key
}

// Pending returns the number of events still in the future event list.
func (sim *Simulator) Pending() int {
	return sim.EventQueue.Len()
}

// Log appends an entry to the event log.
func (sim *Simulator) Log(e trace.Entry) {
	sim.Trace.Append(e)
}

// Print sends a narration message to the configured printer.
func (sim *Simulator) Print(at time.Duration, msg string) {
	sim.printer(at, msg)
}

// Run processes events until the future event list is empty.
//
// Each pass sets the simulation time from the wall clock and then executes,
// in key order, every event whose time is strictly before it. Between passes
// the loop parks on the clock until the next event is due. Run resumes from
// the current simulation time if it is called again after more scheduling.
func (sim *Simulator) Run(ctx context.Context) error {
	if sim.EventQueue.Len() == 0 {
		return nil
	}
	startOffset := sim.Clock
	wallStart := sim.wall.Now()
	logrus.Debugf("[%v] Simulation started with %d pending events, acceleration %v", sim.Clock, sim.Pending(), sim.acceleration)

	for {
		elapsed := sim.wall.Now().Sub(wallStart)
		if now := sim.scaled(startOffset, elapsed); now > sim.Clock {
			sim.Clock = now
		}

		for sim.EventQueue.Len() > 0 && sim.due(sim.EventQueue.peek().key.Time) {
			next := heap.Pop(&sim.EventQueue).(queued)
			logrus.Debugf("[%v] Executing %T", next.key.Time, next.ev)
			if err := next.ev.Execute(sim); err != nil {
				return fmt.Errorf("executing %T at %v: %w", next.ev, next.key.Time, err)
			}
			sim.Processed++
		}

		if sim.EventQueue.Len() == 0 {
			logrus.Debugf("[%v] Simulation ended after %d events", sim.Clock, sim.Processed)
			return nil
		}

		if err := sim.wall.Sleep(ctx, sim.untilNext()); err != nil {
			return err
		}
	}
}

// maxTime is the saturation point of simulation time.
const maxTime = time.Duration(math.MaxInt64)

// scaled maps elapsed wall time onto simulation time, saturating at maxTime.
func (sim *Simulator) scaled(startOffset, elapsed time.Duration) time.Duration {
	now := float64(startOffset) + float64(elapsed)*sim.acceleration
	if now >= float64(maxTime) {
		return maxTime
	}
	return time.Duration(now)
}

// due reports whether an event at t runs in the current pass. A saturated
// clock releases everything that is left.
func (sim *Simulator) due(t time.Duration) bool {
	return t < sim.Clock || sim.Clock == maxTime
}

// untilNext returns the wall time until the head of the queue is due,
// rounded up and never less than one nanosecond.
func (sim *Simulator) untilNext() time.Duration {
	gap := sim.EventQueue.peek().key.Time - sim.Clock
	wait := time.Duration(math.Ceil(float64(gap) / sim.acceleration))
	if wait < 1 {
		wait = 1
	}
	return wait
}
