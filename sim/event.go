package sim

import (
	"time"

	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (time since simulation start) and an Execute
// method that is invoked exactly once, when the run loop reaches that time.
type Event interface {
	Timestamp() time.Duration
	Execute(k Kernel) error
}

// Kernel is the slice of the engine an event may use while it executes.
// Events receive it as an argument and never keep it.
type Kernel interface {
	// Now returns the current simulation time.
	Now() time.Duration
	// Schedule books a follow-up event and returns its queue key.
	Schedule(ev Event) Key
	// Log appends an entry to the run's event log.
	Log(e trace.Entry)
	// Print narrates a message stamped with the given simulation time.
	Print(at time.Duration, msg string)
}
