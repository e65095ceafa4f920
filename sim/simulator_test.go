package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// stubEvent records its execution and optionally books follow-ups.
type stubEvent struct {
	name     string
	at       time.Duration
	ran      *[]string
	seenAt   *[]time.Duration
	children []*stubEvent
	err      error
}

func (e *stubEvent) Timestamp() time.Duration { return e.at }

func (e *stubEvent) Execute(k Kernel) error {
	if e.ran != nil {
		*e.ran = append(*e.ran, e.name)
	}
	if e.seenAt != nil {
		*e.seenAt = append(*e.seenAt, k.Now())
	}
	k.Log(trace.NewEntry(trace.Code(e.name), e.at))
	for _, c := range e.children {
		k.Schedule(c)
	}
	return e.err
}

func newTestSimulator(t *testing.T, rate float64) (*Simulator, *VirtualClock) {
	t.Helper()
	clock := NewVirtualClock()
	s, err := NewSimulator(Config{AccelerationRate: rate, Clock: clock, Printer: func(time.Duration, string) {}})
	require.NoError(t, err)
	return s, clock
}

func TestSimulator_Run_EmptyQueue_ReturnsImmediately(t *testing.T) {
	s, clock := newTestSimulator(t, 1)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, time.Duration(0), clock.Slept())
	assert.Equal(t, 0, s.Processed)
	assert.Equal(t, 0, s.Trace.Len())
}

func TestSimulator_Run_ExecutesInTimeOrder(t *testing.T) {
	// GIVEN events scheduled out of order with a tie at 2s
	s, _ := newTestSimulator(t, 1)
	var ran []string
	s.Schedule(&stubEvent{name: "late", at: 5 * time.Second, ran: &ran})
	s.Schedule(&stubEvent{name: "tie-first", at: 2 * time.Second, ran: &ran})
	s.Schedule(&stubEvent{name: "early", at: time.Second, ran: &ran})
	s.Schedule(&stubEvent{name: "tie-second", at: 2 * time.Second, ran: &ran})

	// WHEN the simulation runs
	require.NoError(t, s.Run(context.Background()))

	// THEN events run by time, ties in booking order, and the queue is drained
	assert.Equal(t, []string{"early", "tie-first", "tie-second", "late"}, ran)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 4, s.Processed)
	assert.Equal(t, 4, s.Trace.Len())
}

func TestSimulator_Schedule_AssignsIncreasingSequence(t *testing.T) {
	s, _ := newTestSimulator(t, 1)
	k1 := s.Schedule(&stubEvent{at: time.Second})
	k2 := s.Schedule(&stubEvent{at: time.Second})

	assert.True(t, k1.Less(k2))
	assert.Equal(t, k1.Time, k2.Time)
	assert.Equal(t, 2, s.Pending())
}

func TestSimulator_Run_EventRunsStrictlyAfterItsTime(t *testing.T) {
	// GIVEN an event at t=0
	s, _ := newTestSimulator(t, 1)
	var seen []time.Duration
	s.Schedule(&stubEvent{name: "zero", at: 0, seenAt: &seen})

	// WHEN the simulation runs
	require.NoError(t, s.Run(context.Background()))

	// THEN it executes once the clock has moved past zero
	require.Len(t, seen, 1)
	assert.Greater(t, seen[0], time.Duration(0))
}

func TestSimulator_Run_ChildEventsAreExecuted(t *testing.T) {
	// GIVEN a parent that books a future child and a past-due child
	s, _ := newTestSimulator(t, 1)
	var ran []string
	s.Schedule(&stubEvent{name: "parent", at: time.Second, ran: &ran, children: []*stubEvent{
		{name: "future", at: 3 * time.Second, ran: &ran},
		{name: "past", at: 0, ran: &ran},
	}})

	// WHEN the simulation runs
	require.NoError(t, s.Run(context.Background()))

	// THEN the past-due child runs right away and the future one later
	assert.Equal(t, []string{"parent", "past", "future"}, ran)
}

func TestSimulator_Run_ClockNeverDecreases(t *testing.T) {
	s, _ := newTestSimulator(t, 3)
	var seen []time.Duration
	for _, at := range []time.Duration{4 * time.Second, time.Second, 7 * time.Second, time.Second} {
		s.Schedule(&stubEvent{at: at, seenAt: &seen})
	}

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, seen, 4)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestSimulator_Run_AccelerationScalesWallTime(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"real time", 1},
		{"ten times faster", 10},
		{"half speed", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN one event 10s into the run
			s, clock := newTestSimulator(t, tt.rate)
			s.Schedule(&stubEvent{at: 10 * time.Second})

			// WHEN the simulation runs
			require.NoError(t, s.Run(context.Background()))

			// THEN the wall time spent is 10s divided by the rate
			want := float64(10*time.Second) / tt.rate
			assert.InDelta(t, want, float64(clock.Slept()), float64(10*time.Microsecond))
		})
	}
}

func TestSimulator_Run_HugeAccelerationSaturatesClock(t *testing.T) {
	// GIVEN a rate so large that one nanosecond of wall time overflows a Duration
	s, _ := newTestSimulator(t, 1e19)
	var ran []string
	child := &stubEvent{name: "child", at: 2 * time.Second, ran: &ran}
	s.Schedule(&stubEvent{name: "parent", at: time.Second, ran: &ran, children: []*stubEvent{child}})

	// WHEN the simulation runs under a deadline
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	// THEN the clock saturates instead of wrapping and every event runs
	assert.Equal(t, []string{"parent", "child"}, ran)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, maxTime, s.Now())
}

func TestSimulator_Scaled_SaturatesAtMaxTime(t *testing.T) {
	s, _ := newTestSimulator(t, 2)

	assert.Equal(t, 3*time.Second, s.scaled(time.Second, time.Second))
	assert.Equal(t, maxTime, s.scaled(0, maxTime/2+1))
	assert.Equal(t, maxTime, s.scaled(maxTime-1, time.Second))
}

func TestSimulator_Run_ExecuteError_StopsRun(t *testing.T) {
	s, _ := newTestSimulator(t, 1)
	boom := errors.New("boom")
	var ran []string
	s.Schedule(&stubEvent{name: "fails", at: time.Second, ran: &ran, err: boom})
	s.Schedule(&stubEvent{name: "after", at: 2 * time.Second, ran: &ran})

	err := s.Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "executing *sim.stubEvent at 1s")
	assert.Equal(t, []string{"fails"}, ran)
	assert.Equal(t, 1, s.Pending())
}

func TestSimulator_Run_CanceledContext(t *testing.T) {
	s, _ := newTestSimulator(t, 1)
	s.Schedule(&stubEvent{at: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Pending())
}

func TestSimulator_Run_ResumesFromCurrentTime(t *testing.T) {
	// GIVEN a simulator that already ran to about 2s
	s, _ := newTestSimulator(t, 1)
	s.Schedule(&stubEvent{at: 2 * time.Second})
	require.NoError(t, s.Run(context.Background()))
	reached := s.Now()

	// WHEN a later event is booked and the simulator runs again
	var seen []time.Duration
	s.Schedule(&stubEvent{at: 5 * time.Second, seenAt: &seen})
	require.NoError(t, s.Run(context.Background()))

	// THEN the clock continues from where it stopped
	require.Len(t, seen, 1)
	assert.GreaterOrEqual(t, seen[0], reached)
	assert.Greater(t, seen[0], 5*time.Second)
}

func TestSimulator_Print_UsesConfiguredPrinter(t *testing.T) {
	var got []string
	s, err := NewSimulator(Config{Clock: NewVirtualClock(), Printer: func(at time.Duration, msg string) {
		got = append(got, at.String()+" "+msg)
	}})
	require.NoError(t, err)

	s.Print(3*time.Second, "hello")

	assert.Equal(t, []string{"3s hello"}, got)
}
