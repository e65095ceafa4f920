package delivery

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dispatch-sim/dispatch-sim/sim/model"
	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// Report aggregates the outcome of a finished story.
type Report struct {
	Strategy         model.Strategy
	Orders           int
	Carriers         int
	Delivered        int
	AvgFoodWaitMs    float64 // mean over all orders
	AvgCarrierWaitMs float64 // mean over all carriers
	SimulatedTime    time.Duration
	Events           int
}

// NewReport computes the report for st in its current state.
func NewReport(st *Story) *Report {
	food := make([]float64, len(st.orders))
	for i, o := range st.orders {
		food[i] = millis(o.WaitTime())
	}
	carrier := make([]float64, len(st.carriers))
	for i, c := range st.carriers {
		carrier[i] = millis(c.WaitTime())
	}
	return &Report{
		Strategy:         st.strategy,
		Orders:           len(st.orders),
		Carriers:         len(st.carriers),
		Delivered:        st.delivered,
		AvgFoodWaitMs:    mean(food),
		AvgCarrierWaitMs: mean(carrier),
		SimulatedTime:    st.sim.Now(),
		Events:           st.sim.Processed,
	}
}

// Print writes the statistics block.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Dispatch Statistics ===")
	fmt.Fprintf(w, "Strategy             : %s\n", r.Strategy.Label())
	fmt.Fprintf(w, "Orders               : %d\n", r.Orders)
	fmt.Fprintf(w, "Carriers             : %d\n", r.Carriers)
	fmt.Fprintf(w, "Delivered            : %d\n", r.Delivered)
	fmt.Fprintf(w, "Events Executed      : %d\n", r.Events)
	fmt.Fprintf(w, "Simulated Time       : %v\n", r.SimulatedTime.Round(time.Millisecond))
	fmt.Fprintf(w, "in %s strategy, food average wait %.3f, carrier average wait %.3f milliseconds\n",
		r.Strategy.Label(), r.AvgFoodWaitMs, r.AvgCarrierWaitMs)
}

// Replay writes the event log framed the way the story prints it after a run.
func Replay(w io.Writer, l *trace.EventLog) error {
	fmt.Fprintln(w, "Event Log Replay:")
	fmt.Fprintln(w, "-------------------------- Event Logs -------------------------------")
	if _, err := l.WriteTo(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "---------------------------------------------------------------------")
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
