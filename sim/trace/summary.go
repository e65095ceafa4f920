package trace

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics from an EventLog.
type Summary struct {
	Counts map[Code]int // entries per code

	Picked          int
	MeanFoodWait    time.Duration
	MaxFoodWait     time.Duration
	P90FoodWait     time.Duration
	MeanCarrierWait time.Duration
	MaxCarrierWait  time.Duration
	P90CarrierWait  time.Duration
}

// Summarize computes aggregate statistics from an EventLog.
// Safe for nil or empty logs (returns zero-value fields).
func Summarize(l *EventLog) *Summary {
	s := &Summary{Counts: make(map[Code]int)}
	if l == nil {
		return s
	}
	var food, carrier []float64
	for _, e := range l.entries {
		s.Counts[e.Code]++
		if e.Code != CodeOrderPicked {
			continue
		}
		if v, ok := e.Dur(KeyFoodWaitTime); ok {
			food = append(food, float64(v))
		}
		if v, ok := e.Dur(KeyCarrierWaitTime); ok {
			carrier = append(carrier, float64(v))
		}
	}
	s.Picked = s.Counts[CodeOrderPicked]
	s.MeanFoodWait, s.P90FoodWait, s.MaxFoodWait = waitStats(food)
	s.MeanCarrierWait, s.P90CarrierWait, s.MaxCarrierWait = waitStats(carrier)
	return s
}

func waitStats(xs []float64) (mean, p90, max time.Duration) {
	if len(xs) == 0 {
		return 0, 0, 0
	}
	sort.Float64s(xs)
	mean = time.Duration(stat.Mean(xs, nil))
	p90 = time.Duration(stat.Quantile(0.9, stat.Empirical, xs, nil))
	max = time.Duration(xs[len(xs)-1])
	return mean, p90, max
}

// Check verifies the causal invariants of a completed run:
//   - one "Carrier Dispatched", one "Carrier Arrived" and one "Order Picked" per "Order Received";
//   - no order or carrier picked twice;
//   - arrivals that found nothing to pick are exactly the pickups where the carrier waited;
//   - preparations that found no carrier are exactly the pickups where the food waited.
//
// All violations are joined into the returned error.
func Check(l *EventLog) error {
	if l == nil {
		return nil
	}
	var errs []error
	received := l.Count(CodeOrderReceived)
	for _, code := range []Code{CodeCarrierDispatched, CodeCarrierArrived, CodeOrderPicked} {
		if n := l.Count(code); n != received {
			errs = append(errs, fmt.Errorf("%d %q entries, want %d (one per received order)", n, code, received))
		}
	}

	pickedOrders := make(map[int]bool)
	pickedCarriers := make(map[int]bool)
	var carrierWaited, foodWaited int
	for _, e := range l.Filter(CodeOrderPicked) {
		if id, ok := e.Int(KeyOrderID); ok {
			if pickedOrders[id] {
				errs = append(errs, fmt.Errorf("order %d picked more than once", id))
			}
			pickedOrders[id] = true
		}
		if id, ok := e.Int(KeyCarrierID); ok {
			if pickedCarriers[id] {
				errs = append(errs, fmt.Errorf("carrier %d picked more than once", id))
			}
			pickedCarriers[id] = true
		}
		if w, _ := e.Dur(KeyCarrierWaitTime); w > 0 {
			carrierWaited++
		}
		if w, _ := e.Dur(KeyFoodWaitTime); w > 0 {
			foodWaited++
		}
	}

	arrivedEmpty := 0
	for _, e := range l.Filter(CodeCarrierArrived) {
		if prepared, ok := e.Bool(KeyPrepared); ok && !prepared {
			arrivedEmpty++
		}
	}
	preparedAlone := 0
	for _, e := range l.Filter(CodeOrderPrepared) {
		if available, ok := carrierAvailable(e); ok && !available {
			preparedAlone++
		}
	}
	// A pickup that happens at the same instant as the first arrival has zero
	// wait even though the first side logged a wait state, so these are bounds.
	if carrierWaited > arrivedEmpty {
		errs = append(errs, fmt.Errorf("%d pickups with carrier wait but only %d carriers arrived to nothing", carrierWaited, arrivedEmpty))
	}
	if foodWaited > preparedAlone {
		errs = append(errs, fmt.Errorf("%d pickups with food wait but only %d orders prepared without a carrier", foodWaited, preparedAlone))
	}
	return errors.Join(errs...)
}

func carrierAvailable(e Entry) (bool, bool) {
	if v, ok := e.Bool(KeyMatchedCarrierAvailable); ok {
		return v, true
	}
	return e.Bool(KeyCarrierAvailable)
}
