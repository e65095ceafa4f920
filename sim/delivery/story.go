package delivery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dispatch-sim/dispatch-sim/sim"
	"github.com/dispatch-sim/dispatch-sim/sim/bus"
	"github.com/dispatch-sim/dispatch-sim/sim/model"
	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// StoryConfig groups the dispatch settings of a Story.
type StoryConfig struct {
	Strategy        model.Strategy
	OrderInterval   IntervalSampler // gap between consecutive order receipts
	CarrierInterval IntervalSampler // travel time of a dispatched carrier
}

// Story owns the orders and carriers of one run and answers the bus
// requests the dispatch events send. It implements bus.Driver.
//
// Orders and carriers live in arenas indexed by id-1; events only ever hold
// ids.
type Story struct {
	sim *sim.Simulator
	bus *bus.Bus

	strategy        model.Strategy
	orderInterval   IntervalSampler
	carrierInterval IntervalSampler

	orders    []*model.Order
	carriers  []*model.Carrier
	cursor    int // next order to receive
	delivered int
}

// NewStory creates a driver over orders, which must carry ids 1..n in order.
func NewStory(s *sim.Simulator, orders []*model.Order, cfg StoryConfig) (*Story, error) {
	if s == nil {
		return nil, errors.New("story needs a simulator")
	}
	if !model.IsValidStrategy(string(cfg.Strategy)) {
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	if cfg.OrderInterval == nil || cfg.CarrierInterval == nil {
		return nil, errors.New("story needs both an order and a carrier interval sampler")
	}
	for i, o := range orders {
		if o.ID != model.OrderID(i+1) {
			return nil, fmt.Errorf("order at position %d has id %d, want %d", i, o.ID, i+1)
		}
	}
	st := &Story{
		sim:             s,
		strategy:        cfg.Strategy,
		orderInterval:   cfg.OrderInterval,
		carrierInterval: cfg.CarrierInterval,
		orders:          orders,
	}
	st.bus = bus.New(st)
	return st, nil
}

// Bus returns the message bus the story's events talk through.
func (st *Story) Bus() *bus.Bus { return st.bus }

// Orders returns all orders, received or not.
func (st *Story) Orders() []*model.Order {
	return append([]*model.Order(nil), st.orders...)
}

// Carriers returns every carrier dispatched so far.
func (st *Story) Carriers() []*model.Carrier {
	return append([]*model.Carrier(nil), st.carriers...)
}

// Run books the first order, drives the simulation until nothing is left to
// happen and reports the result.
func (st *Story) Run(ctx context.Context) (*Report, error) {
	logrus.Infof("running %d orders with the %s strategy at %vx", len(st.orders), st.strategy.Label(), st.sim.AccelerationRate())
	if err := st.bus.BookNextOrder(0); err != nil {
		return nil, err
	}
	if err := st.sim.Run(ctx); err != nil {
		return nil, err
	}
	logrus.Infof("simulation finished at %v after %d events", st.sim.Now(), st.sim.Processed)
	return NewReport(st), nil
}

// === bus.Driver ===

func (st *Story) NextOrder() *model.Order {
	if st.cursor >= len(st.orders) {
		return nil
	}
	o := st.orders[st.cursor]
	st.cursor++
	return o
}

func (st *Story) Order(id model.OrderID) (*model.Order, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(st.orders) {
		return nil, false
	}
	return st.orders[i], true
}

func (st *Story) Carrier(id model.CarrierID) (*model.Carrier, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(st.carriers) {
		return nil, false
	}
	return st.carriers[i], true
}

// EarliestWaitingCarrier returns the waiting carrier that arrived first,
// lowest id on ties.
func (st *Story) EarliestWaitingCarrier() *model.Carrier {
	var best *model.Carrier
	for _, c := range st.carriers {
		if c.Waiting() && (best == nil || c.ArrivedAt() < best.ArrivedAt()) {
			best = c
		}
	}
	return best
}

// PreparedOrder returns the prepared, undelivered order with the lowest id.
func (st *Story) PreparedOrder() *model.Order {
	for _, o := range st.orders {
		if o.Prepared() && !o.Delivered() {
			return o
		}
	}
	return nil
}

func (st *Story) Strategy() model.Strategy { return st.strategy }

func (st *Story) DeliveredCount() int { return st.delivered }

func (st *Story) IncrementDelivered() { st.delivered++ }

// BookCarrierArrival dispatches a new carrier for order id and schedules its
// arrival one carrier interval after at. Under the Matched strategy the
// carrier is bound to the order.
func (st *Story) BookCarrierArrival(id model.OrderID, at time.Duration) error {
	o, ok := st.Order(id)
	if !ok {
		return fmt.Errorf("order %d: %w", id, bus.ErrNotFound)
	}
	c := model.NewCarrier(model.CarrierID(len(st.carriers) + 1))
	st.carriers = append(st.carriers, c)

	if st.strategy == model.StrategyMatched {
		o.AssignCarrier(c.ID)
		st.sim.Log(trace.NewEntry(trace.CodeCarrierDispatched, at,
			trace.Int(trace.KeyCarrierID, int(c.ID)),
			trace.Bool(trace.KeyHasMatchedOrder, true),
			trace.Int(trace.KeyMatchedOrderID, int(o.ID))))
		st.sim.Print(at, fmt.Sprintf("order %d '%s' received, carrier %d assigned and dispatched", o.ID, o.Name, c.ID))
	} else {
		st.sim.Log(trace.NewEntry(trace.CodeCarrierDispatched, at,
			trace.Int(trace.KeyCarrierID, int(c.ID)),
			trace.Bool(trace.KeyHasMatchedOrder, false)))
		st.sim.Print(at, fmt.Sprintf("order %d '%s' received, carrier %d dispatched", o.ID, o.Name, c.ID))
	}

	st.sim.Schedule(NewCarrierArrivedEvent(after(at, st.carrierInterval.Next()), o.ID, c.ID, st.bus))
	return nil
}

// BookOrderPrepared schedules order id to finish one prep duration after at.
func (st *Story) BookOrderPrepared(id model.OrderID, at time.Duration) error {
	o, ok := st.Order(id)
	if !ok {
		return fmt.Errorf("order %d: %w", id, bus.ErrNotFound)
	}
	st.sim.Schedule(NewOrderPreparedEvent(after(at, o.PrepDuration), o.ID, st.bus))
	return nil
}

// BookNextOrder schedules the receipt of the next order one order interval
// after at. It does nothing once every order has been received.
func (st *Story) BookNextOrder(at time.Duration) error {
	o := st.NextOrder()
	if o == nil {
		return nil
	}
	st.sim.Schedule(NewOrderReceivedEvent(after(at, st.orderInterval.Next()), o.ID, st.bus))
	return nil
}

// after returns at+d, saturating instead of wrapping into the past.
func after(at, d time.Duration) time.Duration {
	if d > 0 && at > math.MaxInt64-d {
		return math.MaxInt64
	}
	return at + d
}
