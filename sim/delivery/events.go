package delivery

import (
	"fmt"
	"time"

	"github.com/dispatch-sim/dispatch-sim/sim"
	"github.com/dispatch-sim/dispatch-sim/sim/model"
	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

// Booker schedules the follow-ups of a received order.
type Booker interface {
	BookCarrierArrival(id model.OrderID, at time.Duration) error
	BookOrderPrepared(id model.OrderID, at time.Duration) error
	BookNextOrder(at time.Duration) error
}

// Dispatcher is what the arrival and preparation events need to pair an
// order with a carrier.
type Dispatcher interface {
	Order(id model.OrderID) (*model.Order, error)
	Carrier(id model.CarrierID) (*model.Carrier, error)
	Strategy() (model.Strategy, error)
	PreparedOrder() (*model.Order, error)
	EarliestWaitingCarrier() (*model.Carrier, error)
	IncrementDelivered() error
	DeliveredCount() (int, error)
}

// OrderReceivedEvent is the arrival of an order at the kitchen.
type OrderReceivedEvent struct {
	time    time.Duration
	OrderID model.OrderID
	booker  Booker
}

// NewOrderReceivedEvent creates the receipt of order id at time at.
func NewOrderReceivedEvent(at time.Duration, id model.OrderID, b Booker) *OrderReceivedEvent {
	return &OrderReceivedEvent{time: at, OrderID: id, booker: b}
}

func (e *OrderReceivedEvent) Timestamp() time.Duration { return e.time }

// Execute logs the receipt and books the carrier, the preparation and the
// next order, each counted from the receipt time.
func (e *OrderReceivedEvent) Execute(k sim.Kernel) error {
	k.Log(trace.NewEntry(trace.CodeOrderReceived, e.time, trace.Int(trace.KeyOrderID, int(e.OrderID))))
	if err := e.booker.BookCarrierArrival(e.OrderID, e.time); err != nil {
		return err
	}
	if err := e.booker.BookOrderPrepared(e.OrderID, e.time); err != nil {
		return err
	}
	return e.booker.BookNextOrder(e.time)
}

// CarrierArrivedEvent is a carrier reaching the kitchen. OrderID is the order
// whose receipt dispatched it; FIFO ignores it.
type CarrierArrivedEvent struct {
	time      time.Duration
	OrderID   model.OrderID
	CarrierID model.CarrierID
	caps      Dispatcher
}

// NewCarrierArrivedEvent creates the arrival of carrier cid at time at.
func NewCarrierArrivedEvent(at time.Duration, oid model.OrderID, cid model.CarrierID, d Dispatcher) *CarrierArrivedEvent {
	return &CarrierArrivedEvent{time: at, OrderID: oid, CarrierID: cid, caps: d}
}

func (e *CarrierArrivedEvent) Timestamp() time.Duration { return e.time }

func (e *CarrierArrivedEvent) Execute(k sim.Kernel) error {
	c, err := e.caps.Carrier(e.CarrierID)
	if err != nil {
		return err
	}
	c.MarkArrived(e.time)

	strategy, err := e.caps.Strategy()
	if err != nil {
		return err
	}
	if strategy == model.StrategyFIFO {
		return e.pickAny(k, c)
	}
	return e.pickMatched(k, c)
}

func (e *CarrierArrivedEvent) pickAny(k sim.Kernel, c *model.Carrier) error {
	o, err := e.caps.PreparedOrder()
	if err != nil {
		return err
	}
	if o == nil {
		k.Log(trace.NewEntry(trace.CodeCarrierArrived, e.time,
			trace.Int(trace.KeyCarrierID, int(c.ID)),
			trace.Bool(trace.KeyMatched, false),
			trace.Bool(trace.KeyPrepared, false)))
		k.Print(e.time, fmt.Sprintf("carrier %d arrived but no order is ready, waiting", c.ID))
		return nil
	}

	total, err := deliver(e.caps, o, c, e.time)
	if err != nil {
		return err
	}
	k.Log(trace.NewEntry(trace.CodeCarrierArrived, e.time,
		trace.Int(trace.KeyCarrierID, int(c.ID)),
		trace.Bool(trace.KeyMatched, false),
		trace.Bool(trace.KeyPrepared, true),
		trace.Int(trace.KeyOrderID, int(o.ID))))
	k.Log(pickedEntry(o, c, e.time))
	k.Print(e.time, fmt.Sprintf("carrier %d arrived and picked up order %d '%s', food waited %v, %d orders delivered in total",
		c.ID, o.ID, o.Name, o.WaitTime(), total))
	return nil
}

func (e *CarrierArrivedEvent) pickMatched(k sim.Kernel, c *model.Carrier) error {
	o, err := e.caps.Order(e.OrderID)
	if err != nil {
		return err
	}
	if !o.Prepared() {
		k.Log(trace.NewEntry(trace.CodeCarrierArrived, e.time,
			trace.Int(trace.KeyCarrierID, int(c.ID)),
			trace.Bool(trace.KeyMatched, true),
			trace.Bool(trace.KeyPrepared, false)))
		k.Print(e.time, fmt.Sprintf("carrier %d arrived, matched order %d '%s' not prepared yet, waiting", c.ID, o.ID, o.Name))
		return nil
	}

	total, err := deliver(e.caps, o, c, e.time)
	if err != nil {
		return err
	}
	k.Log(trace.NewEntry(trace.CodeCarrierArrived, e.time,
		trace.Int(trace.KeyCarrierID, int(c.ID)),
		trace.Bool(trace.KeyMatched, true),
		trace.Bool(trace.KeyPrepared, true),
		trace.Int(trace.KeyOrderID, int(o.ID))))
	k.Log(pickedEntry(o, c, e.time))
	k.Print(e.time, fmt.Sprintf("carrier %d arrived and picked up matched order %d '%s', food waited %v, %d orders delivered in total",
		c.ID, o.ID, o.Name, o.WaitTime(), total))
	return nil
}

// OrderPreparedEvent is the kitchen finishing an order.
type OrderPreparedEvent struct {
	time    time.Duration
	OrderID model.OrderID
	caps    Dispatcher
}

// NewOrderPreparedEvent creates the completion of order id at time at.
func NewOrderPreparedEvent(at time.Duration, id model.OrderID, d Dispatcher) *OrderPreparedEvent {
	return &OrderPreparedEvent{time: at, OrderID: id, caps: d}
}

func (e *OrderPreparedEvent) Timestamp() time.Duration { return e.time }

func (e *OrderPreparedEvent) Execute(k sim.Kernel) error {
	o, err := e.caps.Order(e.OrderID)
	if err != nil {
		return err
	}
	o.MarkPrepared(e.time)

	strategy, err := e.caps.Strategy()
	if err != nil {
		return err
	}
	if strategy == model.StrategyFIFO {
		return e.pickEarliest(k, o)
	}
	return e.pickMatched(k, o)
}

func (e *OrderPreparedEvent) pickEarliest(k sim.Kernel, o *model.Order) error {
	c, err := e.caps.EarliestWaitingCarrier()
	if err != nil {
		return err
	}
	if c == nil {
		k.Log(trace.NewEntry(trace.CodeOrderPrepared, e.time,
			trace.Int(trace.KeyOrderID, int(o.ID)),
			trace.Bool(trace.KeyHasMatchedCarrier, false),
			trace.Bool(trace.KeyCarrierAvailable, false)))
		k.Print(e.time, fmt.Sprintf("order %d '%s' prepared but no carrier available", o.ID, o.Name))
		return nil
	}

	total, err := deliver(e.caps, o, c, e.time)
	if err != nil {
		return err
	}
	k.Log(trace.NewEntry(trace.CodeOrderPrepared, e.time,
		trace.Int(trace.KeyOrderID, int(o.ID)),
		trace.Bool(trace.KeyHasMatchedCarrier, false),
		trace.Bool(trace.KeyCarrierAvailable, true),
		trace.Int(trace.KeyCarrierID, int(c.ID))))
	k.Log(pickedEntry(o, c, e.time))
	k.Print(e.time, fmt.Sprintf("order %d '%s' prepared and picked up by earliest carrier %d, carrier waited %v, %d orders delivered in total",
		o.ID, o.Name, c.ID, c.WaitTime(), total))
	return nil
}

func (e *OrderPreparedEvent) pickMatched(k sim.Kernel, o *model.Order) error {
	cid, ok := o.MatchedCarrier()
	if !ok {
		return fmt.Errorf("order %d has no matched carrier", o.ID)
	}
	c, err := e.caps.Carrier(cid)
	if err != nil {
		return err
	}
	if !c.Waiting() {
		k.Log(trace.NewEntry(trace.CodeOrderPrepared, e.time,
			trace.Int(trace.KeyOrderID, int(o.ID)),
			trace.Bool(trace.KeyHasMatchedCarrier, true),
			trace.Int(trace.KeyMatchedCarrierID, int(cid)),
			trace.Bool(trace.KeyMatchedCarrierAvailable, false)))
		k.Print(e.time, fmt.Sprintf("order %d '%s' prepared, carrier %d not arrived yet", o.ID, o.Name, cid))
		return nil
	}

	total, err := deliver(e.caps, o, c, e.time)
	if err != nil {
		return err
	}
	k.Log(trace.NewEntry(trace.CodeOrderPrepared, e.time,
		trace.Int(trace.KeyOrderID, int(o.ID)),
		trace.Bool(trace.KeyHasMatchedCarrier, true),
		trace.Int(trace.KeyMatchedCarrierID, int(cid)),
		trace.Bool(trace.KeyMatchedCarrierAvailable, true)))
	k.Log(pickedEntry(o, c, e.time))
	k.Print(e.time, fmt.Sprintf("order %d '%s' prepared and picked up by carrier %d, carrier waited %v, %d orders delivered in total",
		o.ID, o.Name, c.ID, c.WaitTime(), total))
	return nil
}

// deliver retires o and c at now and returns the new delivered total.
func deliver(d Dispatcher, o *model.Order, c *model.Carrier, now time.Duration) (int, error) {
	o.MarkDelivered(now)
	c.MarkDelivered(now)
	if err := d.IncrementDelivered(); err != nil {
		return 0, err
	}
	return d.DeliveredCount()
}

func pickedEntry(o *model.Order, c *model.Carrier, now time.Duration) trace.Entry {
	return trace.NewEntry(trace.CodeOrderPicked, now,
		trace.Int(trace.KeyOrderID, int(o.ID)),
		trace.Int(trace.KeyCarrierID, int(c.ID)),
		trace.Dur(trace.KeyFoodWaitTime, o.WaitTime()),
		trace.Dur(trace.KeyCarrierWaitTime, c.WaitTime()))
}
