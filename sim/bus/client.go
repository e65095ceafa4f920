package bus

import (
	"time"

	"github.com/dispatch-sim/dispatch-sim/sim/model"
)

// The helpers below wrap Send for callers that want plain return values.
// Together they satisfy the narrow capability interfaces the dispatch events
// declare.

func (b *Bus) Order(id model.OrderID) (*model.Order, error) {
	req := &FetchOrder{ID: id}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) Carrier(id model.CarrierID) (*model.Carrier, error) {
	req := &FetchCarrier{ID: id}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) EarliestWaitingCarrier() (*model.Carrier, error) {
	req := &EarliestWaitingCarrier{}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) PreparedOrder() (*model.Order, error) {
	req := &PreparedOrder{}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) Strategy() (model.Strategy, error) {
	req := &StrategyFlag{}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) DeliveredCount() (int, error) {
	req := &DeliveredCount{}
	err := b.Send(req)
	return req.Result, err
}

func (b *Bus) IncrementDelivered() error {
	return b.Send(&IncrementDelivered{})
}

func (b *Bus) BookCarrierArrival(id model.OrderID, at time.Duration) error {
	return b.Send(&BookCarrierArrival{OrderID: id, At: at})
}

func (b *Bus) BookOrderPrepared(id model.OrderID, at time.Duration) error {
	return b.Send(&BookOrderPrepared{OrderID: id, At: at})
}

func (b *Bus) BookNextOrder(at time.Duration) error {
	return b.Send(&BookNextOrder{At: at})
}
