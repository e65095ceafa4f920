package bus

import (
	"time"

	"github.com/dispatch-sim/dispatch-sim/sim/model"
)

// Request is one message of the closed set the bus understands.
// Queries carry a Result field that the driver fills during Send.
type Request interface {
	// Name is the message code used in logs and round-trip counters.
	Name() string
	request()
}

// NextOrder pops the next unreceived order. Result is nil once the order
// list is exhausted.
type NextOrder struct {
	Result *model.Order
}

// FetchOrder resolves an order by id.
type FetchOrder struct {
	ID     model.OrderID
	Result *model.Order
}

// FetchCarrier resolves a carrier by id.
type FetchCarrier struct {
	ID     model.CarrierID
	Result *model.Carrier
}

// EarliestWaitingCarrier finds the arrived, undelivered carrier with the
// smallest arrival time.
type EarliestWaitingCarrier struct {
	Result *model.Carrier
}

// PreparedOrder finds a prepared, undelivered order.
type PreparedOrder struct {
	Result *model.Order
}

// StrategyFlag reads the dispatch strategy.
type StrategyFlag struct {
	Result model.Strategy
}

// DeliveredCount reads the number of completed deliveries.
type DeliveredCount struct {
	Result int
}

// IncrementDelivered records one completed delivery.
type IncrementDelivered struct{}

// BookCarrierArrival dispatches a carrier for an order and schedules its
// arrival one carrier interval after At.
type BookCarrierArrival struct {
	OrderID model.OrderID
	At      time.Duration
}

// BookOrderPrepared schedules an order's preparation to finish one prep
// duration after At.
type BookOrderPrepared struct {
	OrderID model.OrderID
	At      time.Duration
}

// BookNextOrder schedules the next order one order interval after At.
type BookNextOrder struct {
	At time.Duration
}

func (*NextOrder) Name() string              { return "NextOrder" }
func (*FetchOrder) Name() string             { return "FetchOrder" }
func (*FetchCarrier) Name() string           { return "FetchCarrier" }
func (*EarliestWaitingCarrier) Name() string { return "EarliestWaitingCarrier" }
func (*PreparedOrder) Name() string          { return "PreparedOrder" }
func (*StrategyFlag) Name() string           { return "StrategyFlag" }
func (*DeliveredCount) Name() string         { return "DeliveredCount" }
func (*IncrementDelivered) Name() string     { return "IncrementDelivered" }
func (*BookCarrierArrival) Name() string     { return "BookCarrierArrival" }
func (*BookOrderPrepared) Name() string      { return "BookOrderPrepared" }
func (*BookNextOrder) Name() string          { return "BookNextOrder" }

func (*NextOrder) request()              {}
func (*FetchOrder) request()             {}
func (*FetchCarrier) request()           {}
func (*EarliestWaitingCarrier) request() {}
func (*PreparedOrder) request()          {}
func (*StrategyFlag) request()           {}
func (*DeliveredCount) request()         {}
func (*IncrementDelivered) request()     {}
func (*BookCarrierArrival) request()     {}
func (*BookOrderPrepared) request()      {}
func (*BookNextOrder) request()          {}
