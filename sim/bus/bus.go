// Package bus carries typed requests between dispatch events and the driver
// that owns the orders and carriers.
//
// Events never hold references to entities. They send a request naming an id
// and get the entity back for the duration of one Execute call.
package bus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dispatch-sim/dispatch-sim/sim/model"
)

var (
	// ErrNotFound is returned when a by-id request names an unknown entity.
	ErrNotFound = errors.New("not found")
	// ErrUnknownRequest is returned for a request type the bus cannot route.
	ErrUnknownRequest = errors.New("unknown request")
)

// Driver answers bus requests. By-id lookups report misses through the bool.
type Driver interface {
	NextOrder() *model.Order
	Order(id model.OrderID) (*model.Order, bool)
	Carrier(id model.CarrierID) (*model.Carrier, bool)
	EarliestWaitingCarrier() *model.Carrier
	PreparedOrder() *model.Order
	Strategy() model.Strategy
	DeliveredCount() int
	IncrementDelivered()
	BookCarrierArrival(id model.OrderID, at time.Duration) error
	BookOrderPrepared(id model.OrderID, at time.Duration) error
	BookNextOrder(at time.Duration) error
}

// Bus routes requests to a Driver, one round trip at a time.
type Bus struct {
	driver Driver

	mu     sync.Mutex
	counts map[string]int
}

// New creates a Bus delivering to d.
func New(d Driver) *Bus {
	return &Bus{driver: d, counts: make(map[string]int)}
}

// Send performs one synchronous round trip. Query results are written into
// req before Send returns.
func (b *Bus) Send(req Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	switch r := req.(type) {
	case *NextOrder:
		r.Result = b.driver.NextOrder()
	case *FetchOrder:
		o, ok := b.driver.Order(r.ID)
		if !ok {
			err = fmt.Errorf("order %d: %w", r.ID, ErrNotFound)
			break
		}
		r.Result = o
	case *FetchCarrier:
		c, ok := b.driver.Carrier(r.ID)
		if !ok {
			err = fmt.Errorf("carrier %d: %w", r.ID, ErrNotFound)
			break
		}
		r.Result = c
	case *EarliestWaitingCarrier:
		r.Result = b.driver.EarliestWaitingCarrier()
	case *PreparedOrder:
		r.Result = b.driver.PreparedOrder()
	case *StrategyFlag:
		r.Result = b.driver.Strategy()
	case *DeliveredCount:
		r.Result = b.driver.DeliveredCount()
	case *IncrementDelivered:
		b.driver.IncrementDelivered()
	case *BookCarrierArrival:
		err = b.driver.BookCarrierArrival(r.OrderID, r.At)
	case *BookOrderPrepared:
		err = b.driver.BookOrderPrepared(r.OrderID, r.At)
	case *BookNextOrder:
		err = b.driver.BookNextOrder(r.At)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownRequest, req)
	}

	b.counts[req.Name()]++
	logrus.Tracef("bus: %s (err=%v)", req.Name(), err)
	if err != nil {
		return fmt.Errorf("%s: %w", req.Name(), err)
	}
	return nil
}

// Counts returns how many round trips each request name has made.
func (b *Bus) Counts() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}
