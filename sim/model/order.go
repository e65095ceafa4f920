// Package model defines the orders and carriers a dispatch simulation pairs up.
//
// Lifecycle flags only ever move forward. A second transition, or delivering an
// entity that is not ready, is a broken simulation invariant and panics.
package model

import (
	"fmt"
	"math"
	"time"
)

// MaxSeconds is the longest interval, in seconds, a time.Duration can hold.
const MaxSeconds = float64(math.MaxInt64) / float64(time.Second)

// OrderID is the 1-based position of an order in the input file.
type OrderID int

// CarrierID is the 1-based sequence number of a dispatched carrier.
type CarrierID int

// Order is a single kitchen order.
type Order struct {
	ID           OrderID       // Sequence number assigned at load
	Ref          string        // External reference from the input file
	Name         string        // Dish name
	PrepDuration time.Duration // Time from receipt until the order is prepared

	prepared       bool
	delivered      bool
	matchedCarrier CarrierID // zero when no carrier is assigned (FIFO)
	preparedAt     time.Duration
	deliveredAt    time.Duration
}

// NewOrder creates an order that is neither prepared nor delivered.
func NewOrder(id OrderID, ref, name string, prep time.Duration) *Order {
	return &Order{ID: id, Ref: ref, Name: name, PrepDuration: prep}
}

func (o *Order) Prepared() bool { return o.prepared }

func (o *Order) Delivered() bool { return o.delivered }

func (o *Order) PreparedAt() time.Duration { return o.preparedAt }

func (o *Order) DeliveredAt() time.Duration { return o.deliveredAt }

// MatchedCarrier returns the carrier assigned at receipt time under the
// Matched strategy.
func (o *Order) MatchedCarrier() (CarrierID, bool) {
	return o.matchedCarrier, o.matchedCarrier != 0
}

// AssignCarrier binds the order to exactly one carrier.
func (o *Order) AssignCarrier(id CarrierID) {
	if o.matchedCarrier != 0 {
		panic(fmt.Sprintf("order %d: carrier %d already assigned, cannot assign %d", o.ID, o.matchedCarrier, id))
	}
	o.matchedCarrier = id
}

// MarkPrepared records that the kitchen finished the order at now.
func (o *Order) MarkPrepared(now time.Duration) {
	if o.prepared {
		panic(fmt.Sprintf("order %d prepared twice (at %v and %v)", o.ID, o.preparedAt, now))
	}
	o.prepared = true
	o.preparedAt = now
}

// MarkDelivered records the pickup of a prepared order at now.
func (o *Order) MarkDelivered(now time.Duration) {
	if !o.prepared {
		panic(fmt.Sprintf("order %d delivered before it was prepared", o.ID))
	}
	if o.delivered {
		panic(fmt.Sprintf("order %d delivered twice (at %v and %v)", o.ID, o.deliveredAt, now))
	}
	if now < o.preparedAt {
		panic(fmt.Sprintf("order %d delivered at %v before prepared at %v", o.ID, now, o.preparedAt))
	}
	o.delivered = true
	o.deliveredAt = now
}

// WaitTime is how long the prepared food waited for its carrier.
// Zero until the order is delivered.
func (o *Order) WaitTime() time.Duration {
	if !o.delivered {
		return 0
	}
	return o.deliveredAt - o.preparedAt
}

func (o Order) String() string {
	return fmt.Sprintf("Order: (ID: %d, Name: %q, Prepared: %v, Delivered: %v)", o.ID, o.Name, o.prepared, o.delivered)
}
