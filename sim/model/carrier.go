package model

import (
	"fmt"
	"time"
)

// Carrier is a courier dispatched to pick up one order.
type Carrier struct {
	ID CarrierID

	arrived     bool
	delivered   bool
	arrivedAt   time.Duration
	deliveredAt time.Duration
}

// NewCarrier creates a carrier that is still on its way.
func NewCarrier(id CarrierID) *Carrier {
	return &Carrier{ID: id}
}

func (c *Carrier) Arrived() bool { return c.arrived }

func (c *Carrier) Delivered() bool { return c.delivered }

func (c *Carrier) ArrivedAt() time.Duration { return c.arrivedAt }

func (c *Carrier) DeliveredAt() time.Duration { return c.deliveredAt }

// Waiting reports whether the carrier is at the pickup point without an order.
func (c *Carrier) Waiting() bool { return c.arrived && !c.delivered }

// MarkArrived records the carrier reaching the pickup point at now.
func (c *Carrier) MarkArrived(now time.Duration) {
	if c.arrived {
		panic(fmt.Sprintf("carrier %d arrived twice (at %v and %v)", c.ID, c.arrivedAt, now))
	}
	c.arrived = true
	c.arrivedAt = now
}

// MarkDelivered records the carrier leaving with an order at now.
func (c *Carrier) MarkDelivered(now time.Duration) {
	if !c.arrived {
		panic(fmt.Sprintf("carrier %d delivered before it arrived", c.ID))
	}
	if c.delivered {
		panic(fmt.Sprintf("carrier %d delivered twice (at %v and %v)", c.ID, c.deliveredAt, now))
	}
	if now < c.arrivedAt {
		panic(fmt.Sprintf("carrier %d delivered at %v before arrived at %v", c.ID, now, c.arrivedAt))
	}
	c.delivered = true
	c.deliveredAt = now
}

// WaitTime is how long the carrier waited at the pickup point.
// Zero until the carrier has delivered.
func (c *Carrier) WaitTime() time.Duration {
	if !c.delivered {
		return 0
	}
	return c.deliveredAt - c.arrivedAt
}

func (c Carrier) String() string {
	return fmt.Sprintf("Carrier: (ID: %d, Arrived: %v, Delivered: %v)", c.ID, c.arrived, c.delivered)
}
