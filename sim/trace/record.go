// Package trace provides the append-only event log of a dispatch simulation.
// This package has no dependencies on sim/ or its domain packages; it stores plain data types.
package trace

import (
	"fmt"
	"strings"
	"time"
)

// Code tags the kind of occurrence an Entry records.
type Code string

const (
	CodeOrderReceived     Code = "Order Received"
	CodeCarrierDispatched Code = "Carrier Dispatched"
	CodeCarrierArrived    Code = "Carrier Arrived"
	CodeOrderPrepared     Code = "Order Prepared"
	CodeOrderPicked       Code = "Order Picked"
)

// Parameter names used by the dispatch events.
const (
	KeyOrderID                 = "order_id"
	KeyCarrierID               = "carrier_id"
	KeyHasMatchedOrder         = "has_matched_order"
	KeyMatchedOrderID          = "matched_order_id"
	KeyMatched                 = "matched"
	KeyPrepared                = "prepared"
	KeyHasMatchedCarrier       = "has_matched_carrier"
	KeyMatchedCarrierID        = "matched_carrier_id"
	KeyCarrierAvailable        = "carrier_available"
	KeyMatchedCarrierAvailable = "matched_carrier_available"
	KeyFoodWaitTime            = "food_wait_time"
	KeyCarrierWaitTime         = "carrier_wait_time"
)

// Param is one named value of an Entry. Value is always a bool, an int or a
// time.Duration; use Bool, Int and Dur to build one.
type Param struct {
	Key   string
	Value any
}

func Bool(key string, v bool) Param { return Param{Key: key, Value: v} }

func Int(key string, v int) Param { return Param{Key: key, Value: v} }

func Dur(key string, v time.Duration) Param { return Param{Key: key, Value: v} }

// Entry is a single named occurrence at a simulation instant.
// Params keep insertion order so that rendering is deterministic.
type Entry struct {
	Code   Code
	Time   time.Duration
	Params []Param
}

// NewEntry builds an Entry from its code, time and parameters.
func NewEntry(code Code, at time.Duration, params ...Param) Entry {
	return Entry{Code: code, Time: at, Params: params}
}

// Get returns the raw value stored under key.
func (e Entry) Get(key string) (any, bool) {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Bool returns the boolean stored under key. ok is false when the key is
// missing or holds another type.
func (e Entry) Bool(key string) (v bool, ok bool) {
	raw, found := e.Get(key)
	if !found {
		return false, false
	}
	v, ok = raw.(bool)
	return v, ok
}

// Int returns the integer stored under key.
func (e Entry) Int(key string) (v int, ok bool) {
	raw, found := e.Get(key)
	if !found {
		return 0, false
	}
	v, ok = raw.(int)
	return v, ok
}

// Dur returns the duration stored under key.
func (e Entry) Dur(key string) (v time.Duration, ok bool) {
	raw, found := e.Get(key)
	if !found {
		return 0, false
	}
	v, ok = raw.(time.Duration)
	return v, ok
}

// String renders the entry as "[time] code - key: value, key: value".
func (e Entry) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%v] %s -", e.Time, e.Code)
	for i, p := range e.Params {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, " %s: %v", p.Key, p.Value)
	}
	return sb.String()
}
