// Implements the future event list: a min-heap of pending events.

package sim

import (
	"fmt"
	"time"
)

// Key orders entries of the future event list.
// Time is the event's own timestamp and is never adjusted; Seq is assigned
// at scheduling and breaks ties, so events booked for the same instant run
// in the order they were booked.
type Key struct {
	Time time.Duration
	Seq  uint64
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	if k.Time != other.Time {
		return k.Time < other.Time
	}
	return k.Seq < other.Seq
}

func (k Key) String() string {
	return fmt.Sprintf("%v#%d", k.Time, k.Seq)
}

type queued struct {
	key Key
	ev  Event
}

// EventQueue implements heap.Interface and orders events by Key.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []queued

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].key.Less(eq[j].key) }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queued))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = queued{} // drop the event reference
	*eq = old[0 : n-1]
	return item
}

// peek returns the smallest entry. The queue must not be empty.
func (eq EventQueue) peek() queued {
	return eq[0]
}
