package sim

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Less_OrdersByTimeThenSeq(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want bool
	}{
		{"earlier time wins", Key{Time: time.Second, Seq: 9}, Key{Time: 2 * time.Second, Seq: 1}, true},
		{"later time loses", Key{Time: 2 * time.Second, Seq: 1}, Key{Time: time.Second, Seq: 9}, false},
		{"same time lower seq wins", Key{Time: time.Second, Seq: 1}, Key{Time: time.Second, Seq: 2}, true},
		{"same time higher seq loses", Key{Time: time.Second, Seq: 2}, Key{Time: time.Second, Seq: 1}, false},
		{"equal keys", Key{Time: time.Second, Seq: 1}, Key{Time: time.Second, Seq: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Less(tt.b))
		})
	}
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "1.5s#3", Key{Time: 1500 * time.Millisecond, Seq: 3}.String())
}

func TestEventQueue_PopsInKeyOrder(t *testing.T) {
	// GIVEN events pushed out of order, two of them at the same time
	eq := &EventQueue{}
	heap.Push(eq, queued{key: Key{Time: 3 * time.Second, Seq: 1}, ev: &stubEvent{name: "c"}})
	heap.Push(eq, queued{key: Key{Time: time.Second, Seq: 3}, ev: &stubEvent{name: "b"}})
	heap.Push(eq, queued{key: Key{Time: time.Second, Seq: 2}, ev: &stubEvent{name: "a"}})

	// WHEN all are popped
	var got []string
	for eq.Len() > 0 {
		got = append(got, heap.Pop(eq).(queued).ev.(*stubEvent).name)
	}

	// THEN they come out by time, ties by sequence
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestEventQueue_Pop_ClearsSlot(t *testing.T) {
	eq := &EventQueue{}
	heap.Push(eq, queued{key: Key{Seq: 1}, ev: &stubEvent{}})
	backing := (*eq)[:1]

	heap.Pop(eq)

	require.Equal(t, 0, eq.Len())
	assert.Nil(t, backing[0].ev, "popped slot should not retain the event")
}
