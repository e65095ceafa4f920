package trace

import (
	"bytes"
	"testing"
	"time"
)

func TestEventLog_Append_PreservesOrder(t *testing.T) {
	// GIVEN an empty log
	l := NewEventLog()

	// WHEN entries are appended
	l.Append(NewEntry(CodeOrderReceived, 0, Int(KeyOrderID, 1)))
	l.Append(NewEntry(CodeCarrierDispatched, 0, Int(KeyCarrierID, 1)))
	l.Append(NewEntry(CodeOrderReceived, time.Second, Int(KeyOrderID, 2)))

	// THEN they come back in append order
	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Code != CodeOrderReceived || entries[1].Code != CodeCarrierDispatched {
		t.Errorf("append order not preserved: %v", entries)
	}
	if id, _ := entries[2].Int(KeyOrderID); id != 2 {
		t.Errorf("expected order_id 2 on third entry, got %d", id)
	}
}

func TestEventLog_Entries_ReturnsCopy(t *testing.T) {
	l := NewEventLog()
	l.Append(NewEntry(CodeOrderReceived, 0, Int(KeyOrderID, 1)))

	entries := l.Entries()
	entries[0].Code = CodeOrderPicked

	if l.Entries()[0].Code != CodeOrderReceived {
		t.Error("mutating the returned slice changed the log")
	}
}

func TestEventLog_CountAndFilter(t *testing.T) {
	l := NewEventLog()
	l.Append(NewEntry(CodeOrderReceived, 0))
	l.Append(NewEntry(CodeOrderPicked, time.Second))
	l.Append(NewEntry(CodeOrderReceived, 2*time.Second))

	if n := l.Count(CodeOrderReceived); n != 2 {
		t.Errorf("Count(Order Received) = %d, want 2", n)
	}
	if n := l.Count(CodeCarrierArrived); n != 0 {
		t.Errorf("Count(Carrier Arrived) = %d, want 0", n)
	}
	got := l.Filter(CodeOrderReceived)
	if len(got) != 2 || got[1].Time != 2*time.Second {
		t.Errorf("Filter returned %v", got)
	}
}

func TestEntry_TypedAccessors(t *testing.T) {
	e := NewEntry(CodeOrderPicked, 5*time.Second,
		Int(KeyOrderID, 3),
		Bool(KeyPrepared, true),
		Dur(KeyCarrierWaitTime, 2*time.Second),
	)

	tests := []struct {
		name string
		ok   bool
	}{
		{"int present", func() bool { v, ok := e.Int(KeyOrderID); return ok && v == 3 }()},
		{"bool present", func() bool { v, ok := e.Bool(KeyPrepared); return ok && v }()},
		{"duration present", func() bool { v, ok := e.Dur(KeyCarrierWaitTime); return ok && v == 2*time.Second }()},
		{"missing key", func() bool { _, ok := e.Int(KeyCarrierID); return !ok }()},
		{"wrong type", func() bool { _, ok := e.Bool(KeyOrderID); return !ok }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.ok {
				t.Errorf("accessor check %q failed", tt.name)
			}
		})
	}
}

func TestEventLog_WriteTo_RendersOneLinePerEntry(t *testing.T) {
	l := NewEventLog()
	l.Append(NewEntry(CodeCarrierArrived, 3*time.Second,
		Int(KeyCarrierID, 1), Bool(KeyMatched, true), Bool(KeyPrepared, false)))
	l.Append(NewEntry(CodeOrderPicked, 5*time.Second,
		Int(KeyOrderID, 1), Dur(KeyFoodWaitTime, 0)))

	var buf bytes.Buffer
	n, err := l.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := "[3s] Carrier Arrived - carrier_id: 1, matched: true, prepared: false\n" +
		"[5s] Order Picked - order_id: 1, food_wait_time: 0s\n"
	if buf.String() != want {
		t.Errorf("WriteTo output:\n%s\nwant:\n%s", buf.String(), want)
	}
	if n != int64(len(want)) {
		t.Errorf("WriteTo returned %d bytes, want %d", n, len(want))
	}
}
