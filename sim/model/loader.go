package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// orderRecord is one element of the input order file.
type orderRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	PrepTime *float64 `json:"prepTime"` // seconds
}

// LoadOrders reads a JSON array of {"id", "name", "prepTime"} objects.
// Orders get sequence ids 1..n in file order.
func LoadOrders(path string) ([]*Order, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening order file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseOrders(file)
}

// ParseOrders decodes an order array from r.
func ParseOrders(r io.Reader) ([]*Order, error) {
	var records []orderRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing order JSON: %w", err)
	}
	orders := make([]*Order, 0, len(records))
	for i, rec := range records {
		if rec.PrepTime == nil {
			return nil, fmt.Errorf("order %d (%q): missing prepTime", i+1, rec.ID)
		}
		if *rec.PrepTime < 0 {
			return nil, fmt.Errorf("order %d (%q): negative prepTime %v", i+1, rec.ID, *rec.PrepTime)
		}
		if *rec.PrepTime >= MaxSeconds {
			return nil, fmt.Errorf("order %d (%q): prepTime %v exceeds %v seconds", i+1, rec.ID, *rec.PrepTime, MaxSeconds)
		}
		prep := time.Duration(*rec.PrepTime * float64(time.Second))
		orders = append(orders, NewOrder(OrderID(i+1), rec.ID, rec.Name, prep))
	}
	return orders, nil
}
