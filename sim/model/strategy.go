package model

import "fmt"

// Strategy selects how carriers are paired with orders.
type Strategy string

const (
	// StrategyMatched assigns one carrier to one order when the order is received.
	StrategyMatched Strategy = "matched"
	// StrategyFIFO pairs whichever carrier and prepared order have waited longest.
	StrategyFIFO Strategy = "fifo"
)

// validStrategies maps accepted strategy names.
var validStrategies = map[Strategy]bool{
	StrategyMatched: true,
	StrategyFIFO:    true,
}

// IsValidStrategy returns true if the given name is a recognized strategy.
func IsValidStrategy(name string) bool {
	return validStrategies[Strategy(name)]
}

// ParseStrategy converts a CLI or config value into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	if !IsValidStrategy(name) {
		return "", fmt.Errorf("unknown dispatch strategy %q (want %q or %q)", name, StrategyMatched, StrategyFIFO)
	}
	return Strategy(name), nil
}

// Label is the human-readable strategy name used in narration.
func (s Strategy) Label() string {
	if s == StrategyFIFO {
		return "First-In-First-Out"
	}
	return "Matched"
}
