package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAccelerationRate plays the simulation back in real time.
const DefaultAccelerationRate = 1.0

// ErrInvalidConfig is returned by NewSimulator for unusable settings.
var ErrInvalidConfig = errors.New("invalid simulator config")

// Printer receives narration messages stamped with a simulation time.
type Printer func(at time.Duration, msg string)

// Config groups the engine settings for NewSimulator.
type Config struct {
	AccelerationRate float64 // simulated time per unit of wall time (> 0; zero means DefaultAccelerationRate)
	Clock            Clock   // wall-time source (nil = WallClock)
	Printer          Printer // narration sink (nil = logrus at Info level)
}

func (c Config) withDefaults() Config {
	if c.AccelerationRate == 0 {
		c.AccelerationRate = DefaultAccelerationRate
	}
	if c.Clock == nil {
		c.Clock = WallClock{}
	}
	if c.Printer == nil {
		c.Printer = LogPrinter
	}
	return c
}

func (c Config) validate() error {
	r := c.AccelerationRate
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: acceleration rate must be a positive finite number, got %v", ErrInvalidConfig, r)
	}
	return nil
}

// LogPrinter writes narration through logrus with the simulation time as a field.
func LogPrinter(at time.Duration, msg string) {
	logrus.WithField("sim_time", at).Info(msg)
}
