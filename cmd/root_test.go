package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-sim/dispatch-sim/sim"
	"github.com/dispatch-sim/dispatch-sim/sim/delivery"
	"github.com/dispatch-sim/dispatch-sim/sim/model"
)

const testOrders = `[
  {"id": "a", "name": "Pizza", "prepTime": 5},
  {"id": "b", "name": "Salad", "prepTime": 2},
  {"id": "c", "name": "Soup", "prepTime": 9}
]`

func writeOrders(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(testOrders), 0o644))
	return path
}

func testRunOptions(t *testing.T, strategy model.Strategy) runOptions {
	t.Helper()
	orders, err := model.LoadOrders(writeOrders(t))
	require.NoError(t, err)
	return runOptions{
		Orders:          orders,
		Strategy:        strategy,
		Acceleration:    1,
		Seed:            42,
		OrderInterval:   delivery.DefaultOrderInterval,
		CarrierInterval: delivery.DefaultCarrierInterval,
		Clock:           sim.NewVirtualClock(),
		Replay:          true,
	}
}

func TestRunSimulation_PrintsNarrationStatisticsAndReplay(t *testing.T) {
	// GIVEN three orders and the default distributions on a virtual clock
	opts := testRunOptions(t, model.StrategyFIFO)
	var out bytes.Buffer

	// WHEN the simulation runs
	require.NoError(t, runSimulation(context.Background(), opts, &out))

	// THEN narration, statistics and the replay are written
	s := out.String()
	assert.Contains(t, s, "received, carrier 1 dispatched")
	assert.Contains(t, s, "=== Dispatch Statistics ===")
	assert.Contains(t, s, "Delivered            : 3")
	assert.Contains(t, s, "in First-In-First-Out strategy, food average wait")
	assert.Contains(t, s, "Event Log Replay:")
	assert.Len(t, regexp.MustCompile(`Order Picked - `).FindAllString(s, -1), 3)
}

func TestRunSimulation_QuietWithoutReplay(t *testing.T) {
	opts := testRunOptions(t, model.StrategyMatched)
	opts.Quiet = true
	opts.Replay = false
	var out bytes.Buffer

	require.NoError(t, runSimulation(context.Background(), opts, &out))

	s := out.String()
	assert.NotContains(t, s, "received, carrier")
	assert.NotContains(t, s, "Event Log Replay:")
	assert.Contains(t, s, "Strategy             : Matched")
}

func TestRunSimulation_SameSeedSameOutput(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, runSimulation(context.Background(), testRunOptions(t, model.StrategyMatched), &a))
	require.NoError(t, runSimulation(context.Background(), testRunOptions(t, model.StrategyMatched), &b))

	assert.Equal(t, a.String(), b.String())
}

func TestRunSimulation_InvalidInterval(t *testing.T) {
	opts := testRunOptions(t, model.StrategyFIFO)
	opts.CarrierInterval = delivery.IntervalSpec{Type: "gamma"}

	err := runSimulation(context.Background(), opts, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier interval")
}

func TestRunSimulation_ExportAndInspect(t *testing.T) {
	// GIVEN a run exported to a trace database
	opts := testRunOptions(t, model.StrategyMatched)
	opts.TraceDB = filepath.Join(t.TempDir(), "trace.db")
	var out bytes.Buffer
	require.NoError(t, runSimulation(context.Background(), opts, &out))

	m := regexp.MustCompile(`Saved event log as run ([0-9a-f-]{36})`).FindStringSubmatch(out.String())
	require.Len(t, m, 2)
	runID := m[1]

	// WHEN the runs are listed
	var list bytes.Buffer
	require.NoError(t, inspect(context.Background(), opts.TraceDB, "", 10, &list))

	// THEN the exported run appears with its settings
	assert.Contains(t, list.String(), runID)
	assert.Contains(t, list.String(), "matched")

	// AND replaying it shows the full log and passes the invariant checks
	var replay bytes.Buffer
	require.NoError(t, inspect(context.Background(), opts.TraceDB, runID, 10, &replay))
	assert.Contains(t, replay.String(), "Event Log Replay:")
	assert.Contains(t, replay.String(), "Picked               : 3")
	assert.Contains(t, replay.String(), "Invariant check      : ok")
}

func TestInspect_BadRunID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")

	err := inspect(context.Background(), db, "not-a-uuid", 10, &bytes.Buffer{})

	assert.Error(t, err)
}

func TestInspect_EmptyDatabase(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, inspect(context.Background(), filepath.Join(t.TempDir(), "trace.db"), "", 10, &out))

	assert.Equal(t, "no runs stored\n", out.String())
}

// newFlagCommand registers the run flags on a throwaway command so tests can
// mark them Changed without touching runCmd.
func newFlagCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().StringVar(&strategyName, "strategy", "matched", "")
	c.Flags().Float64Var(&accelerationRate, "rate", 1.0, "")
	c.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "")
	c.Flags().StringVar(&presetName, "preset", "", "")
	c.Flags().StringVar(&ordersPath, "orders", "dispatch_orders.json", "")
	c.Flags().BoolVar(&virtualClock, "virtual-clock", false, "")
	return c
}

func TestResolveRunOptions_FlagsOverrideDefaultsOnlyWhenChanged(t *testing.T) {
	// GIVEN a defaults file choosing fifo at 5x with a constant preset
	dir := t.TempDir()
	defaults := filepath.Join(dir, "defaults.yaml")
	require.NoError(t, os.WriteFile(defaults, []byte(`
version: "1"
strategy: fifo
acceleration: 5
preset: steady
presets:
  steady:
    order_interval: {type: constant, params: {value: 1}}
    carrier_interval: {type: constant, params: {value: 2}}
`), 0o644))

	c := newFlagCommand()
	require.NoError(t, c.Flags().Set("defaults", defaults))
	require.NoError(t, c.Flags().Set("orders", writeOrders(t)))
	require.NoError(t, c.Flags().Set("rate", "50"))
	require.NoError(t, c.Flags().Set("virtual-clock", "true"))

	// WHEN the options are resolved
	opts, err := resolveRunOptions(c)
	require.NoError(t, err)

	// THEN the unchanged strategy comes from the file and the changed rate from the flag
	assert.Equal(t, model.StrategyFIFO, opts.Strategy)
	assert.Equal(t, 50.0, opts.Acceleration)
	assert.Equal(t, "constant", opts.OrderInterval.Type)
	assert.Len(t, opts.Orders, 3)
	assert.IsType(t, &sim.VirtualClock{}, opts.Clock)
}

func TestResolveRunOptions_Errors(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"unknown strategy", map[string]string{"strategy": "lifo"}},
		{"unknown preset", map[string]string{"preset": "missing"}},
		{"missing orders", map[string]string{"orders": "/does/not/exist.json"}},
		{"explicit missing defaults", map[string]string{"defaults": "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFlagCommand()
			require.NoError(t, c.Flags().Set("defaults", findDefaults(t)))
			require.NoError(t, c.Flags().Set("orders", writeOrders(t)))
			for k, v := range tt.flags {
				require.NoError(t, c.Flags().Set(k, v))
			}

			_, err := resolveRunOptions(c)

			assert.Error(t, err)
		})
	}
}

func TestRunSimulation_WallClockHighAcceleration(t *testing.T) {
	// GIVEN a wall-clock run played 10000x faster than real time
	opts := testRunOptions(t, model.StrategyMatched)
	opts.Clock = nil
	opts.Acceleration = 10000
	opts.Quiet = true

	start := time.Now()
	require.NoError(t, runSimulation(context.Background(), opts, &bytes.Buffer{}))

	// THEN it completes quickly
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunSimulation_LogsBusTrafficAndVirtualWallTime(t *testing.T) {
	// GIVEN a hook capturing Info logs
	hook := test.NewGlobal()
	defer hook.Reset()
	prev := logrus.GetLevel()
	logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetLevel(prev)

	// WHEN three orders run on a virtual clock
	require.NoError(t, runSimulation(context.Background(), testRunOptions(t, model.StrategyMatched), &bytes.Buffer{}))

	// THEN the bus traffic and the paced duration are logged
	var traffic *logrus.Entry
	var paced bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Bus round trips" {
			traffic = e
		}
		if regexp.MustCompile(`^Virtual clock: a paced run would have taken \S+`).MatchString(e.Message) {
			paced = true
		}
	}
	require.NotNil(t, traffic)
	assert.Equal(t, 3, traffic.Data["IncrementDelivered"])
	assert.Equal(t, 3, traffic.Data["BookCarrierArrival"])
	assert.True(t, paced)
}

func TestRootCmd_LogFlagIsSharedBySubcommands(t *testing.T) {
	// GIVEN the registered command tree
	flag := rootCmd.PersistentFlags().Lookup("log")

	// THEN --log is defined once on the root and inherited by every subcommand
	require.NotNil(t, flag)
	assert.Equal(t, "warn", flag.DefValue)
	for _, c := range []*cobra.Command{runCmd, inspectCmd} {
		assert.Nil(t, c.LocalFlags().Lookup("log"), c.Name())
		assert.NotNil(t, c.InheritedFlags().Lookup("log"), c.Name())
	}
}
