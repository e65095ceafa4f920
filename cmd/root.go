package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatch-sim/dispatch-sim/sim"
	"github.com/dispatch-sim/dispatch-sim/sim/delivery"
	"github.com/dispatch-sim/dispatch-sim/sim/model"
	"github.com/dispatch-sim/dispatch-sim/sim/store"
	"github.com/dispatch-sim/dispatch-sim/sim/trace"
)

var (
	// CLI flags for the run command
	seed             int64   // Seed for order and carrier intervals
	logLevel         string  // Log verbosity level, shared by all subcommands
	ordersPath       string  // JSON order file
	strategyName     string  // matched or fifo
	accelerationRate float64 // Simulated seconds per wall-clock second
	defaultsFilePath string  // Path to defaults.yaml
	presetName       string  // Interval preset from defaults.yaml
	virtualClock     bool    // Run instantly instead of in (accelerated) real time
	traceDBPath      string  // SQLite file to export the event log to
	showReplay       bool    // Print the event log after the statistics
	quiet            bool    // Suppress live narration
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dispatch-sim",
	Short: "Discrete-event simulator for order and carrier dispatch",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runOptions is the resolved configuration of one run.
type runOptions struct {
	Orders          []*model.Order
	Strategy        model.Strategy
	Acceleration    float64
	Seed            int64
	OrderInterval   delivery.IntervalSpec
	CarrierInterval delivery.IntervalSpec
	Clock           sim.Clock
	Quiet           bool
	Replay          bool
	TraceDB         string
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dispatch simulation",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := runSimulation(ctx, opts, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// resolveRunOptions merges defaults.yaml with the flags the user set.
// Flags override file values only when cmd.Flags().Changed reports them.
func resolveRunOptions(cmd *cobra.Command) (runOptions, error) {
	cfg, err := loadDefaultsConfig(defaultsFilePath)
	if err != nil {
		if cmd.Flags().Changed("defaults") || !errors.Is(err, fs.ErrNotExist) {
			return runOptions{}, err
		}
		logrus.Warnf("%s not found, using built-in defaults", defaultsFilePath)
		cfg = builtinDefaults()
	}

	name := cfg.Strategy
	if cmd.Flags().Changed("strategy") {
		name = strategyName
	}
	strategy, err := model.ParseStrategy(name)
	if err != nil {
		return runOptions{}, err
	}

	rate := cfg.Acceleration
	if cmd.Flags().Changed("rate") {
		rate = accelerationRate
	}

	preset, err := cfg.lookupPreset(presetName)
	if err != nil {
		return runOptions{}, err
	}

	orders, err := model.LoadOrders(ordersPath)
	if err != nil {
		return runOptions{}, err
	}
	logrus.Infof("Loaded %d orders from %s", len(orders), ordersPath)

	opts := runOptions{
		Orders:          orders,
		Strategy:        strategy,
		Acceleration:    rate,
		Seed:            seed,
		OrderInterval:   preset.OrderInterval,
		CarrierInterval: preset.CarrierInterval,
		Quiet:           quiet,
		Replay:          showReplay,
		TraceDB:         traceDBPath,
	}
	if virtualClock {
		opts.Clock = sim.NewVirtualClock()
	}
	return opts, nil
}

// runSimulation plays one story and writes narration, statistics and the
// optional replay to out.
func runSimulation(ctx context.Context, opts runOptions, out io.Writer) error {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(opts.Seed))
	orderIv, err := delivery.NewIntervalSampler(opts.OrderInterval, rng.ForSubsystem(sim.SubsystemOrders))
	if err != nil {
		return fmt.Errorf("order interval: %w", err)
	}
	carrierIv, err := delivery.NewIntervalSampler(opts.CarrierInterval, rng.ForSubsystem(sim.SubsystemCarriers))
	if err != nil {
		return fmt.Errorf("carrier interval: %w", err)
	}

	printer := func(at time.Duration, msg string) {
		fmt.Fprintf(out, "[%v] %s\n", at.Round(time.Millisecond), msg)
	}
	if opts.Quiet {
		printer = func(time.Duration, string) {}
	}
	s, err := sim.NewSimulator(sim.Config{AccelerationRate: opts.Acceleration, Clock: opts.Clock, Printer: printer})
	if err != nil {
		return err
	}
	story, err := delivery.NewStory(s, opts.Orders, delivery.StoryConfig{
		Strategy:        opts.Strategy,
		OrderInterval:   orderIv,
		CarrierInterval: carrierIv,
	})
	if err != nil {
		return err
	}

	report, err := story.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	report.Print(out)
	logSummary(trace.Summarize(s.Trace))
	logBusTraffic(story.Bus().Counts())
	if vc, ok := opts.Clock.(*sim.VirtualClock); ok {
		logrus.Infof("Virtual clock: a paced run would have taken %v", vc.Slept())
	}
	if err := trace.Check(s.Trace); err != nil {
		logrus.Warnf("Event log failed invariant checks: %v", err)
	}
	if opts.Replay {
		fmt.Fprintln(out)
		if err := delivery.Replay(out, s.Trace); err != nil {
			return err
		}
	}

	if opts.TraceDB != "" {
		if err := exportTrace(ctx, opts, s.Trace, out); err != nil {
			return err
		}
	}
	return nil
}

func exportTrace(ctx context.Context, opts runOptions, l *trace.EventLog, out io.Writer) error {
	db, err := store.Open(opts.TraceDB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	ts, err := store.NewSQLiteTraceStore(db)
	if err != nil {
		return err
	}
	id, err := ts.SaveRun(ctx, store.RunMeta{
		Strategy:     string(opts.Strategy),
		Acceleration: opts.Acceleration,
		Seed:         opts.Seed,
	}, l)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved event log as run %s in %s\n", id, opts.TraceDB)
	return nil
}

func logSummary(sum *trace.Summary) {
	logrus.WithFields(logrus.Fields{
		"picked":           sum.Picked,
		"food_wait_p90":    sum.P90FoodWait,
		"food_wait_max":    sum.MaxFoodWait,
		"carrier_wait_p90": sum.P90CarrierWait,
		"carrier_wait_max": sum.MaxCarrierWait,
	}).Info("Wait time summary")
}

func logBusTraffic(counts map[string]int) {
	fields := make(logrus.Fields, len(counts))
	for name, n := range counts {
		fields[name] = n
	}
	logrus.WithFields(fields).Info("Bus round trips")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for order and carrier intervals")
	runCmd.Flags().StringVar(&ordersPath, "orders", "dispatch_orders.json", "JSON file of orders to dispatch")
	runCmd.Flags().StringVar(&strategyName, "strategy", "matched", "Dispatch strategy (matched, fifo)")
	runCmd.Flags().Float64Var(&accelerationRate, "rate", 1.0, "Acceleration rate: simulated seconds per real second")
	runCmd.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to defaults.yaml")
	runCmd.Flags().StringVar(&presetName, "preset", "", "Interval preset from defaults.yaml (default: the file's preset)")
	runCmd.Flags().BoolVar(&virtualClock, "virtual-clock", false, "Run as fast as possible instead of pacing against real time")
	runCmd.Flags().StringVar(&traceDBPath, "trace-db", "", "SQLite file to export the event log to")
	runCmd.Flags().BoolVar(&showReplay, "replay", true, "Print the event log after the run")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress live narration")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}
