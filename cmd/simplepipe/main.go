// Command simplepipe runs the pipe producer/consumer benchmark on a simulated
// accelerator and reports whether every mode counted correctly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sarchlab/simplepipe/bench"
	"github.com/sarchlab/simplepipe/config"
	"github.com/sarchlab/simplepipe/device"
	"github.com/sarchlab/simplepipe/verify"
	"github.com/tebeka/atexit"
)

const (
	exitOK           = 0
	exitVerification = 1
	exitConfig       = 2
)

var (
	configFile = flag.String("config", "", "YAML file with the run options.")
	packets    = flag.Int("packets", 0, "Number of packets to move.")
	packetSize = flag.Int("packet-size", 0, "Packet size in bytes.")
	multiPipe  = flag.Bool("multi-pipe", false, "Split the packets over several pipes.")
	pipes      = flag.Int("pipes", 0, "Number of pipes in multi-pipe mode.")
	flavor     = flag.String("flavor", "", "Kernel flavor: workgroup (0) or workitem (1).")
	iterations = flag.Int("iterations", 0, "Number of timed runs per mode.")
	modes      = flag.String("mode", "", "Modes to run: sequential, concurrent or all.")
	streams    = flag.Int("streams", 0, "Most producer/consumer queue pairs in concurrent mode.")
	logLevel   = flag.String("log-level", "warn", "Log level: debug, info, trace, warn or error.")
	logFile    = flag.String("log-file", "", "Write logs to this file instead of stderr.")
	monitor    = flag.Bool("monitor", false, "Serve the akita monitor while running.")
	tracePipes = flag.Bool("trace-pipes", false, "Log every packet at the trace level.")
)

func main() {
	flag.Parse()

	opts, err := loadOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(exitConfig)
	}

	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(exitConfig)
	}

	atexit.Exit(run(opts, os.Stdout))
}

func loadOptions() (config.Options, error) {
	opts := config.DefaultOptions()

	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return opts, err
		}

		opts = loaded
	}

	var err error

	flag.Visit(func(f *flag.Flag) {
		w := &opts.Workload

		switch f.Name {
		case "packets":
			w.NumPackets = *packets
		case "packet-size":
			w.PacketSize = *packetSize
		case "multi-pipe":
			w.MultiPipe = *multiPipe
		case "pipes":
			w.NumPipes = *pipes
			w.MultiPipe = true
		case "flavor":
			var parsed device.Flavor
			parsed, err = device.ParseFlavor(*flavor)
			w.Flavor = parsed
		case "iterations":
			w.Iterations = *iterations
		case "mode":
			w.Modes = splitModes(*modes)
		case "streams":
			w.Streams = *streams
		}
	})

	if err != nil {
		return opts, fmt.Errorf("%w: %w", bench.ErrConfiguration, err)
	}

	return opts, opts.Validate()
}

func splitModes(s string) []string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "both":
		return nil
	}

	return strings.Split(s, ",")
}

func setupLogging() error {
	var level slog.Level

	if strings.EqualFold(*logLevel, "trace") {
		level = device.LevelTrace
	} else if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("%w: log level: %w", bench.ErrConfiguration, err)
	}

	var w io.Writer = os.Stderr

	if *logFile != "" {
		f, err := os.OpenFile(*logFile,
			os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(w,
		&slog.HandlerOptions{Level: level})))

	return nil
}

func run(opts config.Options, out io.Writer) int {
	builder := config.MakePlatformBuilder(opts.Device)
	if *monitor {
		builder = builder.WithMonitor()
	}

	if *tracePipes {
		builder = builder.WithPipeHook(device.NewPipeTracer(true))
	}

	platform := builder.Build()

	if platform.Monitor != nil {
		platform.Monitor.StartServer()
	}

	workload := opts.BenchWorkload()

	s, err := bench.NewScheduler(platform.Driver, workload)
	if err != nil {
		fmt.Fprintln(out, err)
		return exitConfig
	}

	runModes, err := opts.Modes()
	if err != nil {
		fmt.Fprintln(out, err)
		return exitConfig
	}

	for _, mode := range runModes {
		if err := s.Check(mode); err != nil {
			fmt.Fprintln(out, err)
			return exitConfig
		}
	}

	report := verify.NewReport(fmt.Sprintf(
		"%d packets of %d bytes over %d pipe(s)",
		workload.NumPackets, workload.PacketSize, workload.NumPipes))
	code := exitOK

	for _, mode := range runModes {
		res := s.RunIterations(mode)

		report.Add(verify.Scenario{
			Mode:     mode.String(),
			Pipes:    workload.NumPipes,
			Packets:  workload.NumPackets,
			Flavor:   workload.Flavor.String(),
			Setup:    res.Setup,
			Exec:     res.Exec,
			SimTime:  res.SimTime,
			Samples:  res.ExecSamples,
			Expected: res.Expected,
			Actual:   res.Accumulator,
			Err:      res.Err,
		})

		code = max(code, exitCode(res.Err))
		if code == exitConfig {
			break
		}
	}

	report.WriteReport(out)

	if code == exitOK && !report.Passed() {
		code = exitVerification
	}

	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, bench.ErrConfiguration),
		errors.Is(err, bench.ErrResource):
		return exitConfig
	default:
		return exitVerification
	}
}
