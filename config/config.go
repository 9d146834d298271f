// Package config holds the options of a benchmark run and builds the
// simulated platform it runs on.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/simplepipe/bench"
	"github.com/sarchlab/simplepipe/device"
	"gopkg.in/yaml.v3"
)

// Options is the complete configuration of a run.
type Options struct {
	Workload WorkloadOptions `yaml:"workload"`
	Device   DeviceOptions   `yaml:"device"`
}

// WorkloadOptions describes what the benchmark moves through the pipes.
type WorkloadOptions struct {
	NumPackets int  `yaml:"num_packets"`
	PacketSize int  `yaml:"packet_size"`
	MultiPipe  bool `yaml:"multi_pipe"`

	// NumPipes is only used in multi-pipe mode.
	NumPipes int `yaml:"num_pipes"`

	Flavor          device.Flavor `yaml:"flavor"`
	GroupSize       int           `yaml:"group_size"`
	GroupsPerKernel int           `yaml:"groups_per_kernel"`
	Reference       uint32        `yaml:"reference"`
	Seed            uint64        `yaml:"seed"`
	Streams         int           `yaml:"streams"`
	PipeCapacity    int           `yaml:"pipe_capacity"`
	Iterations      int           `yaml:"iterations"`
	Modes           []string      `yaml:"modes"`
}

// DeviceOptions describes the simulated accelerator.
type DeviceOptions struct {
	ComputeUnits        int     `yaml:"compute_units"`
	SlotsPerComputeUnit int     `yaml:"slots_per_compute_unit"`
	MaxWorkGroupSize    int     `yaml:"max_work_group_size"`
	MaxAlignmentBits    int     `yaml:"max_alignment_bits"`
	MemoryBytes         uint64  `yaml:"memory_bytes"`
	FreqGHz             float64 `yaml:"freq_ghz"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	w := bench.DefaultWorkload()

	return Options{
		Workload: WorkloadOptions{
			NumPackets:      w.NumPackets,
			PacketSize:      w.PacketSize,
			NumPipes:        bench.MultiPipeCount,
			Flavor:          w.Flavor,
			GroupSize:       w.GroupSize,
			GroupsPerKernel: w.GroupsPerKernel,
			Reference:       w.Reference,
			Seed:            w.Seed,
			Iterations:      w.Iterations,
			Modes:           []string{"sequential", "concurrent"},
		},
		Device: DeviceOptions{
			ComputeUnits:        8,
			SlotsPerComputeUnit: 4,
			MaxWorkGroupSize:    256,
			MaxAlignmentBits:    1024,
			MemoryBytes:         256 << 20,
			FreqGHz:             1,
		},
	}
}

// Load reads a YAML file over the default options. Keys missing from the
// file keep their default values; unknown keys are rejected.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	f, err := os.Open(path)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return opts, fmt.Errorf("config %s: %w", path, err)
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("config %s: %w", path, err)
	}

	return opts, nil
}

// Validate checks the options that do not depend on the device. Every error
// matches bench.ErrConfiguration.
func (o Options) Validate() error {
	w := o.Workload
	d := o.Device

	checks := []struct {
		ok   bool
		what string
	}{
		{w.NumPackets > 0, "num_packets must be positive"},
		{w.PacketSize > 0 && w.PacketSize%4 == 0,
			"packet_size must be a positive multiple of 4"},
		{!w.MultiPipe || w.NumPipes > 0, "num_pipes must be positive"},
		{w.GroupSize > 0, "group_size must be positive"},
		{w.GroupsPerKernel > 0, "groups_per_kernel must be positive"},
		{w.Streams >= 0, "streams must not be negative"},
		{w.PipeCapacity >= 0, "pipe_capacity must not be negative"},
		{w.Iterations > 0, "iterations must be positive"},
		{d.ComputeUnits > 0, "compute_units must be positive"},
		{d.SlotsPerComputeUnit > 0, "slots_per_compute_unit must be positive"},
		{d.MaxWorkGroupSize > 0, "max_work_group_size must be positive"},
		{d.MaxAlignmentBits >= 32 && d.MaxAlignmentBits%32 == 0,
			"max_alignment_bits must be a positive multiple of 32"},
		{d.MemoryBytes > 0, "memory_bytes must be positive"},
		{d.FreqGHz > 0, "freq_ghz must be positive"},
	}

	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", bench.ErrConfiguration, c.what)
		}
	}

	if _, err := o.Modes(); err != nil {
		return fmt.Errorf("%w: %w", bench.ErrConfiguration, err)
	}

	return nil
}

// Modes returns the modes to run, in order.
func (o Options) Modes() ([]bench.Mode, error) {
	if len(o.Workload.Modes) == 0 {
		return append([]bench.Mode(nil), bench.Modes...), nil
	}

	modes := make([]bench.Mode, 0, len(o.Workload.Modes))

	for _, name := range o.Workload.Modes {
		m, err := bench.ParseMode(name)
		if err != nil {
			return nil, err
		}

		modes = append(modes, m)
	}

	return modes, nil
}

// BenchWorkload converts the workload options into a bench.Workload.
func (o Options) BenchWorkload() bench.Workload {
	w := o.Workload

	pipes := 1
	if w.MultiPipe {
		pipes = w.NumPipes
	}

	return bench.Workload{
		NumPackets:      w.NumPackets,
		PacketSize:      w.PacketSize,
		NumPipes:        pipes,
		Flavor:          w.Flavor,
		GroupSize:       w.GroupSize,
		GroupsPerKernel: w.GroupsPerKernel,
		Reference:       w.Reference,
		Seed:            w.Seed,
		Streams:         w.Streams,
		PipeCapacity:    w.PipeCapacity,
		Iterations:      w.Iterations,
	}
}
