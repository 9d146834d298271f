package bench

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sarchlab/simplepipe/device"
)

// MultiPipeCount is the number of pipes used when multi-pipe mode is on.
const MultiPipeCount = 4

// MaxInputValue bounds the generated input values: every value lies in
// [0, MaxInputValue).
const MaxInputValue = 16

// Mode selects how the host schedules producer and consumer kernels.
type Mode int

const (
	ModeNone Mode = iota

	// ModeSequential runs the producer of a channel to completion before its
	// consumer starts.
	ModeSequential

	// ModeConcurrent enqueues every producer and consumer at once and relies
	// on blocking pipes for correctness.
	ModeConcurrent
)

// Modes lists the runnable modes in reporting order.
var Modes = []Mode{ModeSequential, ModeConcurrent}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSequential:
		return "sequential"
	case ModeConcurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "seq":
		return ModeSequential, nil
	case "concurrent", "conc":
		return ModeConcurrent, nil
	default:
		return ModeNone, fmt.Errorf("unknown mode %q", s)
	}
}

// ParseModes parses a comma separated list of modes. "all" and "both" select
// every mode.
func ParseModes(s string) ([]Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "both":
		return append([]Mode(nil), Modes...), nil
	}

	var modes []Mode

	for _, name := range strings.Split(s, ",") {
		m, err := ParseMode(name)
		if err != nil {
			return nil, err
		}

		modes = append(modes, m)
	}

	return modes, nil
}

// Workload describes one benchmark configuration.
type Workload struct {
	NumPackets int
	PacketSize int
	NumPipes   int
	Flavor     device.Flavor

	// GroupSize and GroupsPerKernel are upper bounds. The partitioner picks
	// the largest values that divide each channel's share exactly.
	GroupSize       int
	GroupsPerKernel int

	Reference uint32
	Seed      uint64

	// Streams bounds the producer/consumer queue pairs of concurrent mode.
	// Zero means as many as the device can hold.
	Streams int

	// PipeCapacity is the capacity of every pipe in packets. Zero sizes each
	// pipe to the largest channel.
	PipeCapacity int

	Iterations int
}

// DefaultWorkload returns the single-pipe default configuration.
func DefaultWorkload() Workload {
	return Workload{
		NumPackets:      16384,
		PacketSize:      4,
		NumPipes:        1,
		Flavor:          device.FlavorWorkGroup,
		GroupSize:       64,
		GroupsPerKernel: 10,
		Reference:       7,
		Seed:            1,
		Iterations:      1,
	}
}

func (w Workload) validate() error {
	switch {
	case w.NumPackets < 1:
		return configErrorf("%d packets", w.NumPackets)
	case w.PacketSize < 4 || w.PacketSize%4 != 0:
		return configErrorf("packet size %d is not a positive multiple of 4",
			w.PacketSize)
	case w.NumPipes < 1:
		return configErrorf("%d pipes", w.NumPipes)
	case w.Iterations < 1:
		return configErrorf("%d iterations", w.Iterations)
	case w.Streams < 0:
		return configErrorf("%d streams", w.Streams)
	case w.PipeCapacity < 0:
		return configErrorf("pipe capacity %d", w.PipeCapacity)
	}

	return nil
}

// GenerateInput returns n pseudo-random values in [0, MaxInputValue). The
// same seed always yields the same sequence.
func GenerateInput(n int, seed uint64) []uint32 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	input := make([]uint32, n)
	for i := range input {
		input[i] = r.Uint32N(MaxInputValue)
	}

	return input
}
