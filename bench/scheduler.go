// Package bench runs the pipe producer/consumer benchmark.
//
// A Scheduler splits a generated input over pipes, moves it through the
// device with producer kernels, counts the packets equal to a reference
// value with consumer kernels, and checks the device count against the host.
// The same input can be run in sequential or concurrent mode.
package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarchlab/simplepipe/api"
	"github.com/sarchlab/simplepipe/device"
	"github.com/sarchlab/simplepipe/partition"
	"github.com/sarchlab/simplepipe/verify"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_runtime_test.go github.com/sarchlab/simplepipe/bench Runtime

// Runtime is the part of the host driver the scheduler uses.
type Runtime interface {
	DeviceInfo() device.Info

	CreatePipes(count, packetSize, capacity int) ([]device.PipeHandle, error)
	ReleasePipes(pipes []device.PipeHandle) error
	AllocBuffer(name string, words int) (device.BufferHandle, error)
	FreeBuffer(buf device.BufferHandle) error

	NewQueue(name string) api.QueueID
	EnqueueWrite(q api.QueueID, buf device.BufferHandle, data []uint32)
	EnqueueFill(q api.QueueID, buf device.BufferHandle, value uint32)
	EnqueueKernel(q api.QueueID, launch device.Launch) error
	EnqueueRead(q api.QueueID, buf device.BufferHandle, dst []uint32)
	Finish() error

	Now() float64
}

// Result is the outcome of running one mode.
type Result struct {
	Mode Mode

	Accumulator uint32
	Expected    uint32

	// Setup covers pipe creation, buffer allocation and staging. Exec
	// covers the kernels only. After RunIterations, Setup, Exec and SimTime
	// are means over the iterations that ran.
	Setup   time.Duration
	Exec    time.Duration
	SimTime float64

	// ExecSamples holds Exec for every iteration of RunIterations.
	ExecSamples []time.Duration

	Err error
}

// Scheduler runs a workload on a device.
type Scheduler struct {
	rt       Runtime
	workload Workload
	info     device.Info

	input    []uint32
	plans    []partition.Plan
	capacity int

	queues map[string]api.QueueID
}

// NewScheduler validates a workload against the device and prepares the
// input and the partition.
func NewScheduler(rt Runtime, w Workload) (*Scheduler, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	info := rt.DeviceInfo()

	if w.PacketSize > info.MaxPacketSize() {
		return nil, configErrorf(
			"packet size %d bytes exceeds the %d-bit device alignment",
			w.PacketSize, info.MaxAlignmentBits)
	}

	if w.GroupSize > info.MaxWorkGroupSize {
		return nil, configErrorf("work-group size %d above device limit %d",
			w.GroupSize, info.MaxWorkGroupSize)
	}

	plans, err := partition.Partition(
		w.NumPackets, w.NumPipes, w.GroupSize, w.GroupsPerKernel)
	if err != nil {
		return nil, newError(KindConfiguration, PhaseSetup, ModeNone, err)
	}

	s := &Scheduler{
		rt:       rt,
		workload: w,
		info:     info,
		input:    GenerateInput(w.NumPackets, w.Seed),
		plans:    plans,
		capacity: w.PipeCapacity,
		queues:   make(map[string]api.QueueID),
	}

	if s.capacity == 0 {
		s.capacity = partition.MaxItems(plans)
	}

	if w.Flavor == device.FlavorWorkGroup {
		for _, p := range plans {
			if p.GroupSize > s.capacity {
				return nil, configErrorf(
					"pipe capacity %d is below the work-group size %d "+
						"of channel %d", s.capacity, p.GroupSize, p.Channel)
			}
		}
	}

	return s, nil
}

// Input returns the generated input. It must not be modified.
func (s *Scheduler) Input() []uint32 {
	return s.input
}

// Plans returns the partition of the input over the pipes.
func (s *Scheduler) Plans() []partition.Plan {
	return s.plans
}

// Workload returns the workload the scheduler runs.
func (s *Scheduler) Workload() Workload {
	return s.workload
}

// Streams returns the number of producer/consumer queue pairs used by the
// concurrent mode. A pair runs its channels one after another, and every
// kernel of all pairs must be resident at the same time.
func (s *Scheduler) Streams() (int, error) {
	slots := s.info.WorkGroupSlots()
	perStream := 2 * partition.MaxGroups(s.plans)

	if perStream > slots {
		return 0, configErrorf(
			"a producer and a consumer need %d work-group slots, device has %d",
			perStream, slots)
	}

	streams := s.workload.NumPipes
	if s.workload.Streams > 0 && s.workload.Streams < streams {
		streams = s.workload.Streams
	}

	if perStream > 0 && slots/perStream < streams {
		streams = slots / perStream
	}

	return streams, nil
}

// Check tells if the workload can run in the given mode on the device. It
// creates nothing on the device, so a caller can check every mode it plans
// to run before any kernel is launched.
func (s *Scheduler) Check(mode Mode) error {
	var err error

	switch mode {
	case ModeSequential:
		if most := partition.MaxItems(s.plans); s.capacity < most {
			err = configErrorf(
				"pipe capacity %d cannot hold a channel of %d packets "+
					"without a running consumer", s.capacity, most)
		}
	case ModeConcurrent:
		_, err = s.Streams()
	default:
		err = configErrorf("unknown mode %s", mode)
	}

	var benchErr *Error
	if errors.As(err, &benchErr) {
		benchErr.Mode = mode
	}

	return err
}

// run holds the device objects of one run.
type run struct {
	mode  Mode
	pipes []device.PipeHandle
	src   device.BufferHandle
	acc   device.BufferHandle
}

// Run runs the workload once in the given mode and verifies the result.
func (s *Scheduler) Run(mode Mode) Result {
	res := Result{
		Mode:     mode,
		Expected: verify.Count(s.input, s.workload.Reference),
	}

	if err := s.Check(mode); err != nil {
		res.Err = err
		return res
	}

	r := &run{mode: mode}

	start := time.Now()
	if err := s.setup(r); err != nil {
		res.Err = s.abandon(r, err)
		return res
	}

	if err := s.stage(r); err != nil {
		res.Err = s.abandon(r, err)
		return res
	}
	res.Setup = time.Since(start)

	start = time.Now()
	simStart := s.rt.Now()

	var err error

	switch mode {
	case ModeSequential:
		err = s.execSequential(r)
	case ModeConcurrent:
		err = s.execConcurrent(r)
	}

	res.Exec = time.Since(start)
	res.SimTime = s.rt.Now() - simStart

	if err == nil {
		res.Accumulator, err = s.retrieve(r)
	}

	if releaseErr := s.release(r); releaseErr != nil && err == nil {
		err = newError(KindExecution, PhaseRetrieval, mode, releaseErr)
	}

	if err == nil {
		if vErr := verify.Verify(s.input, s.workload.Reference,
			res.Accumulator).Err(); vErr != nil {
			err = newError(KindVerification, PhaseRetrieval, mode, vErr)
		}
	}

	res.Err = err

	slog.Info("Run",
		"Mode", mode.String(),
		"Pipes", s.workload.NumPipes,
		"Flavor", s.workload.Flavor.String(),
		"Accumulator", res.Accumulator,
		"Expected", res.Expected,
		"Setup", res.Setup,
		"Exec", res.Exec,
		"SimTime", res.SimTime,
		"Err", fmt.Sprint(res.Err),
	)

	return res
}

// RunIterations runs the workload Iterations times in the given mode. Every
// iteration must produce the same accumulator.
func (s *Scheduler) RunIterations(mode Mode) Result {
	var (
		first   Result
		setups  []time.Duration
		simTime float64
	)

	for i := 0; i < s.workload.Iterations; i++ {
		res := s.Run(mode)
		if i == 0 {
			first = res
		}

		first.ExecSamples = append(first.ExecSamples, res.Exec)
		setups = append(setups, res.Setup)
		simTime += res.SimTime

		if res.Err != nil {
			first.Err = res.Err
			break
		}

		if res.Accumulator != first.Accumulator {
			first.Err = newError(KindExecution, PhaseRetrieval, mode,
				fmt.Errorf("iteration %d counted %d matches, iteration 0 %d",
					i, res.Accumulator, first.Accumulator))
			break
		}
	}

	first.Exec = meanDuration(first.ExecSamples)
	first.Setup = meanDuration(setups)

	if n := len(setups); n > 0 {
		first.SimTime = simTime / float64(n)
	}

	return first
}

func meanDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range ds {
		sum += d
	}

	return sum / time.Duration(len(ds))
}

func (s *Scheduler) queue(name string) api.QueueID {
	q, ok := s.queues[name]
	if !ok {
		q = s.rt.NewQueue(name)
		s.queues[name] = q
	}

	return q
}

func (s *Scheduler) setup(r *run) error {
	pipes, err := s.rt.CreatePipes(
		s.workload.NumPipes, s.workload.PacketSize, s.capacity)
	if err != nil {
		return newError(KindResource, PhaseSetup, r.mode, err)
	}
	r.pipes = pipes

	r.src, err = s.rt.AllocBuffer("Input", len(s.input))
	if err != nil {
		return newError(KindResource, PhaseSetup, r.mode, err)
	}

	r.acc, err = s.rt.AllocBuffer("Accumulator", 1)
	if err != nil {
		return newError(KindResource, PhaseSetup, r.mode, err)
	}

	return nil
}

func (s *Scheduler) stage(r *run) error {
	q := s.queue("Host")

	s.rt.EnqueueWrite(q, r.src, s.input)
	s.rt.EnqueueFill(q, r.acc, 0)

	if err := s.rt.Finish(); err != nil {
		return newError(KindExecution, PhaseStaging, r.mode, err)
	}

	return nil
}

func (s *Scheduler) launch(
	r *run,
	role device.Role,
	p partition.Plan,
) device.Launch {
	l := device.Launch{
		Role:             role,
		Flavor:           s.workload.Flavor,
		Pipe:             r.pipes[p.Channel],
		Buffer:           r.src,
		Offset:           p.Offset,
		Reference:        s.workload.Reference,
		Groups:           p.Groups,
		GroupSize:        p.GroupSize,
		ItemsPerWorkItem: p.ItemsPerWorkItem,
	}

	if role == device.RoleConsumer {
		l.Buffer = r.acc
		l.Offset = 0
	}

	return l
}

func (s *Scheduler) enqueue(
	r *run,
	q api.QueueID,
	role device.Role,
	p partition.Plan,
) error {
	err := s.rt.EnqueueKernel(q, s.launch(r, role, p))
	if err != nil {
		return newError(KindExecution, PhaseExecution, r.mode,
			fmt.Errorf("channel %d %s: %w", p.Channel, role, err))
	}

	return nil
}

func (s *Scheduler) finish(r *run) error {
	if err := s.rt.Finish(); err != nil {
		return newError(KindExecution, PhaseExecution, r.mode, err)
	}

	return nil
}

func (s *Scheduler) execSequential(r *run) error {
	q := s.queue("Host")

	for _, p := range s.plans {
		if p.Items == 0 {
			continue
		}

		for _, role := range []device.Role{
			device.RoleProducer,
			device.RoleConsumer,
		} {
			if err := s.enqueue(r, q, role, p); err != nil {
				return err
			}

			if err := s.finish(r); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Scheduler) execConcurrent(r *run) error {
	streams, err := s.Streams()
	if err != nil {
		return err
	}

	for _, p := range s.plans {
		if p.Items == 0 {
			continue
		}

		stream := p.Channel % streams
		producerQ := s.queue(fmt.Sprintf("Producer[%d]", stream))
		consumerQ := s.queue(fmt.Sprintf("Consumer[%d]", stream))

		if err := s.enqueue(r, producerQ, device.RoleProducer, p); err != nil {
			return errors.Join(err, s.rt.Finish())
		}

		if err := s.enqueue(r, consumerQ, device.RoleConsumer, p); err != nil {
			return errors.Join(err, s.rt.Finish())
		}
	}

	return s.finish(r)
}

func (s *Scheduler) retrieve(r *run) (uint32, error) {
	dst := make([]uint32, 1)

	s.rt.EnqueueRead(s.queue("Host"), r.acc, dst)

	if err := s.rt.Finish(); err != nil {
		return 0, newError(KindExecution, PhaseRetrieval, r.mode, err)
	}

	return dst[0], nil
}

// abandon releases the objects of a failed run and keeps err first.
func (s *Scheduler) abandon(r *run, err error) error {
	if releaseErr := s.release(r); releaseErr != nil {
		return errors.Join(err, releaseErr)
	}

	return err
}

// release frees every device object of a run that was created.
func (s *Scheduler) release(r *run) error {
	var errs []error

	if r.pipes != nil {
		errs = append(errs, s.rt.ReleasePipes(r.pipes))
	}

	for _, buf := range []device.BufferHandle{r.src, r.acc} {
		if buf != nil {
			errs = append(errs, s.rt.FreeBuffer(buf))
		}
	}

	return errors.Join(errs...)
}
