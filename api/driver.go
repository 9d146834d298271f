// Package api defines the host driver of the simulated accelerator.
package api

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"
	"github.com/sarchlab/simplepipe/device"
)

// ErrStalled is returned by Finish when the simulation ran out of events
// while commands were still in flight.
var ErrStalled = errors.New("device stalled")

// A Device is the accelerator a driver controls.
type Device interface {
	Name() string
	HostPort() sim.Port
	Info() device.Info

	CreatePipe(name string, packetSize, capacity int) (device.PipeHandle, error)
	ReleasePipe(p device.PipeHandle) error
	Alloc(name string, words int) (device.BufferHandle, error)
	Free(b device.BufferHandle) error
	ValidateLaunch(l device.Launch) error

	// Abort drops every kernel still running on the device.
	Abort()
}

// QueueID identifies a command queue.
type QueueID int

// Driver provides the interface to control an accelerator.
type Driver interface {
	sim.Component

	// RegisterDevice registers a device to the driver. The driver will
	// establish connections to the device.
	RegisterDevice(dev Device)

	// DeviceInfo returns the capabilities of the registered device.
	DeviceInfo() device.Info

	// CreatePipes creates count pipes. Either all pipes are created or none.
	CreatePipes(count, packetSize, capacity int) ([]device.PipeHandle, error)

	// ReleasePipes destroys pipes, reporting pipes that still hold packets.
	ReleasePipes(pipes []device.PipeHandle) error

	// AllocBuffer allocates a buffer of words 32-bit words on the device.
	AllocBuffer(name string, words int) (device.BufferHandle, error)

	// FreeBuffer releases a buffer.
	FreeBuffer(buf device.BufferHandle) error

	// NewQueue creates an in-order command queue.
	NewQueue(name string) QueueID

	// EnqueueWrite copies data into buf.
	EnqueueWrite(q QueueID, buf device.BufferHandle, data []uint32)

	// EnqueueFill sets every word of buf to value.
	EnqueueFill(q QueueID, buf device.BufferHandle, value uint32)

	// EnqueueKernel launches a kernel once the earlier commands of q are
	// complete.
	EnqueueKernel(q QueueID, launch device.Launch) error

	// EnqueueRead copies buf into dst.
	EnqueueRead(q QueueID, buf device.BufferHandle, dst []uint32)

	// Finish runs the simulation until every queue is empty.
	Finish() error

	// Now returns the current simulated time in seconds.
	Now() float64
}

type command struct {
	queue *queue
	kind  string

	buf    device.BufferHandle
	data   []uint32
	dst    []uint32
	launch device.Launch

	err error
}

type queue struct {
	id   QueueID
	name string

	commands []*command
	issued   bool
}

type driverImpl struct {
	*sim.TickingComponent

	dev         Device
	devicePort  sim.Port
	portFactory portFactory

	queues   []*queue
	inflight map[string]*command
	errs     []error
}

// Tick runs the driver for one cycle.
func (d *driverImpl) Tick() (madeProgress bool) {
	madeProgress = d.collect() || madeProgress
	madeProgress = d.issue() || madeProgress

	return madeProgress
}

func (d *driverImpl) issue() bool {
	madeProgress := false

	for _, q := range d.queues {
		if q.issued || len(q.commands) == 0 {
			continue
		}

		cmd := q.commands[0]
		msg := d.buildMsg(cmd)

		if err := d.devicePort.Send(msg); err != nil {
			break
		}

		q.issued = true
		d.inflight[msg.Meta().ID] = cmd
		madeProgress = true

		device.Trace("Command",
			"Behavior", "Issue",
			"Queue", q.name,
			"Kind", cmd.kind,
			"Time", d.Now(),
		)
	}

	return madeProgress
}

func (d *driverImpl) buildMsg(cmd *command) sim.Msg {
	src := d.devicePort.AsRemote()
	dst := d.dev.HostPort().AsRemote()

	switch cmd.kind {
	case "write":
		return mem.WriteReqBuilder{}.
			WithSrc(src).
			WithDst(dst).
			WithAddress(cmd.buf.Addr()).
			WithData(device.EncodeWords(cmd.data)).
			Build()
	case "read":
		return mem.ReadReqBuilder{}.
			WithSrc(src).
			WithDst(dst).
			WithAddress(cmd.buf.Addr()).
			WithByteSize(uint64(4 * len(cmd.dst))).
			Build()
	case "kernel":
		return device.LaunchKernelReqBuilder{}.
			WithSrc(src).
			WithDst(dst).
			WithLaunch(cmd.launch).
			Build()
	default:
		panic("unknown command " + cmd.kind)
	}
}

func (d *driverImpl) collect() bool {
	madeProgress := false

	for {
		msg := d.devicePort.RetrieveIncoming()
		if msg == nil {
			break
		}

		var rspTo string

		switch rsp := msg.(type) {
		case *mem.WriteDoneRsp:
			rspTo = rsp.RespondTo
		case *mem.DataReadyRsp:
			rspTo = rsp.RespondTo
			cmd := d.inflight[rspTo]
			copy(cmd.dst, device.DecodeWords(rsp.Data))
		case *device.KernelDoneRsp:
			rspTo = rsp.RespondTo
			d.inflight[rspTo].err = rsp.Err
		default:
			panic(fmt.Sprintf("cannot handle response of type %T", msg))
		}

		d.completeCommand(rspTo)
		madeProgress = true
	}

	return madeProgress
}

func (d *driverImpl) completeCommand(rspTo string) {
	cmd, ok := d.inflight[rspTo]
	if !ok {
		panic("response to unknown request " + rspTo)
	}

	delete(d.inflight, rspTo)

	q := cmd.queue
	q.commands = q.commands[1:]
	q.issued = false

	if cmd.err != nil {
		d.errs = append(d.errs,
			fmt.Errorf("queue %s: %s: %w", q.name, cmd.kind, cmd.err))
	}

	device.Trace("Command",
		"Behavior", "Complete",
		"Queue", q.name,
		"Kind", cmd.kind,
		"Time", d.Now(),
	)
}

// RegisterDevice registers a device to the driver. The driver will
// establish connections to the device.
func (d *driverImpl) RegisterDevice(dev Device) {
	d.dev = dev

	d.devicePort = d.portFactory.make(d, d.Name()+".DevicePort")
	d.AddPort("DevicePort", d.devicePort)

	conn := directconnection.MakeBuilder().
		WithEngine(d.Engine).
		WithFreq(d.Freq).
		Build(d.Name() + "." + dev.Name() + ".Conn")
	conn.PlugIn(d.devicePort)
	conn.PlugIn(dev.HostPort())
}

func (d *driverImpl) DeviceInfo() device.Info {
	return d.dev.Info()
}

func (d *driverImpl) CreatePipes(
	count, packetSize, capacity int,
) ([]device.PipeHandle, error) {
	pipes := make([]device.PipeHandle, 0, count)

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s.Pipe[%d]", d.dev.Name(), i)

		p, err := d.dev.CreatePipe(name, packetSize, capacity)
		if err != nil {
			for _, created := range pipes {
				_ = d.dev.ReleasePipe(created)
			}

			return nil, err
		}

		pipes = append(pipes, p)
	}

	return pipes, nil
}

func (d *driverImpl) ReleasePipes(pipes []device.PipeHandle) error {
	var errs []error

	for _, p := range pipes {
		if err := d.dev.ReleasePipe(p); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (d *driverImpl) AllocBuffer(
	name string,
	words int,
) (device.BufferHandle, error) {
	return d.dev.Alloc(name, words)
}

func (d *driverImpl) FreeBuffer(buf device.BufferHandle) error {
	return d.dev.Free(buf)
}

func (d *driverImpl) NewQueue(name string) QueueID {
	q := &queue{
		id:   QueueID(len(d.queues)),
		name: name,
	}
	d.queues = append(d.queues, q)

	return q.id
}

func (d *driverImpl) queue(id QueueID) *queue {
	if int(id) < 0 || int(id) >= len(d.queues) {
		panic(fmt.Sprintf("queue %d does not exist", id))
	}

	return d.queues[id]
}

func (d *driverImpl) enqueue(id QueueID, cmd *command) {
	q := d.queue(id)
	cmd.queue = q
	q.commands = append(q.commands, cmd)

	d.TickLater()
}

func (d *driverImpl) EnqueueWrite(
	q QueueID,
	buf device.BufferHandle,
	data []uint32,
) {
	bufMustHoldWords(buf, len(data))

	d.enqueue(q, &command{
		kind: "write",
		buf:  buf,
		data: append([]uint32(nil), data...),
	})
}

func (d *driverImpl) EnqueueFill(
	q QueueID,
	buf device.BufferHandle,
	value uint32,
) {
	data := make([]uint32, buf.Words())
	for i := range data {
		data[i] = value
	}

	d.enqueue(q, &command{
		kind: "write",
		buf:  buf,
		data: data,
	})
}

func (d *driverImpl) EnqueueKernel(q QueueID, launch device.Launch) error {
	if err := d.dev.ValidateLaunch(launch); err != nil {
		return err
	}

	d.enqueue(q, &command{
		kind:   "kernel",
		launch: launch,
	})

	return nil
}

func (d *driverImpl) EnqueueRead(
	q QueueID,
	buf device.BufferHandle,
	dst []uint32,
) {
	bufMustHoldWords(buf, len(dst))

	d.enqueue(q, &command{
		kind: "read",
		buf:  buf,
		dst:  dst,
	})
}

func bufMustHoldWords(buf device.BufferHandle, words int) {
	if words > buf.Words() {
		panic(fmt.Sprintf("%d words do not fit in buffer %s of %d words",
			words, buf.Name(), buf.Words()))
	}
}

// Finish runs the simulation until all the queues are drained.
func (d *driverImpl) Finish() error {
	d.TickLater()
	d.Engine.Run()

	errs := d.errs
	d.errs = nil

	stalled := 0
	for _, q := range d.queues {
		stalled += len(q.commands)
		q.commands = nil
		q.issued = false
	}

	if stalled > 0 {
		d.dev.Abort()
		errs = append(errs, fmt.Errorf("%w: %d commands did not complete",
			ErrStalled, stalled))
	}

	d.inflight = make(map[string]*command)

	return errors.Join(errs...)
}

func (d *driverImpl) Now() float64 {
	return float64(d.Engine.CurrentTime())
}
