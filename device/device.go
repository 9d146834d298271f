// Package device models an accelerator that runs pipe producer and consumer
// kernels.
//
// The device is a single ticking component. It owns global memory, the
// pipes, and the work-group slots of its compute units. The host reaches it
// through HostPort, using akita memory requests for buffer copies and
// LaunchKernelReq for kernel launches. Pipes are only visible to the host as
// PipeHandle values: packets can be moved only by kernels.
package device

import (
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
)

// Device is a simulated accelerator.
type Device struct {
	*sim.TickingComponent

	info     Info
	hostPort sim.Port

	memory    *globalMemory
	pipes     map[*pipe]bool
	pipeHooks []sim.Hook

	freeSlots int
	kernels   []*kernelInstance

	pendingRsps []sim.Msg
}

// Info returns the capabilities of the device.
func (d *Device) Info() Info {
	return d.info
}

// HostPort returns the port the host driver connects to.
func (d *Device) HostPort() sim.Port {
	return d.hostPort
}

// AcceptPipeHook registers a hook that is attached to every pipe created
// afterwards.
func (d *Device) AcceptPipeHook(hook sim.Hook) {
	d.pipeHooks = append(d.pipeHooks, hook)
}

// CreatePipe allocates a pipe of capacity packets of packetSize bytes.
func (d *Device) CreatePipe(
	name string,
	packetSize, capacity int,
) (PipeHandle, error) {
	if packetSize <= 0 || packetSize%4 != 0 {
		return nil, fmt.Errorf("%w: %s: packet size %d is not a multiple of 4",
			ErrInvalidPipe, name, packetSize)
	}

	if packetSize > d.info.MaxPacketSize() {
		return nil, fmt.Errorf("%w: %s: packet size %d exceeds %d-bit alignment",
			ErrInvalidPipe, name, packetSize, d.info.MaxAlignmentBits)
	}

	if capacity < 1 {
		return nil, fmt.Errorf("%w: %s: capacity %d",
			ErrInvalidPipe, name, capacity)
	}

	if err := d.memory.reserve(uint64(packetSize) * uint64(capacity)); err != nil {
		return nil, fmt.Errorf("pipe %s: %w", name, err)
	}

	p := newPipe(name, packetSize, capacity)
	for _, h := range d.pipeHooks {
		p.AcceptHook(h)
	}
	d.pipes[p] = true

	Trace("Pipe",
		"Behavior", "Create",
		"Pipe", name,
		"PacketSize", packetSize,
		"Capacity", capacity,
	)

	return p, nil
}

// ReleasePipe destroys a pipe. Every packet written into the pipe must have
// been read.
func (d *Device) ReleasePipe(h PipeHandle) error {
	p, err := d.lookupPipe(h)
	if err != nil {
		return err
	}

	delete(d.pipes, p)
	d.memory.unreserve(uint64(p.packetSize) * uint64(p.Capacity()))

	Trace("Pipe",
		"Behavior", "Release",
		"Pipe", p.name,
		"Pushed", p.pushed,
		"Popped", p.popped,
	)

	if p.pushed != p.popped {
		return fmt.Errorf("%w: %s: %d packets written, %d read",
			ErrPipeNotDrained, p.name, p.pushed, p.popped)
	}

	return nil
}

// Alloc allocates a buffer of words 32-bit words in global memory.
func (d *Device) Alloc(name string, words int) (BufferHandle, error) {
	return d.memory.alloc(name, words)
}

// Free releases a buffer.
func (d *Device) Free(h BufferHandle) error {
	b, ok := h.(*buffer)
	if !ok {
		return fmt.Errorf("%w: buffer %v", ErrUnknownHandle, h)
	}

	return d.memory.free(b)
}

// ValidateLaunch checks that a launch can run on the device.
func (d *Device) ValidateLaunch(l Launch) error {
	_, _, err := d.resolveLaunch(l)
	return err
}

func (d *Device) lookupPipe(h PipeHandle) (*pipe, error) {
	p, ok := h.(*pipe)
	if !ok || !d.pipes[p] {
		return nil, fmt.Errorf("%w: pipe %v", ErrUnknownHandle, h)
	}

	return p, nil
}

func (d *Device) resolveLaunch(l Launch) (*pipe, *buffer, error) {
	if l.Groups < 0 || l.GroupSize < 1 || l.ItemsPerWorkItem < 1 {
		return nil, nil, fmt.Errorf("%w: %s: %d groups of %d x %d",
			ErrInvalidLaunch, l.name(), l.Groups, l.GroupSize, l.ItemsPerWorkItem)
	}

	if l.GroupSize > d.info.MaxWorkGroupSize {
		return nil, nil, fmt.Errorf("%w: %s: work-group size %d above %d",
			ErrInvalidLaunch, l.name(), l.GroupSize, d.info.MaxWorkGroupSize)
	}

	if l.Flavor != FlavorWorkGroup && l.Flavor != FlavorWorkItem {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidLaunch, l.name())
	}

	p, err := d.lookupPipe(l.Pipe)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInvalidLaunch, l.name(), err)
	}

	b, ok := l.Buffer.(*buffer)
	if !ok || !d.memory.owns(b) {
		return nil, nil, fmt.Errorf("%w: %s: %w",
			ErrInvalidLaunch, l.name(), ErrUnknownHandle)
	}

	switch l.Role {
	case RoleProducer:
		if l.Offset < 0 || l.Offset+l.Items() > b.Words() {
			return nil, nil, fmt.Errorf(
				"%w: %s: source range [%d, %d) outside %s of %d words",
				ErrInvalidLaunch, l.name(), l.Offset, l.Offset+l.Items(),
				b.name, b.Words())
		}
	case RoleConsumer:
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidLaunch, l.name())
	}

	return p, b, nil
}

// Tick runs the device for one cycle.
func (d *Device) Tick() (madeProgress bool) {
	madeProgress = d.sendResponses() || madeProgress
	madeProgress = d.runWorkGroups() || madeProgress
	madeProgress = d.completeKernels() || madeProgress
	madeProgress = d.dispatchWorkGroups() || madeProgress
	madeProgress = d.handleRequests() || madeProgress

	return madeProgress
}

func (d *Device) sendResponses() bool {
	madeProgress := false

	for len(d.pendingRsps) > 0 {
		err := d.hostPort.Send(d.pendingRsps[0])
		if err != nil {
			break
		}

		d.pendingRsps = d.pendingRsps[1:]
		madeProgress = true
	}

	return madeProgress
}

func (d *Device) runWorkGroups() bool {
	madeProgress := false

	for _, k := range d.kernels {
		stillActive := k.active[:0]

		for _, wg := range k.active {
			if k.err != nil {
				stillActive = append(stillActive, wg)
				continue
			}

			if k.step(wg) > 0 {
				madeProgress = true
			}

			if !wg.finished() {
				stillActive = append(stillActive, wg)
				continue
			}

			d.retireWorkGroup(k, wg)
			madeProgress = true
		}

		k.active = stillActive

		if k.err != nil {
			madeProgress = true
		}
	}

	return madeProgress
}

func (d *Device) retireWorkGroup(k *kernelInstance, wg *workGroup) {
	if k.launch.Role == RoleConsumer {
		d.memory.atomicAdd(k.buf, 0, wg.reduce())
	}

	k.finished++
	d.freeSlots++
}

func (d *Device) completeKernels() bool {
	madeProgress := false
	running := d.kernels[:0]

	for _, k := range d.kernels {
		if !k.done() {
			running = append(running, k)
			continue
		}

		d.freeSlots += len(k.active)
		k.active = nil
		k.pending = nil

		if k.launch.Role == RoleProducer {
			k.pipe.detachWriter()
		}

		Trace("Kernel",
			"Behavior", "Complete",
			"Kernel", k.launch.name(),
			"Time", float64(d.Engine.CurrentTime()),
			"Groups", k.finished,
			"Err", fmt.Sprint(k.err),
		)

		rsp := KernelDoneRspBuilder{}.
			WithSrc(d.hostPort.AsRemote()).
			WithDst(k.requester).
			WithRspTo(k.reqID).
			WithErr(k.err).
			Build()
		d.pendingRsps = append(d.pendingRsps, rsp)
		madeProgress = true
	}

	d.kernels = running

	return madeProgress
}

// dispatchWorkGroups places work-groups on free slots in kernel arrival
// order. A kernel never overtakes an earlier kernel that still has groups to
// place.
func (d *Device) dispatchWorkGroups() bool {
	madeProgress := false

	for _, k := range d.kernels {
		for len(k.pending) > 0 && d.freeSlots > 0 {
			k.active = append(k.active, k.pending[0])
			k.pending = k.pending[1:]
			d.freeSlots--
			madeProgress = true
		}

		if len(k.pending) > 0 {
			break
		}
	}

	return madeProgress
}

func (d *Device) handleRequests() bool {
	madeProgress := false

	for {
		msg := d.hostPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		switch req := msg.(type) {
		case *mem.WriteReq:
			d.handleWriteReq(req)
		case *mem.ReadReq:
			d.handleReadReq(req)
		case *LaunchKernelReq:
			d.handleLaunchKernelReq(req)
		default:
			panic(fmt.Sprintf("cannot handle request of type %T", msg))
		}

		madeProgress = true
	}

	return madeProgress
}

func (d *Device) handleWriteReq(req *mem.WriteReq) {
	d.memory.write(req.Address, req.Data)

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(d.hostPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		Build()
	d.pendingRsps = append(d.pendingRsps, rsp)
}

func (d *Device) handleReadReq(req *mem.ReadReq) {
	data := d.memory.read(req.Address, req.AccessByteSize)

	rsp := mem.DataReadyRspBuilder{}.
		WithSrc(d.hostPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(data).
		Build()
	d.pendingRsps = append(d.pendingRsps, rsp)
}

func (d *Device) handleLaunchKernelReq(req *LaunchKernelReq) {
	p, b, err := d.resolveLaunch(req.Launch)

	if err != nil {
		rsp := KernelDoneRspBuilder{}.
			WithSrc(d.hostPort.AsRemote()).
			WithDst(req.Src).
			WithRspTo(req.ID).
			WithErr(err).
			Build()
		d.pendingRsps = append(d.pendingRsps, rsp)

		return
	}

	k := newKernelInstance(req.ID, req.Src, req.Launch, p, b)
	if req.Launch.Role == RoleProducer {
		p.attachWriter()
	}

	d.kernels = append(d.kernels, k)

	Trace("Kernel",
		"Behavior", "Launch",
		"Kernel", req.Launch.name(),
		"Time", float64(d.Engine.CurrentTime()),
		"Groups", req.Launch.Groups,
		"GroupSize", req.Launch.GroupSize,
		"ItemsPerWorkItem", req.Launch.ItemsPerWorkItem,
	)
}

// Abort drops every kernel on the device and frees their work-group slots.
// Pipes keep the packets already written.
func (d *Device) Abort() {
	for _, k := range d.kernels {
		if k.launch.Role == RoleProducer {
			k.pipe.detachWriter()
		}

		Trace("Kernel",
			"Behavior", "Abort",
			"Kernel", k.launch.name(),
			"Time", float64(d.Engine.CurrentTime()),
		)
	}

	d.kernels = nil
	d.pendingRsps = nil
	d.freeSlots = d.info.WorkGroupSlots()
}
