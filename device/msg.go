package device

import "github.com/sarchlab/akita/v4/sim"

// LaunchKernelReq asks the device to run a kernel.
type LaunchKernelReq struct {
	sim.MsgMeta

	Launch Launch
}

// Meta returns the meta data of the msg.
func (m *LaunchKernelReq) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the msg with a new ID.
func (m *LaunchKernelReq) Clone() sim.Msg {
	clone := *m
	clone.ID = sim.GetIDGenerator().Generate()

	return &clone
}

// LaunchKernelReqBuilder is a factory for LaunchKernelReq.
type LaunchKernelReqBuilder struct {
	src, dst sim.RemotePort
	launch   Launch
}

// WithSrc sets the source port of the msg.
func (b LaunchKernelReqBuilder) WithSrc(src sim.RemotePort) LaunchKernelReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the msg.
func (b LaunchKernelReqBuilder) WithDst(dst sim.RemotePort) LaunchKernelReqBuilder {
	b.dst = dst
	return b
}

// WithLaunch sets the kernel launch to run.
func (b LaunchKernelReqBuilder) WithLaunch(launch Launch) LaunchKernelReqBuilder {
	b.launch = launch
	return b
}

// Build creates a LaunchKernelReq.
func (b LaunchKernelReqBuilder) Build() *LaunchKernelReq {
	return &LaunchKernelReq{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: b.src,
			Dst: b.dst,
		},
		Launch: b.launch,
	}
}

// KernelDoneRsp reports the completion of a kernel. Err is set if the kernel
// faulted.
type KernelDoneRsp struct {
	sim.MsgMeta

	RespondTo string
	Err       error
}

// Meta returns the meta data of the msg.
func (m *KernelDoneRsp) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the msg with a new ID.
func (m *KernelDoneRsp) Clone() sim.Msg {
	clone := *m
	clone.ID = sim.GetIDGenerator().Generate()

	return &clone
}

// KernelDoneRspBuilder is a factory for KernelDoneRsp.
type KernelDoneRspBuilder struct {
	src, dst  sim.RemotePort
	respondTo string
	err       error
}

// WithSrc sets the source port of the msg.
func (b KernelDoneRspBuilder) WithSrc(src sim.RemotePort) KernelDoneRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the msg.
func (b KernelDoneRspBuilder) WithDst(dst sim.RemotePort) KernelDoneRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request being answered.
func (b KernelDoneRspBuilder) WithRspTo(id string) KernelDoneRspBuilder {
	b.respondTo = id
	return b
}

// WithErr sets the fault the kernel ended with.
func (b KernelDoneRspBuilder) WithErr(err error) KernelDoneRspBuilder {
	b.err = err
	return b
}

// Build creates a KernelDoneRsp.
func (b KernelDoneRspBuilder) Build() *KernelDoneRsp {
	return &KernelDoneRsp{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: b.src,
			Dst: b.dst,
		},
		RespondTo: b.respondTo,
		Err:       b.err,
	}
}

// GetRspTo returns the ID of the request being answered.
func (m *KernelDoneRsp) GetRspTo() string {
	return m.RespondTo
}
