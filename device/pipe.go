package device

import (
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/sim"
)

// HookPosPipePush marks a packet being written into a pipe.
var HookPosPipePush = &sim.HookPos{Name: "Pipe Push"}

// HookPosPipePop marks a packet being read out of a pipe.
var HookPosPipePop = &sim.HookPos{Name: "Pipe Pop"}

// A PipeHandle is the host view of a pipe. The host can create, release and
// bind a pipe to kernels, and may observe it through hooks, but it cannot read
// or write packets.
type PipeHandle interface {
	Name() string
	PacketSize() int
	Capacity() int
	AcceptHook(hook sim.Hook)
}

// pipe is a bounded FIFO of fixed-size packets that lives in device memory.
type pipe struct {
	*sim.HookableBase

	name       string
	packetSize int
	buf        sim.Buffer

	pushed, popped uint64

	// Producer kernels bound to the pipe that are running and that have
	// completed.
	activeWriters   int
	finishedWriters int
}

func newPipe(name string, packetSize, capacity int) *pipe {
	return &pipe{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		packetSize:   packetSize,
		buf:          sim.NewBuffer(name+".Buf", capacity),
	}
}

func (p *pipe) Name() string    { return p.name }
func (p *pipe) PacketSize() int { return p.packetSize }
func (p *pipe) Capacity() int   { return p.buf.Capacity() }

func (p *pipe) size() int {
	return p.buf.Size()
}

func (p *pipe) space() int {
	return p.buf.Capacity() - p.buf.Size()
}

func (p *pipe) write(pkt []byte) bool {
	if !p.buf.CanPush() {
		return false
	}

	p.push(pkt)

	return true
}

// writeAll writes all packets or none of them.
func (p *pipe) writeAll(pkts [][]byte) bool {
	if p.space() < len(pkts) {
		return false
	}

	for _, pkt := range pkts {
		p.push(pkt)
	}

	return true
}

func (p *pipe) push(pkt []byte) {
	if len(pkt) != p.packetSize {
		panic(fmt.Sprintf("pipe %s: packet of %d bytes, want %d",
			p.name, len(pkt), p.packetSize))
	}

	p.buf.Push(pkt)
	p.pushed++

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosPipePush,
		Item:   pkt,
	})
}

func (p *pipe) read() ([]byte, bool) {
	if p.buf.Size() == 0 {
		return nil, false
	}

	return p.pop(), true
}

// readAll reads n packets or none of them.
func (p *pipe) readAll(n int) ([][]byte, bool) {
	if p.buf.Size() < n {
		return nil, false
	}

	pkts := make([][]byte, n)
	for i := range pkts {
		pkts[i] = p.pop()
	}

	return pkts, true
}

func (p *pipe) pop() []byte {
	pkt := p.buf.Pop().([]byte)
	p.popped++

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosPipePop,
		Item:   pkt,
	})

	return pkt
}

func (p *pipe) attachWriter() {
	p.activeWriters++
}

func (p *pipe) detachWriter() {
	p.activeWriters--
	p.finishedWriters++
}

// starved tells if a reader that needs n packets can never be served: fewer
// than n packets are buffered and every producer bound so far has completed.
func (p *pipe) starved(n int) bool {
	return p.buf.Size() < n && p.activeWriters == 0 && p.finishedWriters > 0
}

// PipeTracer is a hook that counts and traces the packets that pass through
// the pipes it is attached to.
type PipeTracer struct {
	lock   sync.Mutex
	pushes map[string]uint64
	pops   map[string]uint64
	trace  bool
}

// NewPipeTracer creates a PipeTracer. If trace is set every packet is also
// logged at LevelTrace.
func NewPipeTracer(trace bool) *PipeTracer {
	return &PipeTracer{
		pushes: make(map[string]uint64),
		pops:   make(map[string]uint64),
		trace:  trace,
	}
}

// Func implements sim.Hook.
func (t *PipeTracer) Func(ctx sim.HookCtx) {
	p, ok := ctx.Domain.(*pipe)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	behavior := ""
	switch ctx.Pos {
	case HookPosPipePush:
		t.pushes[p.name]++
		behavior = "Push"
	case HookPosPipePop:
		t.pops[p.name]++
		behavior = "Pop"
	default:
		return
	}

	if t.trace {
		Trace("Pipe",
			"Behavior", behavior,
			"Pipe", p.name,
			"Value", packetValue(ctx.Item.([]byte)),
			"Size", p.buf.Size(),
		)
	}
}

// Pushes returns the number of packets written into the named pipe.
func (t *PipeTracer) Pushes(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.pushes[name]
}

// Pops returns the number of packets read from the named pipe.
func (t *PipeTracer) Pops(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.pops[name]
}
