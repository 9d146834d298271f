package device

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// workGroup tracks the progress of one work-group of a kernel instance.
type workGroup struct {
	id      int
	size    int
	perItem int

	done    []int
	matches []uint32
}

func newWorkGroup(id, size, perItem int) *workGroup {
	return &workGroup{
		id:      id,
		size:    size,
		perItem: perItem,
		done:    make([]int, size),
		matches: make([]uint32, size),
	}
}

// index returns the channel-relative packet index of the next packet of
// work-item wi. Consecutive work-items touch consecutive packets.
func (wg *workGroup) index(wi int) int {
	return wg.id*wg.size*wg.perItem + wg.done[wi]*wg.size + wi
}

func (wg *workGroup) remaining(wi int) int {
	return wg.perItem - wg.done[wi]
}

func (wg *workGroup) advance(wi int) {
	wg.done[wi]++
}

func (wg *workGroup) advanceAll() {
	for wi := range wg.done {
		wg.done[wi]++
	}
}

func (wg *workGroup) finished() bool {
	for _, d := range wg.done {
		if d < wg.perItem {
			return false
		}
	}

	return true
}

// reduce sums the per work-item match counters.
func (wg *workGroup) reduce() uint32 {
	var sum uint32
	for _, m := range wg.matches {
		sum += m
	}

	return sum
}

// kernelInstance is one launch in flight on the device.
type kernelInstance struct {
	reqID     string
	requester sim.RemotePort
	launch    Launch

	pipe     *pipe
	buf      *buffer
	transfer pipeTransfer

	pending  []*workGroup
	active   []*workGroup
	finished int

	err error
}

func newKernelInstance(
	reqID string,
	requester sim.RemotePort,
	launch Launch,
	p *pipe,
	b *buffer,
) *kernelInstance {
	k := &kernelInstance{
		reqID:     reqID,
		requester: requester,
		launch:    launch,
		pipe:      p,
		buf:       b,
		transfer:  transferFor(launch.Flavor),
	}

	for g := 0; g < launch.Groups; g++ {
		k.pending = append(k.pending,
			newWorkGroup(g, launch.GroupSize, launch.ItemsPerWorkItem))
	}

	return k
}

func (k *kernelInstance) done() bool {
	return k.err != nil ||
		(len(k.pending) == 0 && len(k.active) == 0)
}

func (k *kernelInstance) fail(err error) {
	if k.err == nil {
		k.err = err
	}
}

// step lets one resident work-group make one pipe access and returns the
// number of packets moved.
func (k *kernelInstance) step(wg *workGroup) int {
	switch k.launch.Role {
	case RoleProducer:
		return k.transfer.push(k.pipe, wg, func(wi int) []byte {
			v := k.buf.word(k.launch.Offset + wg.index(wi))
			return makePacket(k.pipe.packetSize, v)
		})
	case RoleConsumer:
		n := k.transfer.pop(k.pipe, wg, func(wi int, pkt []byte) {
			if packetValue(pkt) == k.launch.Reference {
				wg.matches[wi]++
			}
		})

		if n == 0 && !wg.finished() && k.pipe.starved(k.transfer.need(wg)) {
			k.fail(fmt.Errorf("%w: %s has %d packets, group %d needs %d more",
				ErrPipeDrained, k.pipe.name, k.pipe.size(),
				wg.id, wg.size*wg.perItem-sumDone(wg)))
		}

		return n
	default:
		panic("unknown role")
	}
}

func sumDone(wg *workGroup) int {
	total := 0
	for _, d := range wg.done {
		total += d
	}

	return total
}
