package device

// pipeTransfer is the strategy a kernel flavor uses to move packets between
// its work-items and a pipe. Both strategies move the same packets; they only
// differ in how a full or empty pipe stalls the work-items.
type pipeTransfer interface {
	// push offers the next packet of every unfinished work-item and returns
	// the number of packets written.
	push(p *pipe, wg *workGroup, packet func(wi int) []byte) int

	// pop reads the next packet of every unfinished work-item, hands each
	// to sink, and returns the number of packets read.
	pop(p *pipe, wg *workGroup, sink func(wi int, pkt []byte)) int

	// need is the number of buffered packets a blocked reader waits for.
	need(wg *workGroup) int
}

func transferFor(f Flavor) pipeTransfer {
	switch f {
	case FlavorWorkItem:
		return workItemTransfer{}
	case FlavorWorkGroup:
		return workGroupTransfer{}
	default:
		panic("unknown flavor")
	}
}

// workItemTransfer is write_pipe/read_pipe: a work-item that finds the pipe
// full or empty retries on the next cycle while its siblings go on.
type workItemTransfer struct{}

func (workItemTransfer) push(
	p *pipe,
	wg *workGroup,
	packet func(wi int) []byte,
) int {
	n := 0

	for wi := 0; wi < wg.size; wi++ {
		if wg.remaining(wi) == 0 {
			continue
		}

		if !p.write(packet(wi)) {
			break
		}

		wg.advance(wi)
		n++
	}

	return n
}

func (workItemTransfer) pop(
	p *pipe,
	wg *workGroup,
	sink func(wi int, pkt []byte),
) int {
	n := 0

	for wi := 0; wi < wg.size; wi++ {
		if wg.remaining(wi) == 0 {
			continue
		}

		pkt, ok := p.read()
		if !ok {
			break
		}

		sink(wi, pkt)
		wg.advance(wi)
		n++
	}

	return n
}

func (workItemTransfer) need(*workGroup) int {
	return 1
}

// workGroupTransfer is work_group_reserve_*_pipe followed by a commit: the
// whole group moves one packet per work-item, or nothing.
type workGroupTransfer struct{}

func (workGroupTransfer) push(
	p *pipe,
	wg *workGroup,
	packet func(wi int) []byte,
) int {
	if wg.finished() {
		return 0
	}

	pkts := make([][]byte, wg.size)
	for wi := range pkts {
		pkts[wi] = packet(wi)
	}

	if !p.writeAll(pkts) {
		return 0
	}

	wg.advanceAll()

	return len(pkts)
}

func (workGroupTransfer) pop(
	p *pipe,
	wg *workGroup,
	sink func(wi int, pkt []byte),
) int {
	if wg.finished() {
		return 0
	}

	pkts, ok := p.readAll(wg.size)
	if !ok {
		return 0
	}

	for wi, pkt := range pkts {
		sink(wi, pkt)
	}

	wg.advanceAll()

	return len(pkts)
}

func (workGroupTransfer) need(wg *workGroup) int {
	return wg.size
}
