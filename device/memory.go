package device

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
)

const (
	memoryBaseAddr  uint64 = 0x1000
	memoryAlignment uint64 = 256
)

// BufferHandle identifies a global memory allocation. Buffers hold 32-bit
// words.
type BufferHandle interface {
	Name() string
	Addr() uint64
	Words() int
}

type buffer struct {
	name string
	addr uint64
	data []byte
}

func (b *buffer) Name() string { return b.name }
func (b *buffer) Addr() uint64 { return b.addr }
func (b *buffer) Words() int   { return len(b.data) / 4 }

func (b *buffer) word(i int) uint32 {
	return binary.LittleEndian.Uint32(b.data[4*i:])
}

func (b *buffer) contains(addr, size uint64) bool {
	return addr >= b.addr && addr+size <= b.addr+uint64(len(b.data))
}

// span is a free address range.
type span struct {
	addr, size uint64
}

// globalMemory hands out aligned address ranges over the device memory
// budget. A freed range goes back on a free list, kept sorted and coalesced,
// and is reused first fit before the top of the address space grows. Pipes
// draw from the same budget as buffers.
type globalMemory struct {
	lock sync.Mutex

	capacity uint64
	used     uint64
	nextAddr uint64
	holes    []span
	buffers  map[*buffer]bool
}

func newGlobalMemory(capacity uint64) *globalMemory {
	return &globalMemory{
		capacity: capacity,
		nextAddr: memoryBaseAddr,
		buffers:  make(map[*buffer]bool),
	}
}

func (m *globalMemory) reserve(bytes uint64) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.used+bytes > m.capacity {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrOutOfMemory, bytes, m.used, m.capacity)
	}

	m.used += bytes

	return nil
}

func (m *globalMemory) unreserve(bytes uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.used -= bytes
}

func (m *globalMemory) alloc(name string, words int) (*buffer, error) {
	if words <= 0 {
		return nil, fmt.Errorf("buffer %s: invalid size %d words", name, words)
	}

	size := uint64(words) * 4
	if err := m.reserve(size); err != nil {
		return nil, fmt.Errorf("buffer %s: %w", name, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	b := &buffer{
		name: name,
		addr: m.place(aligned(size)),
		data: make([]byte, size),
	}
	m.buffers[b] = true

	return b, nil
}

func aligned(size uint64) uint64 {
	return (size + memoryAlignment - 1) / memoryAlignment * memoryAlignment
}

func (m *globalMemory) place(size uint64) uint64 {
	for i := range m.holes {
		h := &m.holes[i]
		if h.size < size {
			continue
		}

		addr := h.addr
		h.addr += size
		h.size -= size

		if h.size == 0 {
			m.holes = slices.Delete(m.holes, i, i+1)
		}

		return addr
	}

	addr := m.nextAddr
	m.nextAddr += size

	return addr
}

func (m *globalMemory) release(addr, size uint64) {
	i, _ := slices.BinarySearchFunc(m.holes, addr,
		func(h span, a uint64) int {
			switch {
			case h.addr < a:
				return -1
			case h.addr > a:
				return 1
			default:
				return 0
			}
		})
	m.holes = slices.Insert(m.holes, i, span{addr: addr, size: size})

	if i+1 < len(m.holes) && m.holes[i].addr+m.holes[i].size == m.holes[i+1].addr {
		m.holes[i].size += m.holes[i+1].size
		m.holes = slices.Delete(m.holes, i+1, i+2)
	}

	if i > 0 && m.holes[i-1].addr+m.holes[i-1].size == m.holes[i].addr {
		m.holes[i-1].size += m.holes[i].size
		m.holes = slices.Delete(m.holes, i, i+1)
		i--
	}

	if last := m.holes[i]; i == len(m.holes)-1 && last.addr+last.size == m.nextAddr {
		m.nextAddr = last.addr
		m.holes = m.holes[:i]
	}
}

func (m *globalMemory) free(b *buffer) error {
	m.lock.Lock()
	if !m.buffers[b] {
		m.lock.Unlock()
		return fmt.Errorf("%w: buffer %s", ErrUnknownHandle, b.name)
	}
	delete(m.buffers, b)
	m.release(b.addr, aligned(uint64(len(b.data))))
	m.lock.Unlock()

	m.unreserve(uint64(len(b.data)))

	return nil
}

func (m *globalMemory) owns(b *buffer) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.buffers[b]
}

func (m *globalMemory) find(addr, size uint64) *buffer {
	for b := range m.buffers {
		if b.contains(addr, size) {
			return b
		}
	}

	return nil
}

func (m *globalMemory) write(addr uint64, data []byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	b := m.find(addr, uint64(len(data)))
	if b == nil {
		panic(fmt.Sprintf("write of %d bytes at 0x%x is out of bounds",
			len(data), addr))
	}

	copy(b.data[addr-b.addr:], data)
}

func (m *globalMemory) read(addr, size uint64) []byte {
	m.lock.Lock()
	defer m.lock.Unlock()

	b := m.find(addr, size)
	if b == nil {
		panic(fmt.Sprintf("read of %d bytes at 0x%x is out of bounds",
			size, addr))
	}

	data := make([]byte, size)
	copy(data, b.data[addr-b.addr:])

	return data
}

// atomicAdd adds v to word i of b as one indivisible update.
func (m *globalMemory) atomicAdd(b *buffer, i int, v uint32) uint32 {
	m.lock.Lock()
	defer m.lock.Unlock()

	sum := b.word(i) + v
	binary.LittleEndian.PutUint32(b.data[4*i:], sum)

	return sum
}
