package device

import "github.com/sarchlab/akita/v4/sim"

// Builder can create new devices.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	info   Info
}

// NewBuilder returns a builder with the default device parameters.
func NewBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
		info: Info{
			ComputeUnits:        8,
			SlotsPerComputeUnit: 4,
			MaxWorkGroupSize:    256,
			MaxAlignmentBits:    1024,
			MemoryBytes:         256 << 20,
		},
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the device.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithComputeUnits sets the number of compute units.
func (b Builder) WithComputeUnits(n int) Builder {
	if n < 1 {
		panic("need at least one compute unit")
	}

	b.info.ComputeUnits = n

	return b
}

// WithSlotsPerComputeUnit sets how many work-groups a compute unit can hold.
func (b Builder) WithSlotsPerComputeUnit(n int) Builder {
	if n < 1 {
		panic("need at least one work-group slot per compute unit")
	}

	b.info.SlotsPerComputeUnit = n

	return b
}

// WithMaxWorkGroupSize sets the largest work-group size.
func (b Builder) WithMaxWorkGroupSize(n int) Builder {
	b.info.MaxWorkGroupSize = n
	return b
}

// WithMaxAlignmentBits sets the size of the largest built-in data type.
func (b Builder) WithMaxAlignmentBits(bits int) Builder {
	b.info.MaxAlignmentBits = bits
	return b
}

// WithMemoryBytes sets the size of global memory.
func (b Builder) WithMemoryBytes(bytes uint64) Builder {
	b.info.MemoryBytes = bytes
	return b
}

// Build creates a device.
func (b Builder) Build(name string) *Device {
	if b.engine == nil {
		panic("engine is not set")
	}

	d := &Device{
		info:   b.info,
		memory: newGlobalMemory(b.info.MemoryBytes),
		pipes:  make(map[*pipe]bool),
	}
	d.info.Name = name
	d.freeSlots = b.info.WorkGroupSlots()

	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	d.hostPort = sim.NewPort(d, 64, 64, name+".HostPort")
	d.AddPort("HostPort", d.hostPort)

	return d
}
