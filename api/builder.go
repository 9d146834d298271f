package api

import "github.com/sarchlab/akita/v4/sim"

const defaultPortBufferSize = 64

type portFactory interface {
	make(c sim.Component, name string) sim.Port
}

type defaultPortFactory struct {
	bufferSize int
}

func (f defaultPortFactory) make(c sim.Component, name string) sim.Port {
	return sim.NewPort(c, f.bufferSize, f.bufferSize, name)
}

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	engine         sim.Engine
	freq           sim.Freq
	portBufferSize int
}

// WithEngine sets the engine.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the driver.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithPortBufferSize sets how many messages the port facing the device can
// hold in each direction.
func (b DriverBuilder) WithPortBufferSize(n int) DriverBuilder {
	b.portBufferSize = n
	return b
}

// Build creates a driver. The device must be attached with RegisterDevice
// before any command is enqueued.
func (b DriverBuilder) Build(name string) Driver {
	if b.engine == nil {
		panic("engine is not set")
	}

	bufferSize := b.portBufferSize
	if bufferSize <= 0 {
		bufferSize = defaultPortBufferSize
	}

	d := &driverImpl{
		portFactory: defaultPortFactory{bufferSize: bufferSize},
		inflight:    make(map[string]*command),
	}

	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	return d
}
