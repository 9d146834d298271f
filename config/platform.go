package config

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/simplepipe/api"
	"github.com/sarchlab/simplepipe/device"
)

// Platform is a simulated host and accelerator.
type Platform struct {
	Engine  sim.Engine
	Device  *device.Device
	Driver  api.Driver
	Monitor *monitoring.Monitor
}

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	opts      DeviceOptions
	monitor   bool
	pipeHooks []sim.Hook
}

// MakePlatformBuilder creates a builder for a device with the given options.
func MakePlatformBuilder(opts DeviceOptions) PlatformBuilder {
	return PlatformBuilder{opts: opts}
}

// WithMonitor attaches an akita monitor to the engine and the components.
func (b PlatformBuilder) WithMonitor() PlatformBuilder {
	b.monitor = true
	return b
}

// WithPipeHook attaches hook to every pipe the device creates.
func (b PlatformBuilder) WithPipeHook(hook sim.Hook) PlatformBuilder {
	b.pipeHooks = append(append([]sim.Hook(nil), b.pipeHooks...), hook)
	return b
}

// Build creates the engine, the device and the driver, and connects them.
func (b PlatformBuilder) Build() *Platform {
	freq := sim.Freq(b.opts.FreqGHz) * sim.GHz
	engine := sim.NewSerialEngine()

	p := &Platform{Engine: engine}

	p.Device = device.NewBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithComputeUnits(b.opts.ComputeUnits).
		WithSlotsPerComputeUnit(b.opts.SlotsPerComputeUnit).
		WithMaxWorkGroupSize(b.opts.MaxWorkGroupSize).
		WithMaxAlignmentBits(b.opts.MaxAlignmentBits).
		WithMemoryBytes(b.opts.MemoryBytes).
		Build("Device")

	for _, h := range b.pipeHooks {
		p.Device.AcceptPipeHook(h)
	}

	p.Driver = api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(freq).
		Build("Driver")
	p.Driver.RegisterDevice(p.Device)

	if b.monitor {
		p.Monitor = monitoring.NewMonitor()
		p.Monitor.RegisterEngine(engine)
		p.Monitor.RegisterComponent(p.Driver)
		p.Monitor.RegisterComponent(p.Device)
	}

	return p
}
