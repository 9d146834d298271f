package device

// Info is the capability record a host can query from the device.
type Info struct {
	Name string

	// ComputeUnits and SlotsPerComputeUnit bound how many work-groups can be
	// resident at the same time.
	ComputeUnits        int
	SlotsPerComputeUnit int

	MaxWorkGroupSize int

	// MaxAlignmentBits is the size, in bits, of the largest built-in data
	// type. A pipe packet may not be larger than this.
	MaxAlignmentBits int

	MemoryBytes uint64
}

// WorkGroupSlots returns the number of work-groups that can be resident at
// the same time.
func (i Info) WorkGroupSlots() int {
	return i.ComputeUnits * i.SlotsPerComputeUnit
}

// MaxPacketSize returns the largest pipe packet size in bytes.
func (i Info) MaxPacketSize() int {
	return i.MaxAlignmentBits / 8
}
