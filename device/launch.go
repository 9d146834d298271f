package device

import (
	"fmt"
	"strings"
)

// Role tells which side of a pipe a kernel sits on.
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Flavor selects the built-in pipe functions a kernel uses.
type Flavor int

const (
	// FlavorWorkGroup reserves one slot per work-item for the whole
	// work-group and transfers the packets together.
	FlavorWorkGroup Flavor = iota

	// FlavorWorkItem lets every work-item read or write on its own.
	FlavorWorkItem
)

func (f Flavor) String() string {
	switch f {
	case FlavorWorkGroup:
		return "workgroup"
	case FlavorWorkItem:
		return "workitem"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// ParseFlavor converts a flavor name into a Flavor. The numeric kernel type
// selectors "0" and "1" are accepted as well.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workgroup", "work-group", "wg", "0":
		return FlavorWorkGroup, nil
	case "workitem", "work-item", "wi", "1":
		return FlavorWorkItem, nil
	default:
		return 0, fmt.Errorf("unknown kernel flavor %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Flavor) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flavor) UnmarshalText(text []byte) error {
	parsed, err := ParseFlavor(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

// Launch describes one NDRange launch of a producer or consumer kernel bound
// to a pipe.
//
// A producer reads Buffer[Offset+i] and writes it into Pipe. A consumer reads
// from Pipe, counts the packets equal to Reference and adds the count to the
// accumulator word Buffer[0].
type Launch struct {
	Role   Role
	Flavor Flavor

	Pipe   PipeHandle
	Buffer BufferHandle

	Offset    int
	Reference uint32

	Groups           int
	GroupSize        int
	ItemsPerWorkItem int
}

// Items returns the number of packets the launch transfers.
func (l Launch) Items() int {
	return l.Groups * l.GroupSize * l.ItemsPerWorkItem
}

func (l Launch) name() string {
	pipeName := "<nil>"
	if l.Pipe != nil {
		pipeName = l.Pipe.Name()
	}

	return fmt.Sprintf("%s[%s,%s]", l.Role, l.Flavor, pipeName)
}
