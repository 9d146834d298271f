// Package partition splits a packet count across pipes and kernel launches.
package partition

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned for a partition request that cannot be satisfied.
var ErrInvalid = errors.New("invalid partition")

// Plan is the share of the work one pipe carries, and the launch geometry of
// the producer and consumer kernels bound to it.
//
// Items == Groups * GroupSize * ItemsPerWorkItem always holds, so no
// trailing packet is ever left behind.
type Plan struct {
	Channel int

	// Offset is the index of the first input packet of the channel.
	Offset int
	Items  int

	Groups           int
	GroupSize        int
	ItemsPerWorkItem int
}

// ItemsPerGroup returns the number of packets one work-group moves.
func (p Plan) ItemsPerGroup() int {
	return p.GroupSize * p.ItemsPerWorkItem
}

// Partition divides total packets over channels. Channel 0 takes the
// remainder of an uneven split. For each channel, the work-group size is the
// largest divisor of the channel's packets not above groupSize, and the
// number of groups the largest divisor of the remaining factor not above
// groups.
func Partition(total, channels, groupSize, groups int) ([]Plan, error) {
	switch {
	case total < 0:
		return nil, fmt.Errorf("%w: %d packets", ErrInvalid, total)
	case channels < 1:
		return nil, fmt.Errorf("%w: %d channels", ErrInvalid, channels)
	case groupSize < 1:
		return nil, fmt.Errorf("%w: work-group size %d", ErrInvalid, groupSize)
	case groups < 1:
		return nil, fmt.Errorf("%w: %d work-groups per kernel", ErrInvalid, groups)
	}

	base := total / channels
	remainder := total % channels

	plans := make([]Plan, channels)
	offset := 0

	for c := range plans {
		items := base
		if c == 0 {
			items += remainder
		}

		plans[c] = planChannel(c, offset, items, groupSize, groups)
		offset += items
	}

	return plans, nil
}

func planChannel(channel, offset, items, groupSize, groups int) Plan {
	p := Plan{
		Channel: channel,
		Offset:  offset,
		Items:   items,
	}

	if items == 0 {
		return p
	}

	p.GroupSize = largestDivisorAtMost(items, groupSize)
	workItems := items / p.GroupSize
	p.Groups = largestDivisorAtMost(workItems, groups)
	p.ItemsPerWorkItem = workItems / p.Groups

	return p
}

func largestDivisorAtMost(n, limit int) int {
	if limit > n {
		limit = n
	}

	for d := limit; d > 1; d-- {
		if n%d == 0 {
			return d
		}
	}

	return 1
}

// Sum returns the number of packets covered by plans.
func Sum(plans []Plan) int {
	total := 0
	for _, p := range plans {
		total += p.Items
	}

	return total
}

// MaxItems returns the largest per-channel packet count.
func MaxItems(plans []Plan) int {
	most := 0
	for _, p := range plans {
		if p.Items > most {
			most = p.Items
		}
	}

	return most
}

// MaxGroups returns the largest per-channel work-group count.
func MaxGroups(plans []Plan) int {
	most := 0
	for _, p := range plans {
		if p.Groups > most {
			most = p.Groups
		}
	}

	return most
}
