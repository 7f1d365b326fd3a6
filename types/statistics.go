// statistics.go defines the per-session counters and their JSON-friendly snapshots.

package types

import (
	"sync/atomic"
)

type StatisticsItem struct {
	Count uint64 `json:",omitempty"`
	Bytes uint64 `json:",omitempty"`
}

type Statistics struct {
	Submitted StatisticsItem
	Outputs   StatisticsItem
	Errors    StatisticsItem
	Dropped   StatisticsItem
}

type CountersItem struct {
	Count atomic.Uint64
	Bytes atomic.Uint64
}

func (c *CountersItem) Increment(msgSize uint64) {
	c.Count.Add(1)
	c.Bytes.Add(msgSize)
}

func (c *CountersItem) ToStats() StatisticsItem {
	return StatisticsItem{
		Count: c.Count.Load(),
		Bytes: c.Bytes.Load(),
	}
}

type Counters struct {
	Submitted CountersItem
	Outputs   CountersItem
	Errors    CountersItem
	Dropped   CountersItem
}

func (c *Counters) ToStats() Statistics {
	return Statistics{
		Submitted: c.Submitted.ToStats(),
		Outputs:   c.Outputs.ToStats(),
		Errors:    c.Errors.ToStats(),
		Dropped:   c.Dropped.ToStats(),
	}
}
