package domain

import (
	"sort"

	"github.com/google/uuid"
)

// ConflictGroup is a maximal set of two or more events whose time ranges
// mutually or transitively overlap. Groups form a partition: an event belongs
// to exactly one group.
type ConflictGroup struct {
	id     uuid.UUID
	events []Event
}

// NewConflictGroup creates a conflict group over the given events.
func NewConflictGroup(events []Event) ConflictGroup {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return ConflictGroup{id: uuid.New(), events: sorted}
}

// ID returns the group's identifier for this run.
func (g ConflictGroup) ID() uuid.UUID { return g.id }

// Events returns the group's events ordered by start time.
func (g ConflictGroup) Events() []Event { return g.events }

// Size returns the number of events in the group.
func (g ConflictGroup) Size() int { return len(g.events) }

// Range returns the derived time range [min(starts), max(ends)] across the
// group.
func (g ConflictGroup) Range() TimeRange {
	if len(g.events) == 0 {
		return TimeRange{}
	}
	r := g.events[0].Range()
	for _, e := range g.events[1:] {
		if e.Start.Before(r.Start) {
			r.Start = e.Start
		}
		if e.End.After(r.End) {
			r.End = e.End
		}
	}
	return r
}

// GroupOverlapping partitions events into conflict groups. Events that never
// conflict (declined, cancelled, all-day, show-as free, zero duration) are
// excluded before grouping. Overlap chains merge transitively: if A overlaps
// B and B overlaps C, all three land in one group even when A and C are
// disjoint.
func GroupOverlapping(events []Event) []ConflictGroup {
	eligible := make([]Event, 0, len(events))
	for _, e := range events {
		if e.IsEligibleForConflict() {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) < 2 {
		return nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Start.Before(eligible[j].Start)
	})

	uf := newUnionFind(len(eligible))
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			if eligible[i].Range().Overlaps(eligible[j].Range()) {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]Event)
	order := make([]int, 0)
	for i, e := range eligible {
		root := uf.find(i)
		if _, seen := members[root]; !seen {
			order = append(order, root)
		}
		members[root] = append(members[root], e)
	}

	groups := make([]ConflictGroup, 0)
	for _, root := range order {
		if set := members[root]; len(set) >= 2 {
			groups = append(groups, NewConflictGroup(set))
		}
	}
	return groups
}

// unionFind is a disjoint-set structure with path compression and union by
// rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
