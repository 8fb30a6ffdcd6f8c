package stocks

// Share group indices within a SegregatedShares.
const (
	// GroupUnbound holds shares not currently required by any target. It is
	// the default group that receives added shares.
	GroupUnbound = 0
	// GroupBound holds shares credited to targets by the last distribution.
	GroupBound = 1
	// GroupHorizon holds shares reserved for expanding the horizon.
	GroupHorizon = 2
	// GroupManual holds shares reserved for manual use.
	GroupManual = 3

	numShareGroups = 4
)

// SegregatedShares is a collection of shares partitioned into groups that
// can also be taken as a whole.
type SegregatedShares struct {
	groups []*Shares
}

// NewSegregatedShares creates empty share groups.
func NewSegregatedShares() *SegregatedShares {
	groups := make([]*Shares, numShareGroups)
	for i := range groups {
		groups[i] = EmptyShares()
	}
	return &SegregatedShares{groups: groups}
}

// Group returns the indicated group. The group is shared, not copied.
func (s *SegregatedShares) Group(i int) *Shares { return s.groups[i] }

// SetGroup replaces the indicated group.
func (s *SegregatedShares) SetGroup(i int, group *Shares) { s.groups[i] = group }

// All returns every share in this collection as one new Shares.
func (s *SegregatedShares) All() *Shares {
	all := EmptyShares()
	for _, g := range s.groups {
		all = all.Add(g)
	}
	return all
}

// Len returns the number of shares across all groups.
func (s *SegregatedShares) Len() int {
	n := 0
	for _, g := range s.groups {
		n += g.Len()
	}
	return n
}

// TotalBuyCost returns the total money paid to own all current shares.
func (s *SegregatedShares) TotalBuyCost() Money {
	var total Money
	for _, g := range s.groups {
		total = total.Add(g.TotalBuyCost())
	}
	return total
}
