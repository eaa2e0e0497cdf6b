package selection

import (
	"fmt"
	"sort"

	"github.com/de-tools/cost-lens/pkg/services/report/facts"
)

// Dimension identifies a pickable facet dimension. Subcategory picks use the
// global key form (category|subcategory).
type Dimension string

const (
	DimResourceKey   Dimension = "resource_key"
	DimResourceID    Dimension = "resource_id"
	DimResourceName  Dimension = "resource_name"
	DimResourceGroup Dimension = "resource_group"
	DimMeter         Dimension = "meter"
	DimCategory      Dimension = "category"
	DimSubcategory   Dimension = "subcategory"
)

// PickMode controls how TogglePick mutates a dimension's pick set.
type PickMode string

const (
	ModeToggle  PickMode = "toggle"
	ModeReplace PickMode = "replace"
	ModeAdd     PickMode = "add"
	ModeRemove  PickMode = "remove"
)

// exclusivity groups: picking in one group clears every other group's sets.
// The four resource dimensions form a single group (resource_key is canonical,
// the others are legacy selection paths over the same entities).
var dimensionGroups = map[Dimension]string{
	DimResourceKey:   "resource",
	DimResourceID:    "resource",
	DimResourceName:  "resource",
	DimResourceGroup: "resource",
	DimMeter:         "meter",
	DimCategory:      "category",
	DimSubcategory:   "subcategory",
}

// State holds the two-tier selection model: scope (intersecting subscription
// and day-range filters) and picks (per-dimension selection sets, unioned
// across dimensions). The fact table and index it reads are never mutated.
type State struct {
	table *facts.Table
	index *facts.Index

	scopeSubs map[string]struct{}
	dayFrom   string
	dayTo     string

	picks map[Dimension]map[string]struct{}
}

func NewState(table *facts.Table, index *facts.Index) *State {
	return &State{
		table:     table,
		index:     index,
		scopeSubs: map[string]struct{}{},
		picks:     map[Dimension]map[string]struct{}{},
	}
}

// SetScopeSubscriptions replaces the subscription scope. An empty set means
// "no restriction"; a set covering every subscription in the snapshot is
// normalized to empty so repeated scope queries never copy the full set.
func (s *State) SetScopeSubscriptions(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	if len(next) >= len(s.index.SubscriptionID) {
		all := true
		for id := range s.index.SubscriptionID {
			if _, ok := next[id]; !ok {
				all = false
				break
			}
		}
		if all {
			next = map[string]struct{}{}
		}
	}
	s.scopeSubs = next
}

// SetScopeDayRange replaces the day-range scope. Empty bounds are open ends.
func (s *State) SetScopeDayRange(from, to string) {
	s.dayFrom = from
	s.dayTo = to
}

func (s *State) ClearScope() {
	s.scopeSubs = map[string]struct{}{}
	s.dayFrom = ""
	s.dayTo = ""
}

func (s *State) ClearPicks() {
	s.picks = map[Dimension]map[string]struct{}{}
}

// TogglePick mutates one dimension's pick set. Any mutation that inserts a
// value clears all other exclusivity groups' sets first, leaving the target
// dimension intact for multi-select.
func (s *State) TogglePick(dim Dimension, value string, mode PickMode) error {
	group, ok := dimensionGroups[dim]
	if !ok {
		return fmt.Errorf("unknown pick dimension: %q", dim)
	}

	set := s.picks[dim]
	_, present := set[value]

	insert := false
	switch mode {
	case ModeToggle:
		insert = !present
	case ModeReplace, ModeAdd:
		insert = true
	case ModeRemove:
		insert = false
	default:
		return fmt.Errorf("unknown pick mode: %q", mode)
	}

	if insert {
		s.clearOtherGroups(group)
		if mode == ModeReplace {
			set = nil
		} else {
			set = s.picks[dim]
		}
		if set == nil {
			set = map[string]struct{}{}
		}
		set[value] = struct{}{}
		s.picks[dim] = set
		return nil
	}

	if present {
		delete(set, value)
		if len(set) == 0 {
			delete(s.picks, dim)
		}
	}
	return nil
}

func (s *State) clearOtherGroups(group string) {
	for dim := range s.picks {
		if dimensionGroups[dim] != group {
			delete(s.picks, dim)
		}
	}
}

// Picks returns the dimension's picked values, sorted.
func (s *State) Picks(dim Dimension) []string {
	set := s.picks[dim]
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func (s *State) HasPicks() bool {
	return len(s.picks) > 0
}

// ScopedSubscriptions returns a copy of the subscription scope. Empty means
// unrestricted.
func (s *State) ScopedSubscriptions() map[string]struct{} {
	out := make(map[string]struct{}, len(s.scopeSubs))
	for id := range s.scopeSubs {
		out[id] = struct{}{}
	}
	return out
}

// ScopeRowIDs returns the rows satisfying scope only, ignoring picks. A scope
// that matches nothing yields an empty set; it is never widened to the full
// table (only an explicitly empty subscription set without a day range is).
func (s *State) ScopeRowIDs() map[int]struct{} {
	if len(s.scopeSubs) == 0 && s.dayFrom == "" && s.dayTo == "" {
		return s.table.AllRowIDs()
	}

	scope := map[int]struct{}{}
	add := func(rowID int) {
		day := s.table.Rows[rowID].Day
		if s.dayFrom != "" && day < s.dayFrom {
			return
		}
		if s.dayTo != "" && day > s.dayTo {
			return
		}
		scope[rowID] = struct{}{}
	}

	if len(s.scopeSubs) == 0 {
		for i := range s.table.Rows {
			add(i)
		}
		return scope
	}
	for id := range s.scopeSubs {
		for _, rowID := range s.index.SubscriptionID[id] {
			add(rowID)
		}
	}
	return scope
}

// ActiveRowIDs returns scope when no picks are set, otherwise the
// intersection of scope with the union of all non-empty pick sets.
func (s *State) ActiveRowIDs() map[int]struct{} {
	scope := s.ScopeRowIDs()
	if len(s.picks) == 0 {
		return scope
	}

	active := map[int]struct{}{}
	for dim, set := range s.picks {
		bucket := s.pickBucket(dim)
		for value := range set {
			for _, rowID := range bucket[value] {
				if _, ok := scope[rowID]; ok {
					active[rowID] = struct{}{}
				}
			}
		}
	}
	return active
}

func (s *State) pickBucket(dim Dimension) map[string][]int {
	switch dim {
	case DimResourceKey:
		return s.index.ResourceKey
	case DimResourceID:
		return s.index.ResourceID
	case DimResourceName:
		return s.index.ResourceName
	case DimResourceGroup:
		return s.index.ResourceGroup
	case DimMeter:
		return s.index.Meter
	case DimCategory:
		return s.index.Category
	case DimSubcategory:
		return s.index.SubcategoryGlobal
	default:
		return nil
	}
}
