package preprocess

import (
	"slices"
	"sort"

	"pasfront/internal/directive"
)

// Range is a closed interval of final-stream token indices during which a
// switch was on. Value carries the numeric argument of {$A8}-style switches.
type Range struct {
	Start int
	End   int
	Value int
}

// Contains reports whether index falls inside r.
func (r Range) Contains(index int) bool { return index >= r.Start && index <= r.End }

type switchMark struct {
	index   int
	setting directive.SwitchSetting
}

// SwitchRegistry maps each switch kind to the ranges where it was on.
// It is built once, at the top-level file, and read-only afterwards.
type SwitchRegistry struct {
	ranges map[directive.SwitchKind][]Range
	marks  map[directive.SwitchKind][]switchMark
}

// newSwitchRegistry folds switch events, given in final-stream indices, into
// ranges. A switch still on at the end closes at last.
func newSwitchRegistry(marks []switchMark, last int) *SwitchRegistry {
	r := &SwitchRegistry{
		ranges: map[directive.SwitchKind][]Range{},
		marks:  map[directive.SwitchKind][]switchMark{},
	}
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].index < marks[j].index })
	open := map[directive.SwitchKind]*Range{}
	for _, m := range marks {
		k := m.setting.Kind
		r.marks[k] = append(r.marks[k], m)
		cur := open[k]
		if m.setting.Active {
			switch {
			case cur == nil:
				open[k] = &Range{Start: m.index, End: m.index, Value: m.setting.Value}
			case cur.Value != m.setting.Value:
				// {$A4} ... {$A8}: the old alignment ends where the new one starts
				if m.index == cur.Start {
					cur.Value = m.setting.Value
					continue
				}
				cur.End = m.index - 1
				r.ranges[k] = append(r.ranges[k], *cur)
				open[k] = &Range{Start: m.index, End: m.index, Value: m.setting.Value}
			}
			continue
		}
		if cur != nil {
			cur.End = m.index
			r.ranges[k] = append(r.ranges[k], *cur)
			delete(open, k)
		}
	}
	for k, cur := range open {
		cur.End = max(last, cur.Start)
		r.ranges[k] = append(r.ranges[k], *cur)
	}
	return r
}

// Ranges returns the ranges recorded for k in stream order.
func (r *SwitchRegistry) Ranges(k directive.SwitchKind) []Range {
	return slices.Clone(r.ranges[k])
}

// Kinds returns every switch kind mentioned by an executed directive.
func (r *SwitchRegistry) Kinds() []directive.SwitchKind {
	out := make([]directive.SwitchKind, 0, len(r.marks))
	for k := range r.marks {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// IsActive reports whether k was explicitly switched on at index.
func (r *SwitchRegistry) IsActive(k directive.SwitchKind, index int) bool {
	for _, rg := range r.ranges[k] {
		if rg.Contains(index) {
			return true
		}
	}
	return false
}

// Effective returns the state of k at index: the last executed setting at or
// before index, or the compiler default.
func (r *SwitchRegistry) Effective(k directive.SwitchKind, index int) directive.SwitchSetting {
	marks := r.marks[k]
	i := sort.Search(len(marks), func(i int) bool { return marks[i].index > index })
	if i == 0 {
		return directive.DefaultSetting(k)
	}
	return marks[i-1].setting
}

// Mark is one executed switch directive, positioned in the final stream.
type Mark struct {
	Index   int
	Setting directive.SwitchSetting
}

// Marks returns every executed switch setting in stream order.
func (r *SwitchRegistry) Marks() []Mark {
	var out []Mark
	for _, k := range r.Kinds() {
		for _, m := range r.marks[k] {
			out = append(out, Mark{Index: m.index, Setting: m.setting})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// RestoreSwitches rebuilds a registry from marks previously returned by
// Marks. last is the index of the final token of the stream.
func RestoreSwitches(marks []Mark, last int) *SwitchRegistry {
	raw := make([]switchMark, len(marks))
	for i, m := range marks {
		raw[i] = switchMark{index: m.Index, setting: m.Setting}
	}
	return newSwitchRegistry(raw, last)
}
