package diag

import (
	"cmp"
	"math"
	"slices"
)

// Bag collects diagnostics up to a fixed limit. It is not safe for
// concurrent use; share it through a LockedReporter.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics. A non-positive
// max means the largest supported limit.
func NewBag(max int) *Bag {
	if max <= 0 || max > math.MaxUint16 {
		max = math.MaxUint16
	}
	return &Bag{items: make([]Diagnostic, 0, min(max, 64)), max: max}
}

// Add stores d unless the bag is full and reports whether it did.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Cap is the limit the bag was created with, grown by Merge.
func (b *Bag) Cap() int { return b.max }

// Len returns the number of stored diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the stored diagnostics. The slice aliases the bag.
func (b *Bag) Items() []Diagnostic { return b.items }

// count returns how many diagnostics are at least sev.
func (b *Bag) count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity >= sev {
			n++
		}
	}
	return n
}

func (b *Bag) ErrorCount() int   { return b.count(SevError) }
func (b *Bag) HasErrors() bool   { return b.count(SevError) > 0 }
func (b *Bag) HasWarnings() bool { return b.count(SevWarning) > 0 }

// Merge appends the diagnostics of other, raising the limit to fit them.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > b.max {
		b.max = min(total, math.MaxUint16)
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file and position; at the same span errors
// come before warnings, then codes ascend.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup drops repeats of an earlier diagnostic with the same code,
// severity, span and message.
func (b *Bag) Dedup() {
	seen := make(map[dedupKey]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := d.key()
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
