package combinator

import "convoke/internal/template"

// Batch yields an explicit list of already paired variable sets in
// declaration order, for matrices where the full grid product would
// explode.
type Batch struct {
	items []map[string]any
}

// NewBatch creates a batch combinator over the given items.
func NewBatch(items []map[string]any) *Batch {
	return &Batch{items: items}
}

// Len returns the number of items.
func (b *Batch) Len() int {
	return len(b.items)
}

// Sequence returns a fresh iterator over the items. Yielded sets are
// copies, so callers and transformers cannot corrupt the source items.
func (b *Batch) Sequence() *Sequence {
	return &Sequence{
		length: len(b.items),
		at: func(i int) map[string]any {
			return template.CloneVars(b.items[i])
		},
	}
}
