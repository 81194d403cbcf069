// Package dedup answers membership queries over the set of normalized phone
// numbers already present in the lead population, including insertions staged
// by the current batch.
package dedup

// Index is an in-memory membership set of normalized phones. It is advisory:
// the storage layer's unique index is the final arbiter across concurrent
// calls, but within one sequentially-processed batch the Index guarantees no
// two records are accepted with the same phone.
type Index struct {
	phones map[string]struct{}
}

// NewIndex builds an index seeded with the existing population's phones.
func NewIndex(existing []string) *Index {
	phones := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		phones[p] = struct{}{}
	}
	return &Index{phones: phones}
}

// Contains reports whether phone is already present.
func (i *Index) Contains(phone string) bool {
	_, ok := i.phones[phone]
	return ok
}

// Add registers an in-flight insertion so later records in the same batch
// see it as a duplicate.
func (i *Index) Add(phone string) {
	i.phones[phone] = struct{}{}
}

// CheckAndAdd performs the membership check and insertion as one step.
// It returns true if the phone was absent and is now registered, false if it
// was already present.
func (i *Index) CheckAndAdd(phone string) bool {
	if _, ok := i.phones[phone]; ok {
		return false
	}
	i.phones[phone] = struct{}{}
	return true
}

// Len returns the number of distinct phones tracked.
func (i *Index) Len() int {
	return len(i.phones)
}
