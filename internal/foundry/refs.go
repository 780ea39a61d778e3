package foundry

import "github.com/tennisfel/compendium/internal/lk"

// Ref is the resolved output identity of a source resource.
type Ref struct {
	ID   string
	Type string
}

// RefIndex maps LegendKeeper resource ids to their Foundry identities. It is
// built once after loading and consulted read-only during emission.
type RefIndex map[string]Ref

// BuildRefIndex assigns every resource its document id and type. The result
// depends only on the source set, not on traversal order.
func BuildRefIndex(resources []lk.Resource) RefIndex {
	idx := make(RefIndex, len(resources))
	for i := range resources {
		r := &resources[i]
		idx[r.ID] = Ref{ID: DocumentID(r.ID), Type: Classify(r)}
	}
	return idx
}

// Resolve looks up a source id. The second return reports whether the
// reference is resolvable; unresolvable references are rendered inert by the
// emitter, never dropped or broken.
func (idx RefIndex) Resolve(sourceID string) (Ref, bool) {
	ref, ok := idx[sourceID]
	return ref, ok
}
