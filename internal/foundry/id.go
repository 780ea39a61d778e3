package foundry

import (
	"fmt"

	"github.com/tennisfel/compendium/internal/checksum"
)

// idLen is the length of Foundry document ids (16 alphanumeric characters).
const idLen = 16

// DocumentID derives the stable Foundry id for a source resource. The same
// source id always maps to the same document id, so cross-references and
// re-runs are deterministic.
func DocumentID(sourceID string) string {
	return checksum.SumString(sourceID)[:idLen]
}

// PageID derives the stable id for page n of a resource's journal entry.
func PageID(sourceID string, n int) string {
	return checksum.SumString(fmt.Sprintf("%s/page/%d", sourceID, n))[:idLen]
}
