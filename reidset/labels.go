package reidset

import (
	"maps"
	"slices"
)

// CompressLabels returns a copy of records with identities relabeled to the
// dense range [0, k), where k is the number of distinct identities. Labels
// follow ascending order of the original ids. Dataset ids are ignored: the
// split is treated as a single label space.
func CompressLabels(records Split) Split {
	if len(records) == 0 {
		return records.Clone()
	}

	seen := make(map[int]struct{})
	for _, r := range records {
		seen[r.ObjID] = struct{}{}
	}
	label := make(map[int]int, len(seen))
	for i, id := range slices.Sorted(maps.Keys(seen)) {
		label[id] = i
	}

	out := records.Clone()
	for i := range out {
		out[i].ObjID = label[out[i].ObjID]
	}
	return out
}
