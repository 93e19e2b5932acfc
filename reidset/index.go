package reidset

import (
	"maps"
	"slices"
)

// IdentityCounts holds the distinct identity and camera counts of one
// dataset id within a split.
type IdentityCounts struct {
	Identities int
	Cameras    int
}

// IdentityIndex maps a dataset id to its identity and camera cardinalities.
type IdentityIndex map[int]IdentityCounts

// IndexSplit counts the distinct identities and cameras of each dataset id
// present in records. Junk identities are counted like any other id.
func IndexSplit(records Split) IdentityIndex {
	objIDs := make(map[int]map[int]struct{})
	camIDs := make(map[int]map[int]struct{})
	for _, r := range records {
		if objIDs[r.DatasetID] == nil {
			objIDs[r.DatasetID] = make(map[int]struct{})
			camIDs[r.DatasetID] = make(map[int]struct{})
		}
		objIDs[r.DatasetID][r.ObjID] = struct{}{}
		camIDs[r.DatasetID][r.CamID] = struct{}{}
	}

	index := make(IdentityIndex, len(objIDs))
	for datasetID, ids := range objIDs {
		index[datasetID] = IdentityCounts{
			Identities: len(ids),
			Cameras:    len(camIDs[datasetID]),
		}
	}
	return index
}

// Identities returns the identity count for datasetID, or zero if absent.
func (x IdentityIndex) Identities(datasetID int) int {
	return x[datasetID].Identities
}

// Cameras returns the camera count for datasetID, or zero if absent.
func (x IdentityIndex) Cameras(datasetID int) int {
	return x[datasetID].Cameras
}

// TotalIdentities sums identity counts over all dataset ids.
func (x IdentityIndex) TotalIdentities() int {
	total := 0
	for _, c := range x {
		total += c.Identities
	}
	return total
}

// TotalCameras sums camera counts over all dataset ids.
func (x IdentityIndex) TotalCameras() int {
	total := 0
	for _, c := range x {
		total += c.Cameras
	}
	return total
}

// DatasetIDs returns the indexed dataset ids in ascending order.
func (x IdentityIndex) DatasetIDs() []int {
	return slices.Sorted(maps.Keys(x))
}

// DataCounts maps a dataset id to the number of items per identity.
type DataCounts map[int]map[int]int

// CountItems counts the records of every identity, per dataset id.
func CountItems(records Split) DataCounts {
	counts := make(DataCounts)
	for _, r := range records {
		if counts[r.DatasetID] == nil {
			counts[r.DatasetID] = make(map[int]int)
		}
		counts[r.DatasetID][r.ObjID]++
	}
	return counts
}
