package reidset

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// CombineAll folds the query and gallery splits into train.
//
// Junk identities are dropped. The remaining query and gallery identities
// of each dataset id are relabeled to a dense range ordered by original id,
// then offset by the number of train identities of that dataset id, so they
// never collide with existing train labels. Query and gallery are left
// untouched and the train index is recomputed.
//
// CombineAll is not idempotent: calling it twice merges query and gallery
// twice. On error the dataset is unchanged.
func (d *Dataset) CombineAll() error {
	newIDs := make(map[int]*roaring.Bitmap)
	for _, split := range []Split{d.query, d.gallery} {
		for _, r := range split {
			if d.isJunk(r.ObjID) {
				continue
			}
			if r.ObjID < 0 || int64(r.ObjID) > math.MaxUint32 {
				return fmt.Errorf("reidset: combine all: %w: identity %d is not a junk id and cannot be relabeled", ErrConfiguration, r.ObjID)
			}
			bm, ok := newIDs[r.DatasetID]
			if !ok {
				bm = roaring.New()
				newIDs[r.DatasetID] = bm
			}
			bm.Add(uint32(r.ObjID))
		}
	}

	labels := make(map[int]map[int]int, len(newIDs))
	for datasetID, bm := range newIDs {
		dense := make(map[int]int, bm.GetCardinality())
		for i, id := range bm.ToArray() {
			dense[int(id)] = i
		}
		labels[datasetID] = dense
	}

	combined := d.train.Clone()
	before := len(combined)
	combined = append(combined, d.relabel(d.query, labels)...)
	combined = append(combined, d.relabel(d.gallery, labels)...)

	d.train = combined
	d.reindex()
	d.logger.LogCombine(context.Background(), "combine_all", len(combined)-before, d.trainIndex)
	return nil
}

// relabel copies the non-junk records of split with dense labels offset by
// the current train identity count of their dataset id.
func (d *Dataset) relabel(split Split, labels map[int]map[int]int) Split {
	out := make(Split, 0, len(split))
	for _, r := range split {
		if d.isJunk(r.ObjID) {
			continue
		}
		c := r.Clone()
		c.ObjID = labels[r.DatasetID][r.ObjID] + d.trainIndex.Identities(r.DatasetID)
		out = append(out, c)
	}
	return out
}

// CombineDatasets concatenates the train splits of a and b into a new
// dataset.
//
// Every record of b has a's train identity count for its dataset id added
// to its identity, and a's train camera count added to its camera, so b
// occupies a range disjoint from a. Dataset ids unknown to a keep their
// numbering. The result takes a's query, gallery, mode, junk identities,
// sequence settings and logger; combination is not re-run and no summary is
// logged. Neither input is modified.
//
// Both datasets must declare the same kind and b's train split must not be
// empty.
func CombineDatasets(a, b *Dataset) (*Dataset, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("reidset: combine datasets: %w: nil dataset", ErrConfiguration)
	}
	if a.kind != b.kind {
		return nil, fmt.Errorf("reidset: combine datasets: %w: cannot combine %s and %s datasets", ErrConfiguration, a.kind, b.kind)
	}
	if len(b.train) == 0 {
		return nil, fmt.Errorf("reidset: combine datasets: %w: empty train split", ErrConfiguration)
	}

	train := make(Split, 0, len(a.train)+len(b.train))
	train = append(train, a.train.Clone()...)
	for _, r := range b.train {
		c := r.Clone()
		c.ObjID += a.trainIndex.Identities(r.DatasetID)
		c.CamID += a.trainIndex.Cameras(r.DatasetID)
		train = append(train, c)
	}

	out := &Dataset{
		kind:    a.kind,
		train:   train,
		query:   a.query.Clone(),
		gallery: a.gallery.Clone(),
		mode:    a.mode,
		junk:    a.JunkIdentities(),
		seqLen:  a.seqLen,
		policy:  a.policy,
		logger:  a.logger,
	}
	out.reindex()
	out.logger.LogCombine(context.Background(), "combine_datasets", len(b.train), out.trainIndex)
	return out, nil
}

// Sum folds datasets left to right with CombineDatasets. A single dataset is
// returned unchanged.
func Sum(datasets ...*Dataset) (*Dataset, error) {
	if len(datasets) == 0 {
		return nil, errors.New("reidset: sum of no datasets")
	}
	acc := datasets[0]
	if acc == nil {
		return nil, fmt.Errorf("reidset: sum: %w: nil dataset", ErrConfiguration)
	}
	for i, ds := range datasets[1:] {
		next, err := CombineDatasets(acc, ds)
		if err != nil {
			return nil, fmt.Errorf("reidset: sum operand %d: %w", i+1, err)
		}
		acc = next
	}
	return acc, nil
}
