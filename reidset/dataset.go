package reidset

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Mode selects which split a dataset serves through Data.
type Mode string

// Recognized modes.
const (
	ModeTrain   Mode = "train"
	ModeQuery   Mode = "query"
	ModeGallery Mode = "gallery"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeTrain, ModeQuery, ModeGallery:
		return m, nil
	default:
		return "", fmt.Errorf("%w: mode %q, expected one of [train | query | gallery]", ErrInvalidConfiguration, s)
	}
}

// Dataset owns the train, query and gallery splits of one logical dataset
// together with the identity index of its train split.
//
// A Dataset is not safe for concurrent mutation. CombineAll must complete
// before the dataset is shared with readers.
type Dataset struct {
	kind    Kind
	train   Split
	query   Split
	gallery Split

	mode    Mode
	junk    []int
	seqLen  int
	policy  SamplePolicy
	verbose bool
	logger  *Logger

	trainIndex  IdentityIndex
	trainCounts DataCounts
}

// New builds a dataset from three record splits.
//
// The splits are deep-copied; the caller keeps ownership of its slices.
// Every record is validated against kind. Defaults: ModeTrain, no
// combination, no summary logging, no junk identities and, for tracklets,
// DefaultSeqLen frames sampled with SampleEvenly.
func New(kind Kind, train, query, gallery Split, opts ...Option) (*Dataset, error) {
	cfg := &datasetConfig{
		mode:   ModeTrain,
		seqLen: DefaultSeqLen,
		policy: SampleEvenly,
		logger: NoopLogger(),
	}
	for _, opt := range opts {
		if err := opt.applyDataset(cfg); err != nil {
			return nil, fmt.Errorf("reidset: %w", err)
		}
	}

	if kind != KindImage && kind != KindTracklet {
		return nil, fmt.Errorf("reidset: %w: unknown kind %d", ErrInvalidConfiguration, int(kind))
	}
	if _, err := ParseMode(string(cfg.mode)); err != nil {
		return nil, fmt.Errorf("reidset: %w", err)
	}
	if cfg.logger == nil {
		return nil, errors.New("reidset: logger must not be nil")
	}
	if kind == KindImage {
		if cfg.seqSet {
			return nil, fmt.Errorf("reidset: %w: sequence settings apply to tracklet datasets only", ErrInvalidConfiguration)
		}
		cfg.seqLen, cfg.policy = 0, ""
	} else {
		if _, err := ParseSamplePolicy(string(cfg.policy)); err != nil {
			return nil, fmt.Errorf("reidset: %w", err)
		}
		if cfg.seqLen <= 0 {
			return nil, fmt.Errorf("reidset: %w: sequence length must be positive, got %d", ErrConfiguration, cfg.seqLen)
		}
	}

	for _, s := range []struct {
		name    SplitName
		records Split
	}{{SplitTrain, train}, {SplitQuery, query}, {SplitGallery, gallery}} {
		if err := s.records.Validate(kind); err != nil {
			return nil, fmt.Errorf("reidset: %s split: %w", s.name, err)
		}
	}

	junk := slices.Clone(cfg.junk)
	slices.Sort(junk)
	junk = slices.Compact(junk)

	d := &Dataset{
		kind:    kind,
		train:   train.Clone(),
		query:   query.Clone(),
		gallery: gallery.Clone(),
		mode:    cfg.mode,
		junk:    junk,
		seqLen:  cfg.seqLen,
		policy:  cfg.policy,
		verbose: cfg.verbose,
		logger:  cfg.logger,
	}
	d.reindex()

	if cfg.combineAll {
		if err := d.CombineAll(); err != nil {
			return nil, err
		}
	}

	if d.verbose {
		d.logger.LogSummary(context.Background(), d.Summary())
	}
	return d, nil
}

// reindex recomputes the train identity index and item counts.
func (d *Dataset) reindex() {
	d.trainIndex = IndexSplit(d.train)
	d.trainCounts = CountItems(d.train)
}

// Kind returns the record kind of every split.
func (d *Dataset) Kind() Kind { return d.kind }

// Mode returns the split served by Data.
func (d *Dataset) Mode() Mode { return d.mode }

// Train returns the train split. Callers must not modify it.
func (d *Dataset) Train() Split { return d.train }

// Query returns the query split. Callers must not modify it.
func (d *Dataset) Query() Split { return d.query }

// Gallery returns the gallery split. Callers must not modify it.
func (d *Dataset) Gallery() Split { return d.gallery }

// JunkIdentities returns the sorted junk identity ids of the dataset family.
func (d *Dataset) JunkIdentities() []int { return slices.Clone(d.junk) }

// Sequence returns the tracklet target length and sampling policy.
// Both are zero for image datasets.
func (d *Dataset) Sequence() (int, SamplePolicy) { return d.seqLen, d.policy }

// TrainIndex returns the identity and camera counts of the train split.
func (d *Dataset) TrainIndex() IdentityIndex { return d.trainIndex }

// TrainCounts returns the per-identity item counts of the train split.
func (d *Dataset) TrainCounts() DataCounts { return d.trainCounts }

// Data returns the split selected by the dataset's mode.
func (d *Dataset) Data() Split {
	switch d.mode {
	case ModeQuery:
		return d.query
	case ModeGallery:
		return d.gallery
	default:
		return d.train
	}
}

// Len returns the number of records served by Data.
func (d *Dataset) Len() int { return len(d.Data()) }

// Record returns a copy of record i of the active split.
func (d *Dataset) Record(i int) (Record, error) {
	data := d.Data()
	if i < 0 || i >= len(data) {
		return Record{}, fmt.Errorf("reidset: index %d out of range [0, %d)", i, len(data))
	}
	return data[i].Clone(), nil
}

// Frames returns the frame paths to load for tracklet i of the active
// split, chosen by the dataset's sampling policy.
func (d *Dataset) Frames(i int, rng *rand.Rand) ([]string, error) {
	if d.kind != KindTracklet {
		return nil, fmt.Errorf("reidset: %w: frames requested from %s dataset", ErrConfiguration, d.kind)
	}
	r, err := d.Record(i)
	if err != nil {
		return nil, err
	}
	indices, err := ResolveIndices(len(r.Frames), d.seqLen, d.policy, rng)
	if err != nil {
		return nil, fmt.Errorf("reidset: record %d: %w", i, err)
	}
	frames := make([]string, len(indices))
	for j, idx := range indices {
		frames[j] = r.Frames[idx]
	}
	return frames, nil
}

func (d *Dataset) isJunk(objID int) bool {
	_, found := slices.BinarySearch(d.junk, objID)
	return found
}
