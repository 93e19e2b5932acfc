package reidset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	manifestSchemaName    = "reidset-manifest"
	manifestFormatVersion = "1.0.0"
	manifestFile          = "manifest.json"
)

// Catalog stores datasets as immutable snapshots on a Store.
//
// Layout:
//
//	datasets/<name>/snapshots/<snapshot-id>/manifest.json
//	datasets/<name>/snapshots/<snapshot-id>/data/<split><codec ext><compressor ext>
//
// Data files are written before the manifest; a snapshot without a manifest
// is not visible.
type Catalog struct {
	store      Store
	codec      RecordCodec
	compressor Compressor
	logger     *Logger
}

// NewCatalog creates a catalog.
//
// Defaults: NewJSONLCodec(), NewNoOpCompressor(), NoopLogger().
func NewCatalog(factory StoreFactory, opts ...Option) (*Catalog, error) {
	if factory == nil {
		return nil, errors.New("reidset: store factory is required")
	}
	store, err := factory()
	if err != nil {
		return nil, fmt.Errorf("reidset: store factory failed: %w", err)
	}
	if store == nil {
		return nil, errors.New("reidset: store factory returned nil store")
	}

	cfg := &catalogConfig{
		codec:      NewJSONLCodec(),
		compressor: NewNoOpCompressor(),
		logger:     NoopLogger(),
	}
	for _, opt := range opts {
		if err := opt.applyCatalog(cfg); err != nil {
			return nil, fmt.Errorf("reidset: %w", err)
		}
	}
	if cfg.codec == nil {
		return nil, errors.New("reidset: codec must not be nil")
	}
	if cfg.compressor == nil {
		return nil, errors.New("reidset: compressor must not be nil")
	}
	if cfg.logger == nil {
		return nil, errors.New("reidset: logger must not be nil")
	}

	return &Catalog{
		store:      store,
		codec:      cfg.codec,
		compressor: cfg.compressor,
		logger:     cfg.logger,
	}, nil
}

// Save writes the three splits of ds as a new snapshot of name.
// metadata must be non-nil; use an empty map for none.
func (c *Catalog) Save(ctx context.Context, name string, ds *Dataset, metadata Metadata) (*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errors.New("reidset: dataset must not be nil")
	}
	if metadata == nil {
		return nil, errors.New("reidset: metadata must be non-nil (use empty map {} for no metadata)")
	}

	var parentID SnapshotID
	latest, err := c.Latest(ctx, name)
	if err != nil && !errors.Is(err, ErrNoSnapshots) {
		return nil, fmt.Errorf("reidset: failed to get latest snapshot: %w", err)
	}
	if latest != nil {
		parentID = latest.ID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("reidset: snapshot id: %w", err)
	}
	snapshotID := SnapshotID(id.String())

	files := make([]FileRef, 0, len(splitNames))
	for _, split := range splitNames {
		ref, err := c.writeSplit(ctx, name, snapshotID, split, ds.split(split))
		if err != nil {
			return nil, fmt.Errorf("reidset: failed to write %s split: %w", split, err)
		}
		files = append(files, ref)
	}

	seqLen, policy := ds.Sequence()
	manifest := &Manifest{
		SchemaName:       manifestSchemaName,
		FormatVersion:    manifestFormatVersion,
		Name:             name,
		SnapshotID:       snapshotID,
		ParentSnapshotID: parentID,
		CreatedAt:        time.Now().UTC(),
		Metadata:         metadata,
		Kind:             ds.Kind().String(),
		SeqLen:           seqLen,
		SamplePolicy:     string(policy),
		JunkIdentities:   ds.JunkIdentities(),
		Files:            files,
		Identities:       ds.TrainIndex().TotalIdentities(),
		Cameras:          ds.TrainIndex().TotalCameras(),
		Codec:            c.codec.Name(),
		Compressor:       c.compressor.Name(),
	}

	body, err := jsonCodec.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("reidset: failed to encode manifest: %w", err)
	}
	if err := c.store.Put(ctx, manifestPath(name, snapshotID), bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("reidset: failed to write manifest: %w", err)
	}

	c.logger.InfoContext(ctx, "snapshot saved",
		"name", name,
		"snapshot", string(snapshotID),
		"parent", string(parentID),
	)
	return &Snapshot{ID: snapshotID, Manifest: manifest}, nil
}

// Snapshot retrieves a snapshot by id. Returns ErrNotFound if it does not
// exist.
func (c *Catalog) Snapshot(ctx context.Context, name string, id SnapshotID) (*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if id == "" || strings.Contains(string(id), "/") {
		return nil, ErrInvalidPath
	}
	return c.loadManifest(ctx, manifestPath(name, id), id)
}

// Snapshots lists the committed snapshots of name in creation order.
// An unknown name yields an empty list.
func (c *Catalog) Snapshots(ctx context.Context, name string) ([]*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	paths, err := c.store.List(ctx, snapshotsPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("reidset: failed to list snapshots: %w", err)
	}

	var snapshots []*Snapshot
	for _, p := range paths {
		id, ok := parseManifestPath(name, p)
		if !ok {
			continue
		}
		snap, err := c.loadManifest(ctx, p, id)
		if err != nil {
			return nil, fmt.Errorf("reidset: failed to load snapshot %s: %w", id, err)
		}
		snapshots = append(snapshots, snap)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i].Manifest, snapshots[j].Manifest
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.SnapshotID < b.SnapshotID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot of name, or ErrNoSnapshots.
func (c *Catalog) Latest(ctx context.Context, name string) (*Snapshot, error) {
	snapshots, err := c.Snapshots(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}
	return snapshots[len(snapshots)-1], nil
}

// Names lists the catalog entries that hold at least one committed
// snapshot, sorted. An empty catalog yields an empty list.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	paths, err := c.store.List(ctx, "datasets/")
	if err != nil {
		return nil, fmt.Errorf("reidset: failed to list datasets: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, p := range paths {
		name, _, ok := strings.Cut(strings.TrimPrefix(p, "datasets/"), "/")
		if !ok || seen[name] {
			continue
		}
		if _, ok := parseManifestPath(name, p); !ok {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load rebuilds the dataset stored in snapshot id of name.
//
// Kind, junk identities and sequence settings come from the manifest;
// opts may set mode, combination, verbosity and logger. The snapshot must
// have been written with the catalog's codec. Any built-in compressor is
// accepted.
func (c *Catalog) Load(ctx context.Context, name string, id SnapshotID, opts ...Option) (*Dataset, error) {
	snap, err := c.Snapshot(ctx, name, id)
	if err != nil {
		return nil, err
	}
	m := snap.Manifest

	if m.Codec != c.codec.Name() {
		return nil, fmt.Errorf("reidset: %w: snapshot codec %q, catalog codec %q", ErrManifestInvalid, m.Codec, c.codec.Name())
	}
	compressor := c.compressor
	if m.Compressor != compressor.Name() {
		var ok bool
		if compressor, ok = compressorByName(m.Compressor); !ok {
			return nil, fmt.Errorf("reidset: %w: unknown compressor %q", ErrManifestInvalid, m.Compressor)
		}
	}
	kind, err := ParseKind(m.Kind)
	if err != nil {
		return nil, fmt.Errorf("reidset: %w: %w", ErrManifestInvalid, err)
	}

	splits := make(map[SplitName]Split, len(splitNames))
	for _, ref := range m.Files {
		records, err := c.readSplit(ctx, ref, compressor)
		if err != nil {
			return nil, fmt.Errorf("reidset: failed to read %s split: %w", ref.Split, err)
		}
		splits[ref.Split] = records
	}
	for _, split := range splitNames {
		if _, ok := splits[split]; !ok {
			return nil, fmt.Errorf("reidset: %w: missing %s split", ErrManifestInvalid, split)
		}
	}

	base := []Option{WithJunkIdentities(m.JunkIdentities...), WithLogger(c.logger)}
	if kind == KindTracklet {
		base = append(base, WithSequence(m.SeqLen, SamplePolicy(m.SamplePolicy)))
	}
	return New(kind, splits[SplitTrain], splits[SplitQuery], splits[SplitGallery], append(base, opts...)...)
}

func (c *Catalog) writeSplit(ctx context.Context, name string, id SnapshotID, split SplitName, records Split) (FileRef, error) {
	filePath := dataPath(name, id, string(split)+c.codec.Extension()+c.compressor.Extension())

	var buf bytes.Buffer
	w, err := c.compressor.Compress(&buf)
	if err != nil {
		return FileRef{}, err
	}
	if err := c.codec.Encode(w, records); err != nil {
		_ = w.Close()
		return FileRef{}, err
	}
	if err := w.Close(); err != nil {
		return FileRef{}, err
	}

	size := int64(buf.Len())
	if err := c.store.Put(ctx, filePath, &buf); err != nil {
		return FileRef{}, err
	}
	return FileRef{Split: split, Path: filePath, SizeBytes: size, Records: len(records)}, nil
}

func (c *Catalog) readSplit(ctx context.Context, ref FileRef, compressor Compressor) (Split, error) {
	rc, err := c.store.Get(ctx, ref.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	r, err := compressor.Decompress(rc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	records, err := c.codec.Decode(r)
	if err != nil {
		return nil, err
	}
	if len(records) != ref.Records {
		return nil, fmt.Errorf("%w: %s holds %d records, manifest says %d", ErrManifestInvalid, ref.Path, len(records), ref.Records)
	}
	return records, nil
}

func (c *Catalog) loadManifest(ctx context.Context, p string, id SnapshotID) (*Snapshot, error) {
	rc, err := c.store.Get(ctx, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reidset: failed to get manifest: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var m Manifest
	if err := jsonCodec.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("reidset: %w: %w", ErrManifestInvalid, err)
	}
	if m.SchemaName != manifestSchemaName {
		return nil, fmt.Errorf("reidset: %w: schema %q", ErrManifestInvalid, m.SchemaName)
	}
	if m.SnapshotID != id {
		return nil, fmt.Errorf("reidset: %w: manifest snapshot id %q at %s", ErrManifestInvalid, m.SnapshotID, p)
	}
	return &Snapshot{ID: id, Manifest: &m}, nil
}

// split returns the named split.
func (d *Dataset) split(name SplitName) Split {
	switch name {
	case SplitQuery:
		return d.query
	case SplitGallery:
		return d.gallery
	default:
		return d.train
	}
}

// -----------------------------------------------------------------------------
// Paths
// -----------------------------------------------------------------------------

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("reidset: %w: dataset name %q", ErrInvalidPath, name)
	}
	return nil
}

func snapshotsPrefix(name string) string {
	return path.Join("datasets", name, "snapshots") + "/"
}

func manifestPath(name string, id SnapshotID) string {
	return path.Join("datasets", name, "snapshots", string(id), manifestFile)
}

func dataPath(name string, id SnapshotID, file string) string {
	return path.Join("datasets", name, "snapshots", string(id), "data", file)
}

// parseManifestPath extracts the snapshot id from a manifest path of name.
func parseManifestPath(name, p string) (SnapshotID, bool) {
	rest, ok := strings.CutPrefix(p, snapshotsPrefix(name))
	if !ok {
		return "", false
	}
	id, file, ok := strings.Cut(rest, "/")
	if !ok || file != manifestFile || id == "" {
		return "", false
	}
	return SnapshotID(id), true
}
