// Package reidset provides identity-labelled dataset splits for
// re-identification and classification training: records, identity
// indexing, split combination, tracklet frame sampling, and persistence of
// splits as immutable snapshots on object storage.
//
// Reidset focuses on the bookkeeping around samples. It does not decode
// media, apply transforms, or run models.
package reidset

import (
	"context"
	"errors"
	"io"
	"time"
)

// -----------------------------------------------------------------------------
// Core types
// -----------------------------------------------------------------------------

// SnapshotID uniquely identifies an immutable snapshot within a catalog entry.
type SnapshotID string

// Metadata holds user-defined key-value pairs stored with a snapshot.
type Metadata map[string]any

// SplitName names one of the three partitions of a dataset.
type SplitName string

// Split names, in the order they are stored and reported.
const (
	SplitTrain   SplitName = "train"
	SplitQuery   SplitName = "query"
	SplitGallery SplitName = "gallery"
)

// splitNames lists the splits in storage order.
var splitNames = []SplitName{SplitTrain, SplitQuery, SplitGallery}

// -----------------------------------------------------------------------------
// Manifest
// -----------------------------------------------------------------------------

// Manifest describes the complete contents of a dataset snapshot.
type Manifest struct {
	// SchemaName identifies the manifest schema ("reidset-manifest").
	SchemaName string `json:"schema_name"`

	// FormatVersion identifies the manifest schema version.
	FormatVersion string `json:"format_version"`

	// Name is the catalog entry this snapshot belongs to.
	Name string `json:"name"`

	// SnapshotID uniquely identifies this snapshot.
	SnapshotID SnapshotID `json:"snapshot_id"`

	// ParentSnapshotID references the previous snapshot of the same entry.
	ParentSnapshotID SnapshotID `json:"parent_snapshot_id,omitempty"`

	// CreatedAt records when the snapshot was committed.
	CreatedAt time.Time `json:"created_at"`

	// Metadata contains user-provided key-value pairs.
	Metadata Metadata `json:"metadata"`

	// Kind is the record kind shared by every split ("image" or "tracklet").
	Kind string `json:"kind"`

	// SeqLen and SamplePolicy carry tracklet sampling settings.
	// Zero values for image datasets.
	SeqLen       int    `json:"seq_len,omitempty"`
	SamplePolicy string `json:"sample_policy,omitempty"`

	// JunkIdentities is the junk identity set of the dataset family.
	JunkIdentities []int `json:"junk_identities,omitempty"`

	// Files lists one data file per split.
	Files []FileRef `json:"files"`

	// Identities and Cameras total the train split's index over all dataset ids.
	Identities int `json:"identities"`
	Cameras    int `json:"cameras"`

	// Codec records the codec used to serialize records (e.g., "jsonl").
	Codec string `json:"codec"`

	// Compressor records the compression format (e.g., "gzip", "noop").
	Compressor string `json:"compressor"`
}

// FileRef describes the data file of a single split.
type FileRef struct {
	// Split names the split stored in this file.
	Split SplitName `json:"split"`

	// Path is the store path of the file.
	Path string `json:"path"`

	// SizeBytes is the file size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// Records is the number of records in the file.
	Records int `json:"records"`
}

// Snapshot represents an immutable point-in-time copy of a dataset.
type Snapshot struct {
	ID       SnapshotID
	Manifest *Manifest
}

// -----------------------------------------------------------------------------
// Store interface
// -----------------------------------------------------------------------------

// Store abstracts the underlying object storage system.
//
// Implementations may target filesystems, S3, or other object stores.
// Annotation loaders and the catalog only go through this interface.
type Store interface {
	// Put writes data to the given path.
	Put(ctx context.Context, path string, r io.Reader) error

	// Get retrieves data from the given path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the path if it exists.
	Delete(ctx context.Context, path string) error
}

// StoreFactory creates a Store. Constructors that need storage take a
// factory so that store creation errors surface at construction time.
type StoreFactory func() (Store, error)

// -----------------------------------------------------------------------------
// Codec interface
// -----------------------------------------------------------------------------

// RecordCodec handles serialization and deserialization of a split.
//
// Codecs are pluggable and orthogonal to storage and compression.
type RecordCodec interface {
	// Name returns the codec identifier (for example, "jsonl" or "parquet").
	Name() string

	// Extension returns the data file extension (for example, ".jsonl").
	Extension() string

	// Encode writes records to the given writer.
	Encode(w io.Writer, records Split) error

	// Decode reads records from the given reader.
	Decode(r io.Reader) (Split, error)
}

// -----------------------------------------------------------------------------
// Compressor interface
// -----------------------------------------------------------------------------

// Compressor handles compression and decompression of data streams.
type Compressor interface {
	// Name returns the compressor identifier (for example, "gzip", "zstd", "noop").
	Name() string

	// Extension returns the file extension (for example, ".gz", ".zst", "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrConfiguration indicates invalid or missing required input: an empty
	// split passed to combination, a malformed record, or an unresolvable
	// required path.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidConfiguration indicates an unrecognized setting such as a
	// sampling policy or split mode.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoSnapshots indicates a catalog entry has no committed snapshots.
	ErrNoSnapshots = errors.New("no snapshots")

	// ErrPathExists indicates an attempt to write to an existing path.
	ErrPathExists = errors.New("path exists")

	// ErrManifestInvalid indicates a manifest that cannot be loaded with the
	// catalog's configuration.
	ErrManifestInvalid = errors.New("invalid manifest")
)
