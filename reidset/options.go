package reidset

import (
	"errors"
	"fmt"
)

// datasetConfig holds the resolved configuration for a dataset.
type datasetConfig struct {
	mode       Mode
	combineAll bool
	verbose    bool
	junk       []int
	seqLen     int
	policy     SamplePolicy
	seqSet     bool
	logger     *Logger
}

// catalogConfig holds the resolved configuration for a catalog.
type catalogConfig struct {
	codec      RecordCodec
	compressor Compressor
	logger     *Logger
}

// Option configures dataset or catalog construction.
// Options implement methods for the constructors they support.
// Using an option with an unsupported constructor returns an error.
type Option interface {
	applyDataset(*datasetConfig) error
	applyCatalog(*catalogConfig) error
}

// ErrOptionNotValidForCatalog indicates an option was used with NewCatalog
// that only applies to New.
var ErrOptionNotValidForCatalog = errors.New("option not valid for catalog")

// ErrOptionNotValidForDataset indicates an option was used with New that
// only applies to NewCatalog.
var ErrOptionNotValidForDataset = errors.New("option not valid for dataset")

// -----------------------------------------------------------------------------
// Dataset options
// -----------------------------------------------------------------------------

type modeOption struct {
	mode Mode
}

// WithMode selects the split returned by Data.
// Default: ModeTrain.
func WithMode(m Mode) Option {
	return &modeOption{mode: m}
}

func (o *modeOption) applyDataset(cfg *datasetConfig) error {
	cfg.mode = o.mode
	return nil
}

func (o *modeOption) applyCatalog(*catalogConfig) error {
	return fmt.Errorf("WithMode: %w", ErrOptionNotValidForCatalog)
}

type combineAllOption struct {
	enabled bool
}

// WithCombineAll folds query and gallery into train at construction.
// Default: false.
func WithCombineAll(enabled bool) Option {
	return &combineAllOption{enabled: enabled}
}

func (o *combineAllOption) applyDataset(cfg *datasetConfig) error {
	cfg.combineAll = o.enabled
	return nil
}

func (o *combineAllOption) applyCatalog(*catalogConfig) error {
	return fmt.Errorf("WithCombineAll: %w", ErrOptionNotValidForCatalog)
}

type verboseOption struct {
	enabled bool
}

// WithVerbose logs the split summary once construction completes.
// Default: false.
func WithVerbose(enabled bool) Option {
	return &verboseOption{enabled: enabled}
}

func (o *verboseOption) applyDataset(cfg *datasetConfig) error {
	cfg.verbose = o.enabled
	return nil
}

func (o *verboseOption) applyCatalog(*catalogConfig) error {
	return fmt.Errorf("WithVerbose: %w", ErrOptionNotValidForCatalog)
}

type junkOption struct {
	ids []int
}

// WithJunkIdentities sets the identity ids of the dataset family that
// CombineAll drops from query and gallery (background, false detections).
// Default: none.
func WithJunkIdentities(ids ...int) Option {
	return &junkOption{ids: append([]int(nil), ids...)}
}

func (o *junkOption) applyDataset(cfg *datasetConfig) error {
	cfg.junk = o.ids
	return nil
}

func (o *junkOption) applyCatalog(*catalogConfig) error {
	return fmt.Errorf("WithJunkIdentities: %w", ErrOptionNotValidForCatalog)
}

type sequenceOption struct {
	seqLen int
	policy SamplePolicy
}

// WithSequence sets the tracklet target length and sampling policy.
// Only valid for tracklet datasets. Default: DefaultSeqLen, SampleEvenly.
func WithSequence(seqLen int, policy SamplePolicy) Option {
	return &sequenceOption{seqLen: seqLen, policy: policy}
}

func (o *sequenceOption) applyDataset(cfg *datasetConfig) error {
	cfg.seqLen = o.seqLen
	cfg.policy = o.policy
	cfg.seqSet = true
	return nil
}

func (o *sequenceOption) applyCatalog(*catalogConfig) error {
	return fmt.Errorf("WithSequence: %w", ErrOptionNotValidForCatalog)
}

// -----------------------------------------------------------------------------
// Catalog options
// -----------------------------------------------------------------------------

type codecOption struct {
	codec RecordCodec
}

// WithCodec sets the record codec of the catalog.
// Default: NewJSONLCodec().
func WithCodec(c RecordCodec) Option {
	return &codecOption{codec: c}
}

func (o *codecOption) applyDataset(*datasetConfig) error {
	return fmt.Errorf("WithCodec: %w", ErrOptionNotValidForDataset)
}

func (o *codecOption) applyCatalog(cfg *catalogConfig) error {
	cfg.codec = o.codec
	return nil
}

type compressorOption struct {
	compressor Compressor
}

// WithCompressor sets the compressor of the catalog.
// Default: NewNoOpCompressor().
func WithCompressor(c Compressor) Option {
	return &compressorOption{compressor: c}
}

func (o *compressorOption) applyDataset(*datasetConfig) error {
	return fmt.Errorf("WithCompressor: %w", ErrOptionNotValidForDataset)
}

func (o *compressorOption) applyCatalog(cfg *catalogConfig) error {
	cfg.compressor = o.compressor
	return nil
}

// -----------------------------------------------------------------------------
// Shared options
// -----------------------------------------------------------------------------

type loggerOption struct {
	logger *Logger
}

// WithLogger sets the logger of a dataset or catalog.
// Default: NoopLogger().
func WithLogger(l *Logger) Option {
	return &loggerOption{logger: l}
}

func (o *loggerOption) applyDataset(cfg *datasetConfig) error {
	cfg.logger = o.logger
	return nil
}

func (o *loggerOption) applyCatalog(cfg *catalogConfig) error {
	cfg.logger = o.logger
	return nil
}
