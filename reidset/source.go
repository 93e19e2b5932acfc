package reidset

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SourceFormat names the on-store layout of a classification source.
type SourceFormat string

// Supported source formats.
const (
	// FormatAnnotation is an annotation file of "relative/path label" lines.
	FormatAnnotation SourceFormat = "annotation"
	// FormatImageFolder is a directory of per-class image directories.
	FormatImageFolder SourceFormat = "image_folder"
)

// Source describes one classification dataset to load.
type Source struct {
	// Name identifies the source in logs.
	Name string
	// Format selects the loader.
	Format SourceFormat
	// Root is the annotation file (FormatAnnotation) or the class tree root
	// (FormatImageFolder).
	Root string
	// DatasetID scopes the identities of this source.
	DatasetID int
	// FilterClasses restricts FormatImageFolder to the named classes.
	FilterClasses []string
}

// Loaded is a dataset built from a Source together with its classes.
// Classes is nil for annotation sources.
type Loaded struct {
	Source  Source
	Dataset *Dataset
	Classes ClassIndex
}

// LoadSource builds an image dataset from src. Records go to the train
// split in ModeTrain and to the query split in ModeQuery; gallery is empty.
// In ModeGallery every split is empty.
func LoadSource(ctx context.Context, store Store, src Source, mode Mode, opts ...Option) (*Loaded, error) {
	if store == nil {
		return nil, errors.New("reidset: store is required")
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("reidset: source %q: %w", src.Name, err)
	}
	if src.Root == "" {
		return nil, fmt.Errorf("reidset: source %q: %w: root is required", src.Name, ErrConfiguration)
	}

	cfg := &datasetConfig{logger: NoopLogger()}
	for _, opt := range opts {
		if err := opt.applyDataset(cfg); err != nil {
			return nil, fmt.Errorf("reidset: %w", err)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = NoopLogger()
	}
	logger = logger.WithDataset(src.Name)

	var (
		records Split
		classes ClassIndex
		err     error
	)
	if mode != ModeGallery {
		switch src.Format {
		case FormatAnnotation:
			records, err = LoadAnnotationFile(ctx, store, src.Root, src.DatasetID, logger)
		case FormatImageFolder:
			records, classes, err = LoadImageFolder(ctx, store, src.Root, src.FilterClasses, src.DatasetID, logger)
		default:
			return nil, fmt.Errorf("reidset: source %q: %w: unknown format %q", src.Name, ErrInvalidConfiguration, src.Format)
		}
		if err != nil {
			return nil, fmt.Errorf("reidset: source %q: %w", src.Name, err)
		}
	}

	var train, query Split
	if mode == ModeTrain {
		train = records
	} else {
		query = records
	}

	ds, err := New(KindImage, train, query, nil, append(slices.Clone(opts), WithMode(mode), WithLogger(logger))...)
	if err != nil {
		return nil, fmt.Errorf("reidset: source %q: %w", src.Name, err)
	}
	return &Loaded{Source: src, Dataset: ds, Classes: classes}, nil
}

// LoadSources loads every source concurrently and returns them in input
// order. The first failure cancels the remaining loads.
func LoadSources(ctx context.Context, store Store, sources []Source, mode Mode, opts ...Option) ([]*Loaded, error) {
	loaded := make([]*Loaded, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			l, err := LoadSource(ctx, store, src, mode, opts...)
			if err != nil {
				return err
			}
			loaded[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

// BuildTrainSet loads sources in train mode and folds them into a single
// training dataset with disjoint identity and camera ranges per dataset id.
func BuildTrainSet(ctx context.Context, store Store, sources []Source, opts ...Option) (*Dataset, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("reidset: %w: no sources", ErrConfiguration)
	}
	loaded, err := LoadSources(ctx, store, sources, ModeTrain, opts...)
	if err != nil {
		return nil, err
	}
	datasets := make([]*Dataset, len(loaded))
	for i, l := range loaded {
		datasets[i] = l.Dataset
	}
	return Sum(datasets...)
}
