package reidset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"
)

// ClassIndex maps a class name to its label.
type ClassIndex map[string]int

// Names returns the class names ordered by label.
func (c ClassIndex) Names() []string {
	names := slices.Collect(maps.Keys(c))
	slices.SortFunc(names, func(a, b string) int { return c[a] - c[b] })
	return names
}

// imageExtensions lists the file extensions accepted by LoadImageFolder.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// LoadAnnotationFile reads an annotation file of "relative/path label" lines.
//
// Image paths are resolved against the directory holding the annotation
// file. Malformed lines and images missing from the store are skipped and
// logged. Camera ids are 0 for every record.
func LoadAnnotationFile(ctx context.Context, store Store, annotPath string, datasetID int, logger *Logger) (Split, error) {
	if logger == nil {
		logger = NoopLogger()
	}
	rc, err := store.Get(ctx, annotPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("reidset: %w: annotation file %q not found", ErrConfiguration, annotPath)
		}
		return nil, fmt.Errorf("reidset: open annotation %q: %w", annotPath, err)
	}
	defer func() { _ = rc.Close() }()

	dataDir := path.Dir(annotPath)
	var records Split
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			logger.LogSkipped(ctx, annotPath, line, "expected 'relative/path label'")
			continue
		}
		label, err := strconv.Atoi(parts[1])
		if err != nil {
			logger.LogSkipped(ctx, annotPath, line, "label is not an integer")
			continue
		}

		imgPath := path.Join(dataDir, parts[0])
		ok, err := store.Exists(ctx, imgPath)
		if err != nil {
			return nil, fmt.Errorf("reidset: check %q: %w", imgPath, err)
		}
		if !ok {
			logger.LogSkipped(ctx, annotPath, imgPath, "image does not exist")
			continue
		}
		records = append(records, NewImageRecord(imgPath, label, 0, datasetID))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reidset: read annotation %q: %w", annotPath, err)
	}
	return records, nil
}

// LoadImageFolder builds image records from a tree of class directories:
//
//	<root>/<class>/.../<image>
//
// Classes are the first-level directories under root, sorted by name and
// labelled from 0. If filter is non-empty only the named classes are kept.
// Hidden files and files without an image extension are ignored. Records
// are ordered by class, then by path.
func LoadImageFolder(ctx context.Context, store Store, root string, filter []string, datasetID int, logger *Logger) (Split, ClassIndex, error) {
	if logger == nil {
		logger = NoopLogger()
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if root == "" || root == "." {
		prefix = ""
	}
	paths, err := store.List(ctx, prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("reidset: list %q: %w", root, err)
	}

	byClass := make(map[string][]string)
	for _, p := range paths {
		rel := strings.TrimPrefix(p, prefix)
		class, rest, ok := strings.Cut(rel, "/")
		if !ok || class == "" {
			continue
		}
		if len(filter) > 0 && !slices.Contains(filter, class) {
			continue
		}
		if _, seen := byClass[class]; !seen {
			byClass[class] = nil
		}
		if isImageFile(rest) {
			byClass[class] = append(byClass[class], p)
		}
	}

	classes := make(ClassIndex, len(byClass))
	var records Split
	for i, class := range slices.Sorted(maps.Keys(byClass)) {
		classes[class] = i
		files := byClass[class]
		slices.Sort(files)
		for _, f := range files {
			records = append(records, NewImageRecord(f, i, 0, datasetID))
		}
	}

	if len(records) == 0 {
		logger.LogSkipped(ctx, root, root, fmt.Sprintf("no images with extensions %v", imageExtensions))
	}
	return records, classes, nil
}

func isImageFile(rel string) bool {
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(path.Ext(base))
	return slices.Contains(imageExtensions, ext)
}

// CheckClassesConsistency reports whether probe covers the classes of ref.
// In strict mode both must hold exactly the same class names.
func CheckClassesConsistency(ref, probe ClassIndex, strict bool) bool {
	if strict {
		if len(ref) != len(probe) {
			return false
		}
		return slices.Equal(slices.Sorted(maps.Keys(ref)), slices.Sorted(maps.Keys(probe)))
	}
	if len(ref) > len(probe) {
		return false
	}
	for name := range ref {
		if _, ok := probe[name]; !ok {
			return false
		}
	}
	return true
}
