package reidset

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func putFiles(t *testing.T, store Store, files map[string]string) {
	t.Helper()
	for p, body := range files {
		require.NoError(t, store.Put(context.Background(), p, strings.NewReader(body)), "put %s", p)
	}
}

func TestLoadAnnotationFile(t *testing.T) {
	annotations := strings.Join([]string{
		"images/a.jpg 0",
		"images/b.jpg 3",
		"",
		"images/missing.jpg 1",
		"images/c.jpg x",
		"images/c.jpg 2 extra",
		"images/c.jpg 2",
	}, "\n")

	store := NewMemory()
	putFiles(t, store, map[string]string{
		"flowers/images/a.jpg": "",
		"flowers/images/b.jpg": "",
		"flowers/images/c.jpg": "",
		"flowers/train.txt":    annotations,
	})

	var logs bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&logs, nil))

	records, err := LoadAnnotationFile(t.Context(), store, "flowers/train.txt", 4, logger)
	require.NoError(t, err)
	require.Equal(t, Split{
		NewImageRecord("flowers/images/a.jpg", 0, 0, 4),
		NewImageRecord("flowers/images/b.jpg", 3, 0, 4),
		NewImageRecord("flowers/images/c.jpg", 2, 0, 4),
	}, records)

	out := logs.String()
	require.Equal(t, 3, strings.Count(out, "entry skipped"), out)
	require.Contains(t, out, "image does not exist")
	require.Contains(t, out, "label is not an integer")
}

func TestLoadAnnotationFile_Missing(t *testing.T) {
	_, err := LoadAnnotationFile(t.Context(), NewMemory(), "nope/train.txt", 0, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadImageFolder(t *testing.T) {
	store := NewMemory()
	putFiles(t, store, map[string]string{
		"pets/train/dog/1.jpg":        "",
		"pets/train/dog/nested/2.PNG": "",
		"pets/train/dog/.hidden.jpg":  "",
		"pets/train/dog/notes.txt":    "",
		"pets/train/cat/3.jpeg":       "",
		"pets/train/bird/4.gif":       "",
		"pets/train/README":           "",
	})

	records, classes, err := LoadImageFolder(t.Context(), store, "pets/train", nil, 1, nil)
	require.NoError(t, err)
	require.Equal(t, ClassIndex{"bird": 0, "cat": 1, "dog": 2}, classes)
	require.Equal(t, []string{"bird", "cat", "dog"}, classes.Names())
	require.Equal(t, Split{
		NewImageRecord("pets/train/bird/4.gif", 0, 0, 1),
		NewImageRecord("pets/train/cat/3.jpeg", 1, 0, 1),
		NewImageRecord("pets/train/dog/1.jpg", 2, 0, 1),
		NewImageRecord("pets/train/dog/nested/2.PNG", 2, 0, 1),
	}, records)
}

func TestLoadImageFolder_Filter(t *testing.T) {
	store := NewMemory()
	putFiles(t, store, map[string]string{
		"pets/dog/1.jpg":  "",
		"pets/cat/2.jpg":  "",
		"pets/bird/3.jpg": "",
	})

	records, classes, err := LoadImageFolder(t.Context(), store, "pets/", []string{"dog", "bird"}, 0, nil)
	require.NoError(t, err)
	require.Equal(t, ClassIndex{"bird": 0, "dog": 1}, classes)
	require.Len(t, records, 2)
	require.Equal(t, 1, records[1].ObjID)
}

func TestLoadImageFolder_EmptyWarns(t *testing.T) {
	var logs bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&logs, nil))

	records, classes, err := LoadImageFolder(t.Context(), NewMemory(), "empty", nil, 0, logger)
	require.NoError(t, err)
	require.Empty(t, records)
	require.Empty(t, classes)
	require.Contains(t, logs.String(), "no images")
}

func TestCheckClassesConsistency(t *testing.T) {
	ref := ClassIndex{"a": 0, "b": 1}

	require.True(t, CheckClassesConsistency(ref, ClassIndex{"b": 0, "a": 1}, true))
	require.False(t, CheckClassesConsistency(ref, ClassIndex{"a": 0, "b": 1, "c": 2}, true))
	require.True(t, CheckClassesConsistency(ref, ClassIndex{"a": 0, "b": 1, "c": 2}, false))
	require.False(t, CheckClassesConsistency(ref, ClassIndex{"a": 0, "c": 1}, false))
	require.False(t, CheckClassesConsistency(ref, ClassIndex{"a": 0}, false))
}
