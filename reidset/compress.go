package reidset

import (
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// gzipCompressor implements Compressor with gzip.
type gzipCompressor struct{}

// NewGzipCompressor creates a gzip compressor (.gz files).
func NewGzipCompressor() Compressor {
	return &gzipCompressor{}
}

func (g *gzipCompressor) Name() string { return "gzip" }

func (g *gzipCompressor) Extension() string { return ".gz" }

func (g *gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (g *gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// zstdCompressor implements Compressor with Zstandard.
type zstdCompressor struct{}

// NewZstdCompressor creates a zstd compressor (.zst files).
// Annotation splits with long repeated path prefixes compress well with it.
func NewZstdCompressor() Compressor {
	return &zstdCompressor{}
}

func (z *zstdCompressor) Name() string { return "zstd" }

func (z *zstdCompressor) Extension() string { return ".zst" }

func (z *zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (z *zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// noopCompressor passes data through unchanged.
type noopCompressor struct{}

// NewNoOpCompressor creates a compressor that stores data as is.
func NewNoOpCompressor() Compressor {
	return &noopCompressor{}
}

func (n *noopCompressor) Name() string { return "noop" }

func (n *noopCompressor) Extension() string { return "" }

func (n *noopCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (n *noopCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressorByName returns the built-in compressor with the given name.
func compressorByName(name string) (Compressor, bool) {
	switch name {
	case "gzip":
		return NewGzipCompressor(), true
	case "zstd":
		return NewZstdCompressor(), true
	case "noop":
		return NewNoOpCompressor(), true
	default:
		return nil, false
	}
}
