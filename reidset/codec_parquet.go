package reidset

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetCompression specifies internal Parquet page compression.
type ParquetCompression int

// Parquet compression options.
const (
	ParquetCompressionSnappy ParquetCompression = iota
	ParquetCompressionGzip
	ParquetCompressionNone
)

// ParquetOption configures the Parquet codec.
type ParquetOption func(*parquetCodec)

// WithParquetCompression sets internal Parquet compression.
// Default: ParquetCompressionSnappy.
func WithParquetCompression(c ParquetCompression) ParquetOption {
	return func(p *parquetCodec) {
		p.compression = c
	}
}

// parquetRow is the on-disk column layout of a Record.
type parquetRow struct {
	ImagePath string   `parquet:"img_path"`
	Frames    []string `parquet:"frames,list"`
	ObjID     int64    `parquet:"obj_id"`
	CamID     int64    `parquet:"cam_id"`
	DatasetID int64    `parquet:"dataset_id"`
	MaskPath  string   `parquet:"mask_path"`
	Aux0      int64    `parquet:"aux0"`
	Aux1      int64    `parquet:"aux1"`
}

func toParquetRow(r Record) parquetRow {
	return parquetRow{
		ImagePath: r.Path,
		Frames:    r.Frames,
		ObjID:     int64(r.ObjID),
		CamID:     int64(r.CamID),
		DatasetID: int64(r.DatasetID),
		MaskPath:  r.MaskPath,
		Aux0:      int64(r.Aux[0]),
		Aux1:      int64(r.Aux[1]),
	}
}

func (p parquetRow) record() Record {
	r := Record{
		Path:      p.ImagePath,
		ObjID:     int(p.ObjID),
		CamID:     int(p.CamID),
		DatasetID: int(p.DatasetID),
		MaskPath:  p.MaskPath,
		Aux:       [2]int{int(p.Aux0), int(p.Aux1)},
	}
	if len(p.Frames) > 0 {
		r.Frames = append([]string(nil), p.Frames...)
	}
	return r
}

// ErrInvalidFormat indicates a data file that cannot be decoded.
var ErrInvalidFormat = errors.New("invalid format")

// parquetCodec implements RecordCodec for Apache Parquet.
type parquetCodec struct {
	compression ParquetCompression
}

// NewParquetCodec creates a Parquet codec with a fixed record schema.
//
// A split is written as one Parquet file with a single row group, so the
// whole split is buffered in memory during Encode and Decode.
func NewParquetCodec(opts ...ParquetOption) RecordCodec {
	c := &parquetCodec{compression: ParquetCompressionSnappy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *parquetCodec) Name() string { return "parquet" }

func (c *parquetCodec) Extension() string { return ".parquet" }

func (c *parquetCodec) Encode(w io.Writer, records Split) error {
	rows := make([]parquetRow, len(records))
	for i, r := range records {
		rows[i] = toParquetRow(r)
	}

	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[parquetRow](&buf, c.compressionOption())
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}

	_, err := io.Copy(w, &buf)
	return err
}

func (c *parquetCodec) Decode(r io.Reader) (Split, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parquet: read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidFormat
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidFormat
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if file.NumRows() == 0 {
		return Split{}, nil
	}

	reader := parquet.NewGenericReader[parquetRow](file)
	defer func() { _ = reader.Close() }()

	rows := make([]parquetRow, file.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read rows: %w", ErrInvalidFormat, err)
	}
	rows = rows[:n]

	records := make(Split, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

func (c *parquetCodec) compressionOption() parquet.WriterOption {
	switch c.compression {
	case ParquetCompressionGzip:
		return parquet.Compression(&parquet.Gzip)
	case ParquetCompressionNone:
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}
