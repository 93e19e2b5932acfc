package reidset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleRecords() Split {
	masked := NewImageRecord("imgs/0001_c2_f0003.jpg", 1, 2, 0)
	masked.MaskPath = "masks/0001_c2_f0003.png"
	masked.Aux = [2]int{4, NoAux}
	return Split{
		NewImageRecord("imgs/0000_c1_f0001.jpg", 0, 1, 0),
		masked,
		NewImageRecord("other/12.png", -1, 0, 3),
	}
}

func sampleTracklets() Split {
	return Split{
		NewTrackletRecord([]string{"t/0/0.jpg", "t/0/1.jpg", "t/0/2.jpg"}, 0, 0, 0),
		NewTrackletRecord([]string{"t/1/0.jpg"}, 5, 3, 1),
	}
}

func roundTrip(t *testing.T, codec RecordCodec, records Split) Split {
	t.Helper()

	var buf bytes.Buffer
	if err := codec.Encode(&buf, records); err != nil {
		t.Fatalf("%s Encode failed: %v", codec.Name(), err)
	}
	got, err := codec.Decode(&buf)
	if err != nil {
		t.Fatalf("%s Decode failed: %v", codec.Name(), err)
	}
	return got
}

func TestCodecs_PreserveRecords(t *testing.T) {
	codecs := []RecordCodec{
		NewJSONLCodec(),
		NewParquetCodec(),
		NewParquetCodec(WithParquetCompression(ParquetCompressionGzip)),
		NewParquetCodec(WithParquetCompression(ParquetCompressionNone)),
	}
	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			for _, records := range []Split{sampleRecords(), sampleTracklets()} {
				if diff := cmp.Diff(records, roundTrip(t, codec, records)); diff != "" {
					t.Errorf("records mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestJSONLCodec_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONLCodec().Encode(&buf, Split{NewImageRecord("a.jpg", 3, 1, 0)}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `{"img_path":"a.jpg","obj_id":3,"cam_id":1,"dataset_id":0,"aux":[-1,-1]}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}
}

func TestJSONLCodec_DefaultsMissingAux(t *testing.T) {
	in := `{"img_path":"a.jpg","obj_id":3,"cam_id":1,"dataset_id":0}` + "\n\n"
	got, err := NewJSONLCodec().Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(Split{NewImageRecord("a.jpg", 3, 1, 0)}, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONLCodec_EmptyInput(t *testing.T) {
	got, err := NewJSONLCodec().Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil split, got %#v", got)
	}
}

func TestJSONLCodec_MalformedLine(t *testing.T) {
	in := `{"img_path":"a.jpg","obj_id":0,"cam_id":0,"dataset_id":0}` + "\n{not json\n"
	_, err := NewJSONLCodec().Decode(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}

func TestParquetCodec_InvalidInput(t *testing.T) {
	codec := NewParquetCodec()
	if _, err := codec.Decode(bytes.NewReader(nil)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("empty input: expected ErrInvalidFormat, got %v", err)
	}
	if _, err := codec.Decode(strings.NewReader("definitely not parquet")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("garbage input: expected ErrInvalidFormat, got %v", err)
	}
}

func TestCompressors_RoundTrip(t *testing.T) {
	payload := strings.Repeat("datasets/market1501/bounding_box_train/0002_c1s1_000451_03.jpg\n", 200)

	for _, c := range []Compressor{NewGzipCompressor(), NewZstdCompressor(), NewNoOpCompressor()} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := c.Compress(&buf)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if _, err := w.Write([]byte(payload)); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if c.Name() != "noop" && buf.Len() >= len(payload) {
				t.Errorf("compressed size %d not smaller than %d", buf.Len(), len(payload))
			}

			r, err := c.Decompress(&buf)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			defer func() { _ = r.Close() }()
			var out bytes.Buffer
			if _, err := out.ReadFrom(r); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if out.String() != payload {
				t.Error("payload mismatch after round trip")
			}
		})
	}
}

func TestCompressorByName(t *testing.T) {
	for _, name := range []string{"gzip", "zstd", "noop"} {
		c, ok := compressorByName(name)
		if !ok || c.Name() != name {
			t.Errorf("compressorByName(%q) = %v, %v", name, c, ok)
		}
	}
	if _, ok := compressorByName("lz4"); ok {
		t.Error("unexpected compressor for lz4")
	}
}
