package reidset

import (
	"bufio"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLineSize bounds a single encoded record; long tracklets can reach
// thousands of frame paths.
const maxLineSize = 10 * 1024 * 1024

// jsonlCodec implements RecordCodec using JSON Lines.
type jsonlCodec struct{}

// NewJSONLCodec creates a JSON Lines codec. Each record is one line.
func NewJSONLCodec() RecordCodec {
	return &jsonlCodec{}
}

func (j *jsonlCodec) Name() string { return "jsonl" }

func (j *jsonlCodec) Extension() string { return ".jsonl" }

func (j *jsonlCodec) Encode(w io.Writer, records Split) error {
	enc := jsonCodec.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("jsonl: encode record %d: %w", i, err)
		}
	}
	return nil
}

func (j *jsonlCodec) Decode(r io.Reader) (Split, error) {
	records := Split{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		rec := Record{Aux: [2]int{NoAux, NoAux}}
		if err := jsonCodec.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("jsonl: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
