package reidset

import (
	"fmt"
	"slices"
)

// Kind is the record shape shared by every split of a dataset.
type Kind int

const (
	// KindImage records reference a single image path.
	KindImage Kind = iota
	// KindTracklet records reference an ordered sequence of frame paths.
	KindTracklet
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindTracklet:
		return "tracklet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "image" or "tracklet" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "image":
		return KindImage, nil
	case "tracklet":
		return KindTracklet, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidConfiguration, s)
	}
}

// NoAux is the value of an unused auxiliary slot.
const NoAux = -1

// Record is a single annotated sample.
//
// ObjID and CamID are only meaningful within the same DatasetID. Exactly one
// of Path (image) or Frames (tracklet) is set, matching the dataset's Kind.
type Record struct {
	Path      string   `json:"img_path,omitempty"`
	Frames    []string `json:"frames,omitempty"`
	ObjID     int      `json:"obj_id"`
	CamID     int      `json:"cam_id"`
	DatasetID int      `json:"dataset_id"`
	MaskPath  string   `json:"mask_path,omitempty"`

	// Aux holds reserved pass-through values. Unused slots hold NoAux.
	Aux [2]int `json:"aux"`
}

// NewImageRecord returns an image record with empty auxiliary slots.
func NewImageRecord(path string, objID, camID, datasetID int) Record {
	return Record{
		Path:      path,
		ObjID:     objID,
		CamID:     camID,
		DatasetID: datasetID,
		Aux:       [2]int{NoAux, NoAux},
	}
}

// NewTrackletRecord returns a tracklet record over a copy of frames.
func NewTrackletRecord(frames []string, objID, camID, datasetID int) Record {
	return Record{
		Frames:    slices.Clone(frames),
		ObjID:     objID,
		CamID:     camID,
		DatasetID: datasetID,
		Aux:       [2]int{NoAux, NoAux},
	}
}

// Validate checks that the record is well formed for the given kind.
// Identity ids are not checked for sign here; junk ids such as -1 are legal
// in query and gallery splits.
func (r Record) Validate(kind Kind) error {
	switch kind {
	case KindImage:
		if r.Path == "" {
			return fmt.Errorf("%w: image record without path", ErrConfiguration)
		}
		if len(r.Frames) != 0 {
			return fmt.Errorf("%w: image record %q carries frames", ErrConfiguration, r.Path)
		}
	case KindTracklet:
		if len(r.Frames) == 0 {
			return fmt.Errorf("%w: tracklet record without frames", ErrConfiguration)
		}
		if r.Path != "" {
			return fmt.Errorf("%w: tracklet record carries image path %q", ErrConfiguration, r.Path)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidConfiguration, int(kind))
	}
	if r.CamID < 0 {
		return fmt.Errorf("%w: negative camera id %d", ErrConfiguration, r.CamID)
	}
	if r.DatasetID < 0 {
		return fmt.Errorf("%w: negative dataset id %d", ErrConfiguration, r.DatasetID)
	}
	return nil
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	r.Frames = slices.Clone(r.Frames)
	return r
}

// Split is an ordered collection of records.
type Split []Record

// Clone returns a deep copy of the split.
func (s Split) Clone() Split {
	if s == nil {
		return nil
	}
	out := make(Split, len(s))
	for i, r := range s {
		out[i] = r.Clone()
	}
	return out
}

// Validate checks every record against kind.
func (s Split) Validate(kind Kind) error {
	for i, r := range s {
		if err := r.Validate(kind); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
