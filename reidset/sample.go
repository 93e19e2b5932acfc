package reidset

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// SamplePolicy selects how frames are drawn from a tracklet.
type SamplePolicy string

const (
	// SampleRandom draws indices uniformly, with replacement only when the
	// tracklet is shorter than the target length, then sorts them.
	SampleRandom SamplePolicy = "random"

	// SampleEvenly takes evenly spaced indices over the tracklet truncated to
	// a multiple of the target length, padding with the last frame when the
	// tracklet is too short.
	SampleEvenly SamplePolicy = "evenly"

	// SampleAll returns every frame in order and ignores the target length.
	// Batches built from it must have size 1.
	SampleAll SamplePolicy = "all"
)

// DefaultSeqLen is the tracklet target length used when none is configured.
const DefaultSeqLen = 15

// ParseSamplePolicy validates a policy name.
func ParseSamplePolicy(s string) (SamplePolicy, error) {
	switch p := SamplePolicy(s); p {
	case SampleRandom, SampleEvenly, SampleAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown sample policy %q", ErrInvalidConfiguration, s)
	}
}

// ResolveIndices returns the frame indices to load from a tracklet of n
// frames for a target length l.
//
// For SampleRandom and SampleEvenly the result always has length l; for
// SampleAll it has length n. rng is only consulted by SampleRandom; a nil rng
// uses the global source, which is safe for concurrent use.
func ResolveIndices(n, l int, policy SamplePolicy, rng *rand.Rand) ([]int, error) {
	switch policy {
	case SampleRandom, SampleEvenly, SampleAll:
	default:
		return nil, fmt.Errorf("%w: unknown sample policy %q", ErrInvalidConfiguration, policy)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: empty tracklet", ErrConfiguration)
	}
	if policy == SampleAll {
		return identityIndices(n), nil
	}
	if l <= 0 {
		return nil, fmt.Errorf("%w: target length must be positive, got %d", ErrConfiguration, l)
	}

	if policy == SampleRandom {
		return sampleRandom(n, l, rng), nil
	}
	return sampleEvenly(n, l), nil
}

func sampleRandom(n, l int, rng *rand.Rand) []int {
	intN := rand.IntN
	perm := rand.Perm
	if rng != nil {
		intN = rng.IntN
		perm = rng.Perm
	}

	var indices []int
	if n >= l {
		indices = perm(n)[:l]
	} else {
		indices = make([]int, l)
		for i := range indices {
			indices[i] = intN(n)
		}
	}
	slices.Sort(indices)
	return indices
}

func sampleEvenly(n, l int) []int {
	if n < l {
		indices := identityIndices(n)
		for len(indices) < l {
			indices = append(indices, n-1)
		}
		return indices
	}

	n -= n % l
	step := n / l
	indices := make([]int, l)
	for i := range indices {
		indices[i] = i * step
	}
	return indices
}

func identityIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
