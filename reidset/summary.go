package reidset

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ItemStats describes how many items each identity of a split has.
type ItemStats struct {
	Mean   float64
	StdDev float64
	Min    int
	Max    int
}

// SplitSummary holds the counts reported for one split.
// Identities and Cameras are summed over dataset ids.
type SplitSummary struct {
	Identities       int
	Items            int
	Cameras          int
	ItemsPerIdentity ItemStats
}

// Summary holds the counts of every split of a dataset.
type Summary struct {
	Kind    Kind
	Train   SplitSummary
	Query   SplitSummary
	Gallery SplitSummary
}

// Summarize computes the summary of a single split.
func Summarize(records Split) SplitSummary {
	index := IndexSplit(records)
	return SplitSummary{
		Identities:       index.TotalIdentities(),
		Items:            len(records),
		Cameras:          index.TotalCameras(),
		ItemsPerIdentity: itemStats(CountItems(records)),
	}
}

func itemStats(counts DataCounts) ItemStats {
	var xs []float64
	for _, perID := range counts {
		for _, n := range perID {
			xs = append(xs, float64(n))
		}
	}
	if len(xs) == 0 {
		return ItemStats{}
	}

	st := ItemStats{
		Min: int(floats.Min(xs)),
		Max: int(floats.Max(xs)),
	}
	if len(xs) == 1 {
		st.Mean = xs[0]
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(xs, nil)
	return st
}

// Summary computes the counts of every split.
func (d *Dataset) Summary() Summary {
	return Summary{
		Kind:    d.kind,
		Train:   Summarize(d.train),
		Query:   Summarize(d.query),
		Gallery: Summarize(d.gallery),
	}
}

// Split returns the summary of the named split.
func (s Summary) Split(name SplitName) SplitSummary {
	switch name {
	case SplitQuery:
		return s.Query
	case SplitGallery:
		return s.Gallery
	default:
		return s.Train
	}
}

// String renders the summary as a fixed-width table.
func (s Summary) String() string {
	header, width := "# images", 8
	if s.Kind == KindTracklet {
		header, width = "# tracklets", 11
	}
	rule := "  " + strings.Repeat("-", 32+width) + "\n"

	var b strings.Builder
	b.WriteString(rule)
	fmt.Fprintf(&b, "  subset   | # ids | %s | # cameras\n", header)
	b.WriteString(rule)
	for _, name := range splitNames {
		st := s.Split(name)
		fmt.Fprintf(&b, "  %-8s | %5d | %*d | %9d\n", name, st.Identities, width, st.Items, st.Cameras)
	}
	b.WriteString(rule)
	return b.String()
}
