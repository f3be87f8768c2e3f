package observability

import (
	"fmt"
	"slices"
)

// Snapshot is a point-in-time view of a Registry, ordered by family name.
// Every series reflects one atomic state of its metric; families are not
// consistent with each other.
type Snapshot []Family

type Family struct {
	Name      string
	Help      string
	Kind      MetricKind
	LabelKeys []string
	Series    []Series
}

// Series holds the aggregate for one label combination. LabelValues is
// aligned with the owning Family's LabelKeys.
type Series struct {
	LabelValues []string
	Value       float64
	Count       uint64
	Sum         float64
	Quantiles   []Quantile
	Buckets     []Bucket
}

type Quantile struct {
	Quantile float64
	Value    float64
}

type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

func (s Snapshot) Family(name string) (Family, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

func (f Family) Lookup(labelValues ...string) (Series, bool) {
	for _, s := range f.Series {
		if slices.Equal(s.LabelValues, labelValues) {
			return s, true
		}
	}
	return Series{}, false
}

// Validate reports ErrInconsistentSnapshot for any series that cannot be
// serialized as-is.
func (s Snapshot) Validate() error {
	for _, f := range s {
		if f.Name == "" {
			return fmt.Errorf("family without name: %w", ErrInconsistentSnapshot)
		}
		for _, series := range f.Series {
			if len(series.LabelValues) != len(f.LabelKeys) {
				return fmt.Errorf("%s: %d label values for %d label keys: %w",
					f.Name, len(series.LabelValues), len(f.LabelKeys), ErrInconsistentSnapshot)
			}
			if f.Kind == KindHistogram {
				var prev uint64
				for _, b := range series.Buckets {
					if b.CumulativeCount < prev {
						return fmt.Errorf("%s: bucket counts decrease: %w", f.Name, ErrInconsistentSnapshot)
					}
					prev = b.CumulativeCount
				}
				if prev > series.Count {
					return fmt.Errorf("%s: bucket count exceeds sample count: %w", f.Name, ErrInconsistentSnapshot)
				}
			}
			for _, q := range series.Quantiles {
				if q.Quantile < 0 || q.Quantile > 1 {
					return fmt.Errorf("%s: quantile %v out of range: %w", f.Name, q.Quantile, ErrInconsistentSnapshot)
				}
			}
		}
	}
	return nil
}
