// Package temporal holds the immutable time-series container that feeds the
// simulation and prediction pipeline.
package temporal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neurotwin/neurotwin/internal/platform/stats"
)

var (
	// ErrShapeMismatch reports timestamps, rows, or bounds that do not line up.
	ErrShapeMismatch = errors.New("temporal: shape mismatch")
	// ErrInsufficientData reports too few observations for the requested operation.
	ErrInsufficientData = errors.New("temporal: insufficient data")
)

// TemporalSequence is a multivariate time series for one subject: N rows of
// observations over D named features, ordered in time. Sequences are built
// once by NewSequence and treated as read-only afterwards; every operation
// that changes content returns a fresh sequence.
type TemporalSequence struct {
	ID           uuid.UUID         `json:"id"`
	SubjectID    uuid.UUID         `json:"subject_id"`
	FeatureNames []string          `json:"feature_names"`
	Timestamps   []time.Time       `json:"timestamps"`
	Values       [][]float64       `json:"values"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewSequence validates and builds a TemporalSequence. Input slices are
// copied, so the caller keeps ownership of its own buffers. Timestamps must
// already be in non-decreasing order; the factory rejects unordered input
// instead of re-sorting, because silent reordering would detach rows from
// their observation times.
func NewSequence(subjectID uuid.UUID, featureNames []string, timestamps []time.Time, values [][]float64, metadata map[string]string) (*TemporalSequence, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	if len(featureNames) == 0 {
		return nil, fmt.Errorf("%w: at least one feature is required", ErrShapeMismatch)
	}
	seen := make(map[string]bool, len(featureNames))
	for _, name := range featureNames {
		if name == "" {
			return nil, fmt.Errorf("feature names must not be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature name: %s", name)
		}
		seen[name] = true
	}
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d value rows", ErrShapeMismatch, len(timestamps), len(values))
	}
	dim := len(featureNames)
	for i, row := range values {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), dim)
		}
	}
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].Before(timestamps[i-1]) {
			return nil, fmt.Errorf("%w: timestamps out of order at index %d", ErrShapeMismatch, i)
		}
	}

	return &TemporalSequence{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		FeatureNames: append([]string(nil), featureNames...),
		Timestamps:   append([]time.Time(nil), timestamps...),
		Values:       copyRows(values),
		Metadata:     copyMetadata(metadata),
	}, nil
}

// Len returns the number of observations in the sequence.
func (s *TemporalSequence) Len() int {
	return len(s.Timestamps)
}

// Dim returns the feature dimension.
func (s *TemporalSequence) Dim() int {
	return len(s.FeatureNames)
}

// SupervisedPair splits the sequence into next-step training pairs: X holds
// rows 0..N-2 and Y holds rows 1..N-1, so Y[i] is the observation that
// follows X[i]. Both are fresh copies.
func (s *TemporalSequence) SupervisedPair() (x, y [][]float64, err error) {
	if s.Len() < 2 {
		return nil, nil, fmt.Errorf("%w: %d observations, need at least 2 for a supervised pair", ErrInsufficientData, s.Len())
	}
	x = copyRows(s.Values[:s.Len()-1])
	y = copyRows(s.Values[1:])
	return x, y, nil
}

// PaddedFixedLength returns the sequence as exactly maxLen rows: longer
// sequences keep their first maxLen rows, shorter ones are zero-padded at
// the end. The mask is true for rows carrying real observations, and
// actualLen reports how many there are.
func (s *TemporalSequence) PaddedFixedLength(maxLen int) (padded [][]float64, mask []bool, actualLen int, err error) {
	if maxLen <= 0 {
		return nil, nil, 0, fmt.Errorf("maxLen must be positive, got %d", maxLen)
	}

	actualLen = s.Len()
	if actualLen > maxLen {
		actualLen = maxLen
	}

	dim := s.Dim()
	padded = make([][]float64, maxLen)
	mask = make([]bool, maxLen)
	for i := 0; i < maxLen; i++ {
		padded[i] = make([]float64, dim)
		if i < actualLen {
			copy(padded[i], s.Values[i])
			mask[i] = true
		}
	}
	return padded, mask, actualLen, nil
}

// Subrange returns a new sequence covering rows [start, end). The derived
// sequence gets its own identity but keeps the subject, features, and
// metadata of the parent.
func (s *TemporalSequence) Subrange(start, end int) (*TemporalSequence, error) {
	if start < 0 || end > s.Len() || start >= end {
		return nil, fmt.Errorf("%w: subrange [%d, %d) of %d observations", ErrShapeMismatch, start, end, s.Len())
	}

	return &TemporalSequence{
		ID:           uuid.New(),
		SubjectID:    s.SubjectID,
		FeatureNames: append([]string(nil), s.FeatureNames...),
		Timestamps:   append([]time.Time(nil), s.Timestamps[start:end]...),
		Values:       copyRows(s.Values[start:end]),
		Metadata:     copyMetadata(s.Metadata),
	}, nil
}

// FeatureStatistics computes per-feature descriptive statistics, keyed by
// feature name.
func (s *TemporalSequence) FeatureStatistics() map[string]stats.Summary {
	out := make(map[string]stats.Summary, s.Dim())
	column := make([]float64, s.Len())
	for j, name := range s.FeatureNames {
		for i, row := range s.Values {
			column[i] = row[j]
		}
		out[name] = stats.Describe(column)
	}
	return out
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
