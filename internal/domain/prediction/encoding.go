// Package prediction estimates how a subject responds to a neurotransmitter
// intervention and how the surrounding neurotransmitter systems interact with
// it. Scores are deterministic stand-ins with the shape of a trained model's
// output; the scoring function is injected so a real model can replace it
// without changing any contract.
package prediction

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/google/uuid"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// Encoder maps categorical region and neurotransmitter codes to fixed scalars
// in (0,1). The tables are pre-assigned from the declaration order of the
// known codes, so an encoding never changes across calls, processes or
// releases. Unknown codes fall back to a deterministic hash so the encoder
// still answers consistently.
type Encoder struct {
	regions map[neuromodels.BrainRegion]float64
	nts     map[neuromodels.Neurotransmitter]float64
}

// NewEncoder builds the embedding tables. Code i of n encodes to (i+1)/(n+1),
// spreading the known codes evenly over (0,1) without touching either bound.
func NewEncoder() *Encoder {
	regions := neuromodels.AllBrainRegions()
	nts := neuromodels.AllNeurotransmitters()

	e := &Encoder{
		regions: make(map[neuromodels.BrainRegion]float64, len(regions)),
		nts:     make(map[neuromodels.Neurotransmitter]float64, len(nts)),
	}
	for i, r := range regions {
		e.regions[r] = float64(i+1) / float64(len(regions)+1)
	}
	for i, n := range nts {
		e.nts[n] = float64(i+1) / float64(len(nts)+1)
	}
	return e
}

// EncodeRegion returns the stable scalar for a brain region.
func (e *Encoder) EncodeRegion(r neuromodels.BrainRegion) float64 {
	if v, ok := e.regions[r]; ok {
		return v
	}
	return hashUnit("region:" + string(r))
}

// EncodeNeurotransmitter returns the stable scalar for a neurotransmitter.
func (e *Encoder) EncodeNeurotransmitter(n neuromodels.Neurotransmitter) float64 {
	if v, ok := e.nts[n]; ok {
		return v
	}
	return hashUnit("nt:" + string(n))
}

// Scorer produces the base response score for a subject given the encoded
// treatment site. Implementations must be pure: identical inputs, identical
// score, always. The default is HashScorer; a trained-model client satisfies
// the same interface.
type Scorer interface {
	BaseScore(subjectID uuid.UUID, regionEncoding, ntEncoding float64) float64
}

// HashScorer derives a reproducible score in [0,1] by hashing the subject and
// the encoded treatment site. It carries no clinical signal; it exists to
// give the pipeline a deterministic, well-distributed placeholder until a
// trained model is wired in.
type HashScorer struct{}

// BaseScore implements Scorer.
func (HashScorer) BaseScore(subjectID uuid.UUID, regionEncoding, ntEncoding float64) float64 {
	h := fnv.New64a()
	h.Write(subjectID[:])
	fmt.Fprintf(h, ":%.6f:%.6f", regionEncoding, ntEncoding)
	return float64(h.Sum64()) / float64(math.MaxUint64)
}

// hashUnit maps an arbitrary string to a stable value in [0,1].
func hashUnit(s string) float64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return float64(h.Sum64()) / float64(math.MaxUint64)
}
