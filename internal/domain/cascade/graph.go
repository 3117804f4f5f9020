// Package cascade simulates how a neurotransmitter perturbation spreads
// through coupled brain regions over discrete time steps.
package cascade

import (
	"fmt"
	"sort"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// Graph is region connectivity as explicit adjacency. Rows are inbound
// couplings: Graph[r][n] = w means activity at n feeds r with strength w per
// step. Weights live in [0,1]. A region that only appears inside other
// regions' rows has no inputs of its own and simply decays.
type Graph map[neuromodels.BrainRegion]map[neuromodels.BrainRegion]float64

// Regions returns every region the graph knows about, row keys and row
// entries alike, in sorted order.
func (g Graph) Regions() []neuromodels.BrainRegion {
	seen := make(map[neuromodels.BrainRegion]bool, len(g))
	for r, row := range g {
		seen[r] = true
		for n := range row {
			seen[n] = true
		}
	}
	out := make([]neuromodels.BrainRegion, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether the region appears anywhere in the graph.
func (g Graph) Contains(region neuromodels.BrainRegion) bool {
	if _, ok := g[region]; ok {
		return true
	}
	for _, row := range g {
		if _, ok := row[region]; ok {
			return true
		}
	}
	return false
}

// Validate checks that every region code is non-empty and every coupling
// weight is in [0,1].
func (g Graph) Validate() error {
	for r, row := range g {
		if r == "" {
			return fmt.Errorf("graph has an empty region code")
		}
		for n, w := range row {
			if n == "" {
				return fmt.Errorf("region %s has an empty neighbor code", r)
			}
			if w < 0 || w > 1 {
				return fmt.Errorf("coupling %s <- %s out of range: %g", r, n, w)
			}
		}
	}
	return nil
}

// DefaultConnectivity returns a curated monoamine-pathway connectivity table.
// Couplings follow the major projections: dopaminergic from the ventral
// tegmental area, serotonergic from the raphe nuclei, noradrenergic from the
// locus coeruleus, plus the limbic loops between amygdala, hippocampus and
// prefrontal cortex. Weights are plausible placeholders, not measurements.
//
// The table is rebuilt on every call so callers can mutate their copy freely.
func DefaultConnectivity() Graph {
	return Graph{
		neuromodels.NucleusAccumbens: {
			neuromodels.VentralTegmentalArea: 0.80,
			neuromodels.PrefrontalCortex:     0.30,
			neuromodels.Amygdala:             0.35,
			neuromodels.Hippocampus:          0.30,
		},
		neuromodels.PrefrontalCortex: {
			neuromodels.VentralTegmentalArea: 0.60,
			neuromodels.RapheNuclei:          0.50,
			neuromodels.LocusCoeruleus:       0.45,
			neuromodels.Thalamus:             0.50,
			neuromodels.Hippocampus:          0.40,
			neuromodels.Amygdala:             0.35,
		},
		neuromodels.AnteriorCingulate: {
			neuromodels.PrefrontalCortex: 0.50,
			neuromodels.Amygdala:         0.40,
			neuromodels.Thalamus:         0.35,
			neuromodels.RapheNuclei:      0.30,
		},
		neuromodels.Amygdala: {
			neuromodels.LocusCoeruleus:   0.55,
			neuromodels.RapheNuclei:      0.45,
			neuromodels.PrefrontalCortex: 0.40,
			neuromodels.Hippocampus:      0.35,
			neuromodels.Thalamus:         0.30,
		},
		neuromodels.Hippocampus: {
			neuromodels.RapheNuclei:      0.50,
			neuromodels.Amygdala:         0.35,
			neuromodels.PrefrontalCortex: 0.30,
			neuromodels.LocusCoeruleus:   0.30,
		},
		neuromodels.Striatum: {
			neuromodels.VentralTegmentalArea: 0.50,
			neuromodels.PrefrontalCortex:     0.55,
			neuromodels.Thalamus:             0.40,
		},
		neuromodels.Hypothalamus: {
			neuromodels.Amygdala:    0.45,
			neuromodels.Hippocampus: 0.30,
			neuromodels.RapheNuclei: 0.25,
		},
		neuromodels.Thalamus: {
			neuromodels.PrefrontalCortex: 0.45,
			neuromodels.Striatum:         0.35,
			neuromodels.LocusCoeruleus:   0.30,
		},
		neuromodels.Insula: {
			neuromodels.Thalamus:         0.40,
			neuromodels.Amygdala:         0.40,
			neuromodels.PrefrontalCortex: 0.35,
		},
		neuromodels.VentralTegmentalArea: {
			neuromodels.PrefrontalCortex: 0.30,
			neuromodels.NucleusAccumbens: 0.25,
		},
		neuromodels.RapheNuclei: {
			neuromodels.PrefrontalCortex: 0.25,
			neuromodels.Hypothalamus:     0.20,
		},
		neuromodels.LocusCoeruleus: {
			neuromodels.PrefrontalCortex: 0.25,
			neuromodels.Amygdala:         0.30,
		},
	}
}
