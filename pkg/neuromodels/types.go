// Package neuromodels is the shared neurochemistry vocabulary used across
// the simulation core.
package neuromodels

import "fmt"

// Neurotransmitter identifies a neurotransmitter system tracked by the twin.
type Neurotransmitter string

const (
	Serotonin      Neurotransmitter = "serotonin"
	Dopamine       Neurotransmitter = "dopamine"
	Norepinephrine Neurotransmitter = "norepinephrine"
	GABA           Neurotransmitter = "gaba"
	Glutamate      Neurotransmitter = "glutamate"
	Acetylcholine  Neurotransmitter = "acetylcholine"
	Endorphins     Neurotransmitter = "endorphins"
	Oxytocin       Neurotransmitter = "oxytocin"
)

var validNeurotransmitters = map[Neurotransmitter]bool{
	Serotonin: true, Dopamine: true, Norepinephrine: true, GABA: true,
	Glutamate: true, Acetylcholine: true, Endorphins: true, Oxytocin: true,
}

// Valid reports whether n is a known neurotransmitter.
func (n Neurotransmitter) Valid() bool {
	return validNeurotransmitters[n]
}

// String implements fmt.Stringer.
func (n Neurotransmitter) String() string {
	return string(n)
}

// AllNeurotransmitters returns the known neurotransmitters in declaration order.
// The order is stable across releases; encoding tables depend on it.
func AllNeurotransmitters() []Neurotransmitter {
	return []Neurotransmitter{
		Serotonin, Dopamine, Norepinephrine, GABA,
		Glutamate, Acetylcholine, Endorphins, Oxytocin,
	}
}

// BrainRegion identifies an anatomical region in the connectivity model.
type BrainRegion string

const (
	PrefrontalCortex      BrainRegion = "prefrontal_cortex"
	AnteriorCingulate     BrainRegion = "anterior_cingulate_cortex"
	Amygdala              BrainRegion = "amygdala"
	Hippocampus           BrainRegion = "hippocampus"
	NucleusAccumbens      BrainRegion = "nucleus_accumbens"
	VentralTegmentalArea  BrainRegion = "ventral_tegmental_area"
	RapheNuclei           BrainRegion = "raphe_nuclei"
	LocusCoeruleus        BrainRegion = "locus_coeruleus"
	Striatum              BrainRegion = "striatum"
	Hypothalamus          BrainRegion = "hypothalamus"
	Thalamus              BrainRegion = "thalamus"
	Insula                BrainRegion = "insula"
)

// ParseNeurotransmitter converts a lower-case code into a Neurotransmitter.
func ParseNeurotransmitter(s string) (Neurotransmitter, error) {
	n := Neurotransmitter(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown neurotransmitter: %q", s)
	}
	return n, nil
}

var validBrainRegions = map[BrainRegion]bool{
	PrefrontalCortex: true, AnteriorCingulate: true, Amygdala: true,
	Hippocampus: true, NucleusAccumbens: true, VentralTegmentalArea: true,
	RapheNuclei: true, LocusCoeruleus: true, Striatum: true,
	Hypothalamus: true, Thalamus: true, Insula: true,
}

// Valid reports whether r is a known brain region.
func (r BrainRegion) Valid() bool {
	return validBrainRegions[r]
}

// String implements fmt.Stringer.
func (r BrainRegion) String() string {
	return string(r)
}

// AllBrainRegions returns the known brain regions in declaration order.
// The order is stable across releases; encoding tables depend on it.
func AllBrainRegions() []BrainRegion {
	return []BrainRegion{
		PrefrontalCortex, AnteriorCingulate, Amygdala, Hippocampus,
		NucleusAccumbens, VentralTegmentalArea, RapheNuclei, LocusCoeruleus,
		Striatum, Hypothalamus, Thalamus, Insula,
	}
}

// ParseBrainRegion converts a lower-case code into a BrainRegion.
func ParseBrainRegion(s string) (BrainRegion, error) {
	r := BrainRegion(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown brain region: %q", s)
	}
	return r, nil
}

// ClinicalSignificance grades the clinical relevance of an observed effect.
// It is assigned by the calling layer, never derived from statistics.
type ClinicalSignificance string

const (
	SignificanceNone        ClinicalSignificance = "none"
	SignificanceMinimal     ClinicalSignificance = "minimal"
	SignificanceMild        ClinicalSignificance = "mild"
	SignificanceModerate    ClinicalSignificance = "moderate"
	SignificanceSignificant ClinicalSignificance = "significant"
	SignificanceCritical    ClinicalSignificance = "critical"
)

var validSignificances = map[ClinicalSignificance]bool{
	SignificanceNone: true, SignificanceMinimal: true, SignificanceMild: true,
	SignificanceModerate: true, SignificanceSignificant: true, SignificanceCritical: true,
}

// Valid reports whether c is a known clinical significance grade.
func (c ClinicalSignificance) Valid() bool {
	return validSignificances[c]
}

// ParseClinicalSignificance converts a lower-case grade into a
// ClinicalSignificance.
func ParseClinicalSignificance(s string) (ClinicalSignificance, error) {
	c := ClinicalSignificance(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown clinical significance: %q", s)
	}
	return c, nil
}

// String implements fmt.Stringer.
func (c ClinicalSignificance) String() string {
	return string(c)
}
