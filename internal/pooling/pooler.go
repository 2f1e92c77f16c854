// Package pooling provides a compact spatial pooler: it maps a binary input
// vector to a fixed-size set of active columns via overlap scoring and
// global inhibition. The sequence-memory core only consumes the resulting
// column set; the pooler exists so demo runs can be driven end to end.
package pooling

import (
	"fmt"
	"math/rand"
	"sort"

	"neopallium/internal/region"
)

// Config describes a pooler. Permanence semantics match the sequence core:
// a proximal synapse is connected iff its permanence >= SynPermConnected.
type Config struct {
	// Inputs is the input bit vector length.
	Inputs int
	// Columns is the number of columns.
	Columns int
	// ActiveColumns is the number of winners per Compute call.
	ActiveColumns int
	// PotentialPct is the fraction of input bits each column can connect to.
	PotentialPct float64
	// StimulusThreshold is the minimum overlap for a column to compete.
	StimulusThreshold int
	// InitConnectedPct is the fraction of each potential pool that starts
	// at or above SynPermConnected.
	InitConnectedPct   float64
	SynPermConnected   float64
	SynPermActiveInc   float64
	SynPermInactiveDec float64
}

func DefaultConfig() Config {
	return Config{
		ActiveColumns:      8,
		PotentialPct:       0.5,
		StimulusThreshold:  1,
		InitConnectedPct:   0.5,
		SynPermConnected:   0.5,
		SynPermActiveInc:   0.05,
		SynPermInactiveDec: 0.02,
	}
}

// Pooler holds per-column proximal permanences over the input space.
type Pooler struct {
	cfg         Config
	permanences []map[int]float64
}

// New builds a pooler with randomized potential pools and permanences
// centered around SynPermConnected.
func New(cfg Config, rng *rand.Rand) (*Pooler, error) {
	if cfg.Inputs <= 0 {
		return nil, fmt.Errorf("input count must be positive, got %d", cfg.Inputs)
	}
	if cfg.Columns <= 0 {
		return nil, fmt.Errorf("column count must be positive, got %d", cfg.Columns)
	}
	if cfg.ActiveColumns <= 0 || cfg.ActiveColumns > cfg.Columns {
		return nil, fmt.Errorf("active column count must be in [1,%d], got %d", cfg.Columns, cfg.ActiveColumns)
	}
	if cfg.PotentialPct <= 0 || cfg.PotentialPct > 1 {
		return nil, fmt.Errorf("potential pct must be in (0,1], got %f", cfg.PotentialPct)
	}
	if cfg.InitConnectedPct < 0 || cfg.InitConnectedPct > 1 {
		return nil, fmt.Errorf("init connected pct must be in [0,1], got %f", cfg.InitConnectedPct)
	}
	rng = region.EnsureRNG(rng)

	potential := int(float64(cfg.Inputs)*cfg.PotentialPct + 0.5)
	if potential < 1 {
		potential = 1
	}

	p := &Pooler{cfg: cfg, permanences: make([]map[int]float64, cfg.Columns)}
	for col := 0; col < cfg.Columns; col++ {
		pool := rng.Perm(cfg.Inputs)[:potential]
		perms := make(map[int]float64, potential)
		for _, input := range pool {
			if rng.Float64() < cfg.InitConnectedPct {
				perms[input] = region.ClampPermanence(cfg.SynPermConnected + rng.Float64()*0.1)
			} else {
				perms[input] = region.ClampPermanence(cfg.SynPermConnected - 0.01 - rng.Float64()*0.1)
			}
		}
		p.permanences[col] = perms
	}
	return p, nil
}

// Compute returns the active columns for one input vector, most-overlapped
// first-k with lowest-column-id tie-break, ascending order. When learn is
// set, winning columns adapt their proximal permanences toward the input.
func (p *Pooler) Compute(input []bool, learn bool) ([]int, error) {
	if len(input) != p.cfg.Inputs {
		return nil, fmt.Errorf("input length %d does not match configured %d", len(input), p.cfg.Inputs)
	}

	type scored struct {
		column  int
		overlap int
	}
	overlaps := make([]scored, 0, len(p.permanences))
	for col, perms := range p.permanences {
		overlap := 0
		for idx, perm := range perms {
			if input[idx] && region.Connected(perm, p.cfg.SynPermConnected) {
				overlap++
			}
		}
		if overlap >= p.cfg.StimulusThreshold {
			overlaps = append(overlaps, scored{column: col, overlap: overlap})
		}
	}

	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].overlap != overlaps[j].overlap {
			return overlaps[i].overlap > overlaps[j].overlap
		}
		return overlaps[i].column < overlaps[j].column
	})
	if len(overlaps) > p.cfg.ActiveColumns {
		overlaps = overlaps[:p.cfg.ActiveColumns]
	}

	winners := make([]int, len(overlaps))
	for i, s := range overlaps {
		winners[i] = s.column
	}
	sort.Ints(winners)

	if learn {
		for _, col := range winners {
			perms := p.permanences[col]
			for idx, perm := range perms {
				if input[idx] {
					perms[idx] = region.ClampPermanence(perm + p.cfg.SynPermActiveInc)
				} else {
					perms[idx] = region.ClampPermanence(perm - p.cfg.SynPermInactiveDec)
				}
			}
		}
	}
	return winners, nil
}
