package region

import "fmt"

// Spec holds the fixed configuration of a region. All fields are immutable
// for the region's lifetime once validated.
type Spec struct {
	// ColumnCount is the number of columns, supplied by the collaborator
	// that drives column activation.
	ColumnCount int
	// Depth is the number of cells per column.
	Depth int
	// InitSegmentCount is the number of randomly wired segments each cell
	// starts with.
	InitSegmentCount int
	// NewSynapseCount is the target synapse count for grown segments.
	NewSynapseCount int
	// ActivationThreshold is the connected-active synapse count at which a
	// segment makes its cell predictive.
	ActivationThreshold int
	// MinThreshold is the weaker bar a segment must clear to be chosen as
	// "best matching" during bursting-column learning.
	MinThreshold int
	// InitialPerm is the permanence assigned to newly grown synapses.
	InitialPerm float64
	// ConnectedPerm is the permanence at or above which a synapse counts
	// toward segment activation.
	ConnectedPerm float64
	// PermanenceInc / PermanenceDec are the reinforcement deltas.
	PermanenceInc float64
	PermanenceDec float64
}

// DefaultSpec returns the baseline configuration. ColumnCount has no
// sensible default and must be supplied by the caller.
func DefaultSpec() Spec {
	return Spec{
		Depth:               4,
		InitSegmentCount:    0,
		NewSynapseCount:     5,
		ActivationThreshold: 4,
		MinThreshold:        3,
		InitialPerm:         0.3,
		ConnectedPerm:       0.5,
		PermanenceInc:       0.1,
		PermanenceDec:       0.05,
	}
}

// Overrides carries optional per-field replacements for a Spec. Set fields
// win over the base; nil fields keep the base value.
type Overrides struct {
	ColumnCount         *int
	Depth               *int
	InitSegmentCount    *int
	NewSynapseCount     *int
	ActivationThreshold *int
	MinThreshold        *int
	InitialPerm         *float64
	ConnectedPerm       *float64
	PermanenceInc       *float64
	PermanenceDec       *float64
}

// Merge applies overrides over s and returns the result. s is not modified.
func (s Spec) Merge(o Overrides) Spec {
	if o.ColumnCount != nil {
		s.ColumnCount = *o.ColumnCount
	}
	if o.Depth != nil {
		s.Depth = *o.Depth
	}
	if o.InitSegmentCount != nil {
		s.InitSegmentCount = *o.InitSegmentCount
	}
	if o.NewSynapseCount != nil {
		s.NewSynapseCount = *o.NewSynapseCount
	}
	if o.ActivationThreshold != nil {
		s.ActivationThreshold = *o.ActivationThreshold
	}
	if o.MinThreshold != nil {
		s.MinThreshold = *o.MinThreshold
	}
	if o.InitialPerm != nil {
		s.InitialPerm = *o.InitialPerm
	}
	if o.ConnectedPerm != nil {
		s.ConnectedPerm = *o.ConnectedPerm
	}
	if o.PermanenceInc != nil {
		s.PermanenceInc = *o.PermanenceInc
	}
	if o.PermanenceDec != nil {
		s.PermanenceDec = *o.PermanenceDec
	}
	return s
}

// Validate rejects configurations the algorithm cannot run on. A zero
// NewSynapseCount is accepted: it yields a region that can never grow
// predictive wiring, which is a legal degenerate setup.
func (s Spec) Validate() error {
	if s.ColumnCount <= 0 {
		return fmt.Errorf("column count must be positive, got %d", s.ColumnCount)
	}
	if s.Depth <= 0 {
		return fmt.Errorf("depth must be positive, got %d", s.Depth)
	}
	if s.InitSegmentCount < 0 {
		return fmt.Errorf("init segment count must be non-negative, got %d", s.InitSegmentCount)
	}
	if s.NewSynapseCount < 0 {
		return fmt.Errorf("new synapse count must be non-negative, got %d", s.NewSynapseCount)
	}
	if s.ActivationThreshold <= 0 {
		return fmt.Errorf("activation threshold must be positive, got %d", s.ActivationThreshold)
	}
	if s.MinThreshold <= 0 {
		return fmt.Errorf("min threshold must be positive, got %d", s.MinThreshold)
	}
	if s.MinThreshold > s.ActivationThreshold {
		return fmt.Errorf("min threshold %d exceeds activation threshold %d", s.MinThreshold, s.ActivationThreshold)
	}
	if s.NewSynapseCount > 0 && s.ActivationThreshold > s.NewSynapseCount {
		return fmt.Errorf("activation threshold %d exceeds new synapse count %d", s.ActivationThreshold, s.NewSynapseCount)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"initial permanence", s.InitialPerm},
		{"connected permanence", s.ConnectedPerm},
		{"permanence increment", s.PermanenceInc},
		{"permanence decrement", s.PermanenceDec},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("%s must be in [0,1], got %f", p.name, p.value)
		}
	}
	return nil
}
