package mcmc

// Trace holds posterior samples from multiple independent chains.
// Draws are stored in recorded (transformed) parameter space: breakpoint
// positions sorted per draw, standard deviations in natural units.
// Immutable once sampling completes.
type Trace struct {
	names  []string
	chains [][][]float64 // [chain][draw][param]
}

// NewTrace builds a trace from already-recorded draws, indexed as
// [chain][draw][param]. Used by diagnostics on synthetic chains.
func NewTrace(names []string, chains [][][]float64) *Trace {
	return &Trace{names: names, chains: chains}
}

// Names returns the recorded parameter names.
func (t *Trace) Names() []string {
	return t.names
}

// NumChains returns the number of chains.
func (t *Trace) NumChains() int {
	return len(t.chains)
}

// NumDraws returns draws per chain.
func (t *Trace) NumDraws() int {
	if len(t.chains) == 0 {
		return 0
	}
	return len(t.chains[0])
}

// NumParams returns the number of recorded parameters.
func (t *Trace) NumParams() int {
	return len(t.names)
}

// ParamIndex returns the index of a named parameter.
func (t *Trace) ParamIndex(name string) (int, bool) {
	for i, n := range t.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Chain returns the draws of parameter p in chain c, in sampling order.
func (t *Trace) Chain(c, p int) []float64 {
	out := make([]float64, len(t.chains[c]))
	for i, draw := range t.chains[c] {
		out[i] = draw[p]
	}
	return out
}

// Pooled returns parameter p's draws concatenated across all chains.
func (t *Trace) Pooled(p int) []float64 {
	out := make([]float64, 0, t.NumChains()*t.NumDraws())
	for c := range t.chains {
		for _, draw := range t.chains[c] {
			out = append(out, draw[p])
		}
	}
	return out
}
