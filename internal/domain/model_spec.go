package domain

import (
	"errors"
	"fmt"
)

// MinObservations is the minimum series length accepted for inference.
const MinObservations = 50

// ErrInvalidSpec is returned when a model specification fails validation.
var ErrInvalidSpec = errors.New("invalid model spec")

// ErrTooFewObservations is returned when the series is too short for
// reliable inference.
var ErrTooFewObservations = errors.New("too few observations")

// ModelSpec configures a Bayesian multiple-change-point model run.
// Priors are derived from the empirical mean/std of the log-price series:
//
//	tau_1..tau_k    ~ Uniform(0, N)                    [sorted before use]
//	mu_0..mu_k      ~ Normal(mean, MuScale * std)      [weakly informative]
//	sigma_0..sigma_k ~ HalfNormal(SigmaScale * std)    [positive]
//	y[t]            ~ Normal(mu_j, sigma_j), j = regime at t
type ModelSpec struct {
	K            int     `yaml:"k"`             // number of breakpoints, fixed (not inferred)
	Draws        int     `yaml:"draws"`         // posterior draws per chain
	Tune         int     `yaml:"tune"`          // tuning (adaptation) steps per chain, discarded
	Chains       int     `yaml:"chains"`        // independent chains
	TargetAccept float64 `yaml:"target_accept"` // sampler acceptance-rate target
	Seed         uint64  `yaml:"seed"`          // RNG seed; chain c uses Seed+c
	MuScale      float64 `yaml:"mu_scale"`      // mean prior sd = MuScale * empirical std
	SigmaScale   float64 `yaml:"sigma_scale"`   // half-normal scale = SigmaScale * empirical std
	SharedSigma  bool    `yaml:"shared_sigma"`  // one sigma across regimes instead of k+1
}

// DefaultModelSpec returns the standard configuration: 3 breakpoints,
// 1000 draws after 500 tuning steps on 4 chains, fixed seed.
func DefaultModelSpec() ModelSpec {
	return ModelSpec{
		K:            3,
		Draws:        1000,
		Tune:         500,
		Chains:       4,
		TargetAccept: 0.44,
		Seed:         42,
		MuScale:      10,
		SigmaScale:   2,
	}
}

// Validate checks the spec against a series of length n.
// Returns ErrInvalidSpec or ErrTooFewObservations on failure.
func (m ModelSpec) Validate(n int) error {
	if m.K < 1 {
		return fmt.Errorf("%w: k must be a positive integer, got %d", ErrInvalidSpec, m.K)
	}
	if m.Draws < 1 {
		return fmt.Errorf("%w: draws must be positive, got %d", ErrInvalidSpec, m.Draws)
	}
	if m.Tune < 0 {
		return fmt.Errorf("%w: tune must be non-negative, got %d", ErrInvalidSpec, m.Tune)
	}
	if m.Chains < 1 {
		return fmt.Errorf("%w: chains must be positive, got %d", ErrInvalidSpec, m.Chains)
	}
	if m.TargetAccept <= 0 || m.TargetAccept >= 1 {
		return fmt.Errorf("%w: target_accept must be in (0, 1), got %g", ErrInvalidSpec, m.TargetAccept)
	}
	if m.MuScale <= 0 || m.SigmaScale <= 0 {
		return fmt.Errorf("%w: prior scales must be positive", ErrInvalidSpec)
	}
	if n < MinObservations {
		return fmt.Errorf("%w: %d observations, need at least %d", ErrTooFewObservations, n, MinObservations)
	}
	return nil
}

// DataStarved reports whether k is high relative to the series length,
// leaving regimes with too few points. Warning condition, not an error.
func (m ModelSpec) DataStarved(n int) bool {
	return m.K >= n/20
}

// NumSigmas returns the number of regime standard deviation parameters.
func (m ModelSpec) NumSigmas() int {
	if m.SharedSigma {
		return 1
	}
	return m.K + 1
}
