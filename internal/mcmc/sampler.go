// Package mcmc implements an adaptive component-wise random-walk
// Metropolis sampler. The target density is supplied as a log-posterior
// over an unconstrained parameter vector; constraints are expressed by
// returning -Inf outside the support. Chains are independent: each runs
// in its own goroutine with its own seeded RNG and they only meet again
// when the pooled trace is assembled, so results do not depend on
// goroutine scheduling.
package mcmc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// ErrSampling is the fatal category for numerical failures inside the
// sampler: non-finite log-probability at initialization or NaN appearing
// mid-chain. Never retried.
var ErrSampling = errors.New("sampling failed")

// tuneInterval is the number of tuning steps between proposal-scale
// adaptations.
const tuneInterval = 50

// Problem describes a target distribution.
type Problem struct {
	// Names of the recorded parameters, len = dimension of Transform output
	// (or of the raw vector if Transform is nil).
	Names []string

	// LogProb evaluates the unnormalized log-posterior. Must return -Inf
	// outside the support; a NaN return aborts sampling with ErrSampling.
	LogProb func(x []float64) float64

	// Init draws a starting point. Called once per chain.
	Init func(rng *rand.Rand) []float64

	// Step holds initial per-parameter proposal scales, len = raw dimension.
	Step []float64

	// Transform maps a raw draw to the recorded parameter vector
	// (e.g. sorting breakpoints, exponentiating log-scales). Optional;
	// identity when nil.
	Transform func(x []float64) []float64
}

// Config controls a sampling run.
type Config struct {
	Draws        int     // recorded draws per chain
	Tune         int     // adaptation steps per chain, discarded
	Chains       int     // independent chains
	TargetAccept float64 // per-coordinate acceptance-rate target
	Seed         uint64  // chain c is seeded with Seed+c
}

// Sample runs cfg.Chains independent chains against the problem and
// returns the pooled trace. The call blocks until every chain finishes;
// ctx cancellation aborts all chains.
func Sample(ctx context.Context, p Problem, cfg Config, log zerolog.Logger) (*Trace, error) {
	if len(p.Step) == 0 {
		return nil, fmt.Errorf("%w: empty parameter vector", ErrSampling)
	}

	chains := make([][][]float64, cfg.Chains)
	errs := make([]error, cfg.Chains)

	var wg sync.WaitGroup
	for c := 0; c < cfg.Chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			chains[c], errs[c] = runChain(ctx, p, cfg, c)
		}(c)
	}
	wg.Wait()

	for c, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", c, err)
		}
	}

	log.Debug().
		Int("chains", cfg.Chains).
		Int("draws", cfg.Draws).
		Int("tune", cfg.Tune).
		Msg("sampling complete")

	return &Trace{names: p.Names, chains: chains}, nil
}

// runChain executes one chain: Tune adaptation steps (discarded), then
// Draws recorded steps with frozen proposal scales.
func runChain(ctx context.Context, p Problem, cfg Config, chain int) ([][]float64, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + uint64(chain)))

	x := p.Init(rng)
	if len(x) != len(p.Step) {
		return nil, fmt.Errorf("%w: init returned %d parameters, want %d", ErrSampling, len(x), len(p.Step))
	}
	lp := p.LogProb(x)
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		return nil, fmt.Errorf("%w: non-finite log-probability at initialization (%v)", ErrSampling, lp)
	}

	dim := len(x)
	step := make([]float64, dim)
	copy(step, p.Step)
	accepted := make([]int, dim)

	total := cfg.Tune + cfg.Draws
	draws := make([][]float64, 0, cfg.Draws)

	for i := 0; i < total; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tuning := i < cfg.Tune

		for j := 0; j < dim; j++ {
			old := x[j]
			x[j] = old + step[j]*rng.NormFloat64()
			lpNew := p.LogProb(x)
			if math.IsNaN(lpNew) {
				return nil, fmt.Errorf("%w: NaN log-probability at step %d", ErrSampling, i)
			}
			if math.Log(rng.Float64()) < lpNew-lp {
				lp = lpNew
				if tuning {
					accepted[j]++
				}
			} else {
				x[j] = old
			}
		}

		if tuning && (i+1)%tuneInterval == 0 {
			for j := 0; j < dim; j++ {
				rate := float64(accepted[j]) / tuneInterval
				step[j] *= math.Exp(rate - cfg.TargetAccept)
				accepted[j] = 0
			}
		}

		if !tuning {
			draws = append(draws, record(p, x))
		}
	}

	return draws, nil
}

// record applies the problem's transform (if any) to produce the stored
// parameter vector.
func record(p Problem, x []float64) []float64 {
	if p.Transform != nil {
		return p.Transform(x)
	}
	out := make([]float64, len(x))
	copy(out, x)
	return out
}
