package domain

import "time"

// AnalysisRun records the identity and outcome of one inference run.
// Persisted so results can be traced back to the exact data window and
// sampler configuration that produced them.
type AnalysisRun struct {
	RunID         string    // sha256 hex over (dataset digest, spec)
	ShortID       string    // base58 prefix of RunID, used in file names and logs
	DatasetDigest string    // sha256 hex of the cleaned series
	Spec          ModelSpec // sampler configuration used
	Observations  int       // series length after windowing
	WindowStart   time.Time // first date modeled
	WindowEnd     time.Time // last date modeled
	StartedAt     time.Time
	CompletedAt   time.Time
	MaxRHat       float64 // worst split R-hat across parameters
	MinESSBulk    float64 // worst bulk ESS across parameters
	Converged     bool    // MaxRHat <= 1.05 && MinESSBulk >= 400
}
