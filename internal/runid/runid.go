// Package runid derives deterministic identifiers for analysis runs.
// Two runs over the same cleaned series with the same sampler
// configuration get the same ID, which is what makes artifacts and
// database rows traceable across re-runs.
package runid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"brent-regime-lab/internal/domain"
)

// DatasetDigest computes a sha256 hex digest over the cleaned series.
// Formula: sha256 over "date|price\n" lines in date order, prices
// formatted with fixed precision so the digest is platform-stable.
func DatasetDigest(s *domain.Series) string {
	h := sha256.New()
	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		fmt.Fprintf(h, "%s|%.6f\n", p.Date.Format("2006-01-02"), p.Price)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Compute derives the run ID from the dataset digest and the model spec.
// Formula: SHA256(digest|k|draws|tune|chains|seed|target_accept|mu_scale|sigma_scale|shared)
// Returns hex-encoded hash (64 characters).
func Compute(datasetDigest string, spec domain.ModelSpec) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d|%d|%g|%g|%g|%t",
		datasetDigest,
		spec.K,
		spec.Draws,
		spec.Tune,
		spec.Chains,
		spec.Seed,
		spec.TargetAccept,
		spec.MuScale,
		spec.SigmaScale,
		spec.SharedSigma,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Short returns a compact base58 form of a run ID for file names and
// log fields. Uses the first 8 bytes of the hash.
func Short(runID string) string {
	raw, err := hex.DecodeString(runID)
	if err != nil || len(raw) < 8 {
		// Not a hex run ID; fall back to a prefix of the input.
		if len(runID) > 11 {
			return runID[:11]
		}
		return runID
	}
	return base58.Encode(raw[:8])
}
