package eda

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ADFResult holds an Augmented Dickey-Fuller test outcome for the
// constant-only (no trend) regression.
type ADFResult struct {
	Statistic  float64            // tau statistic on the lagged level
	PValue     float64            // approximate, via MacKinnon (1994) response surface
	Lags       int                // augmentation lags selected by AIC
	NObs       int                // observations used in the regression
	Critical   map[string]float64 // large-sample critical values at 1%, 5%, 10%
	Stationary bool               // PValue < 0.05
}

// Large-sample Dickey-Fuller critical values, constant-only case.
var adfCritical = map[string]float64{
	"1%":  -3.43,
	"5%":  -2.86,
	"10%": -2.57,
}

// ADF runs the Augmented Dickey-Fuller unit-root test on x with a
// constant term. The augmentation lag is chosen by minimizing AIC over
// 0..maxlag with maxlag from Schwert's rule, matching the usual default
// of statistical packages. A unit root (p > 0.05) means the series is
// non-stationary and mean-reverting models are inappropriate.
func ADF(x []float64) ADFResult {
	n := len(x)
	if n < 10 {
		return ADFResult{Statistic: math.NaN(), PValue: math.NaN(), Critical: adfCritical}
	}

	maxlag := int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 2; maxlag > limit {
		maxlag = limit
	}
	if maxlag < 0 {
		maxlag = 0
	}

	bestLag, bestAIC := 0, math.Inf(1)
	var best regResult
	for lag := 0; lag <= maxlag; lag++ {
		// Fit every candidate on the same sample (offset by maxlag) so
		// AIC values are comparable.
		res, ok := adfRegression(x, lag, maxlag)
		if !ok {
			continue
		}
		if res.aic < bestAIC {
			bestAIC = res.aic
			bestLag = lag
			best = res
		}
	}
	if math.IsInf(bestAIC, 1) {
		return ADFResult{Statistic: math.NaN(), PValue: math.NaN(), Critical: adfCritical}
	}

	// Refit at the chosen lag using the full usable sample.
	final, ok := adfRegression(x, bestLag, bestLag)
	if !ok {
		final = best
	}

	p := mackinnonP(final.tau)
	return ADFResult{
		Statistic:  final.tau,
		PValue:     p,
		Lags:       bestLag,
		NObs:       final.nobs,
		Critical:   adfCritical,
		Stationary: p < 0.05,
	}
}

type regResult struct {
	tau  float64
	aic  float64
	nobs int
}

// adfRegression fits dy_t = a + b*y_{t-1} + sum_i g_i*dy_{t-i} + e over
// t = offset+1..n-1 and returns the t-statistic of b plus the fit's AIC.
func adfRegression(x []float64, lag, offset int) (regResult, bool) {
	n := len(x)
	start := offset + 1
	rows := n - start
	cols := lag + 2 // constant, y_{t-1}, lag diffs
	if rows <= cols {
		return regResult{}, false
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		y.SetVec(r, x[t]-x[t-1])
		X.Set(r, 0, 1)
		X.Set(r, 1, x[t-1])
		for i := 1; i <= lag; i++ {
			X.Set(r, 1+i, x[t-i]-x[t-i-1])
		}
	}

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return regResult{}, false
	}

	// Residual variance and the standard error of beta[1].
	var fitted mat.VecDense
	fitted.MulVec(X, beta)
	rss := 0.0
	for r := 0; r < rows; r++ {
		d := y.AtVec(r) - fitted.AtVec(r)
		rss += d * d
	}
	dof := float64(rows - cols)
	if dof <= 0 || rss <= 0 {
		return regResult{}, false
	}
	s2 := rss / dof

	var xtx, xtxInv mat.Dense
	xtx.Mul(X.T(), X)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return regResult{}, false
	}
	se := math.Sqrt(s2 * xtxInv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return regResult{}, false
	}

	// Gaussian log-likelihood AIC with the MLE variance rss/rows.
	llf := -0.5 * float64(rows) * (math.Log(2*math.Pi) + math.Log(rss/float64(rows)) + 1)
	aic := -2*llf + 2*float64(cols)

	return regResult{tau: beta.AtVec(1) / se, aic: aic, nobs: rows}, true
}

// MacKinnon (1994) response-surface coefficients for the approximate
// asymptotic p-value of the constant-only tau statistic, as tabulated in
// common econometrics packages. The approximation is documented as such:
// p-values are for ranking against 0.05, not for precision work.
var (
	tauStarC  = -1.61
	tauMinC   = -18.83
	tauMaxC   = 2.74
	tauSmallC = []float64{2.1659, 1.4412, 3.8269e-2}
	tauLargeC = []float64{1.7339, 9.3202e-1, -1.2745e-1, -1.0368e-2}
)

func mackinnonP(tau float64) float64 {
	if math.IsNaN(tau) {
		return math.NaN()
	}
	if tau <= tauMinC {
		return 0
	}
	if tau >= tauMaxC {
		return 1
	}
	coeffs := tauLargeC
	if tau <= tauStarC {
		coeffs = tauSmallC
	}
	z := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		z = z*tau + coeffs[i]
	}
	return distuv.UnitNormal.CDF(z)
}
