package artifacts

import (
	"fmt"
	"math"
	"strings"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/eda"
)

const dateLayout = "2006-01-02"

// RenderSeriesCSV renders the cleaned price series.
func RenderSeriesCSV(series *domain.Series) string {
	var sb strings.Builder
	sb.WriteString("date,price\n")
	for i := 0; i < series.Len(); i++ {
		p := series.At(i)
		sb.WriteString(fmt.Sprintf("%s,%.6f\n", p.Date.Format(dateLayout), p.Price))
	}
	return sb.String()
}

// RenderChangePointsCSV renders the detected change points, ordered by
// date.
func RenderChangePointsCSV(cps []domain.ChangePoint) string {
	var sb strings.Builder
	sb.WriteString("change_point_index,date\n")
	for _, cp := range cps {
		sb.WriteString(fmt.Sprintf("%.4f,%s\n", cp.Index, cp.Date.Format(dateLayout)))
	}
	return sb.String()
}

// RenderSummaryCSV renders the convergence summary table.
func RenderSummaryCSV(rows []domain.ParameterSummary) string {
	var sb strings.Builder
	sb.WriteString("parameter,mean,sd,r_hat,ess_bulk\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%s,%s\n",
			r.Parameter, r.Mean, r.SD, formatMaybe(r.RHat, 4), formatMaybe(r.ESSBulk, 1)))
	}
	return sb.String()
}

// RenderImpactCSV renders the per-regime impact table. Delta fields are
// empty for the first regime rather than zero: an absent baseline and a
// zero change must stay distinguishable in the artifact.
func RenderImpactCSV(records []domain.ImpactRecord) string {
	var sb strings.Builder
	sb.WriteString("regime,start_date,end_date,observations,mean_price,std_dev,ann_vol_returns,price_change_pct,vol_change_pct\n")
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%.4f,%.4f,%.6f,%s,%s\n",
			r.Regime,
			r.Start.Format(dateLayout),
			r.End.Format(dateLayout),
			r.Observations,
			r.MeanPrice,
			r.StdDev,
			r.AnnualizedVol,
			formatDelta(r.PriceChangePct),
			formatDelta(r.VolChangePct),
		))
	}
	return sb.String()
}

// RenderPropertiesCSV renders the series-properties table: price with
// rolling trend and volatility per date, with the ADF outcome in
// comment-style header rows.
func RenderPropertiesCSV(series *domain.Series, props eda.Properties) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# adf_stat=%.4f p_value=%.4f lags=%d stationary=%t\n",
		props.ADF.Statistic, props.ADF.PValue, props.ADF.Lags, props.ADF.Stationary))
	sb.WriteString("date,price,rolling_mean_252d,rolling_vol_21d\n")
	for i := 0; i < series.Len(); i++ {
		p := series.At(i)
		sb.WriteString(fmt.Sprintf("%s,%.4f,%.4f,%s\n",
			p.Date.Format(dateLayout), p.Price, props.RollingMean[i], formatMaybe(props.RollingVol[i], 6)))
	}
	return sb.String()
}

// formatMaybe formats a float, empty string for NaN.
func formatMaybe(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// formatDelta formats an optional percentage delta, empty when nil.
func formatDelta(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
