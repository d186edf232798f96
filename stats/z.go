package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal returns the two-tailed z value for a confidence level given in
// percent.
func ZVal(confidence float64) float64 {
	return distuv.UnitNormal.Quantile((1 + confidence/100) / 2)
}
