package mood

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// minConsistency is the floor on the variance-based confidence factor.
// Even a wildly noisy window keeps some trust.
const minConsistency = 0.3

// EstimateConfidence scores how trustworthy a window of raw sample values is.
//
// Data confidence grows with sample count toward the number of samples the
// window could hold at the configured sampling period. Consistency confidence
// falls as the window's standard deviation grows, floored at 0.3. With fewer
// than two samples there is nothing to measure and the estimate is 0.5.
func EstimateConfidence(values []float64, window, samplingPeriod time.Duration) float64 {
	if len(values) < 2 {
		return 0.5
	}
	if samplingPeriod <= 0 {
		samplingPeriod = DefaultConfig().SamplingPeriod
	}
	if window <= 0 {
		window = DefaultConfig().Window
	}

	expectedMax := float64(window) / float64(samplingPeriod)
	if expectedMax < 1 {
		expectedMax = 1
	}
	dataConfidence := clamp(float64(len(values))/expectedMax, 0, 1)

	stddev := stat.StdDev(values, nil)
	consistency := 1 - stddev/50
	if consistency < minConsistency {
		consistency = minConsistency
	}

	// The product can undershoot on a sparse window; the floor holds
	// regardless so downstream scoring never sees a near-zero confidence.
	return clamp(dataConfidence*consistency, minConsistency, 1)
}
