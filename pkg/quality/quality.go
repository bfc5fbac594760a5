// Package quality reports how a smoothing pass changed a volume: summary
// statistics of each volume and similarity measures between them.
package quality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one volume.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Entropy is the Shannon entropy in bits of a 256-bin intensity histogram
	// of the finite samples.
	Entropy float64
}

// Comparison measures the difference between an original volume and its
// smoothed version.
type Comparison struct {
	// RMSE is the root mean square difference between voxels.
	RMSE float64

	// Correlation is the Pearson correlation of voxel intensities.
	Correlation float64

	// MI approximates mutual information under a Gaussian assumption:
	// 0.5 * log(var(X)var(Y) / (var(X)var(Y) - cov(X,Y)^2)).
	MI float64

	// SSIM is the global structural similarity index, with the dynamic range
	// taken from the original volume.
	SSIM float64

	// EntropyDiff is |H(original) - H(smoothed)|.
	EntropyDiff float64

	// NoiseReduction is 1 - std(smoothed)/std(original); positive when the
	// smoothed volume varies less.
	NoiseReduction float64
}

// Summarize computes descriptive statistics of data.
func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) == 1 {
		std = 0
	}
	return Summary{
		Mean:    mean,
		StdDev:  std,
		Min:     floats.Min(data),
		Max:     floats.Max(data),
		Entropy: entropy(data),
	}
}

// Compare measures smoothed against original. Both must hold the same
// number of voxels in the same order.
func Compare(original, smoothed []float64) (Comparison, error) {
	n := len(original)
	if n != len(smoothed) {
		return Comparison{}, fmt.Errorf("cannot compare %d voxels with %d", n, len(smoothed))
	}
	if n < 2 {
		return Comparison{}, fmt.Errorf("need at least 2 voxels to compare, got %d", n)
	}

	var c Comparison
	c.RMSE = floats.Distance(original, smoothed, 2) / math.Sqrt(float64(n))

	muX, muY := stat.Mean(original, nil), stat.Mean(smoothed, nil)
	varX, varY := stat.Variance(original, nil), stat.Variance(smoothed, nil)
	cov := stat.Covariance(original, smoothed, nil)

	if varX > 0 && varY > 0 {
		c.Correlation = stat.Correlation(original, smoothed, nil)
		if det := varX*varY - cov*cov; det > 0 {
			c.MI = 0.5 * math.Log(varX*varY/det)
		}
		c.NoiseReduction = 1 - math.Sqrt(varY)/math.Sqrt(varX)
	}

	// SSIM constants from Wang et al. scaled by the dynamic range.
	L := floats.Max(original) - floats.Min(original)
	if L <= 0 {
		L = 1
	}
	c1 := (0.01 * L) * (0.01 * L)
	c2 := (0.03 * L) * (0.03 * L)
	num := (2*muX*muY + c1) * (2*cov + c2)
	den := (muX*muX + muY*muY + c1) * (varX + varY + c2)
	if den > 0 {
		c.SSIM = num / den
	}

	c.EntropyDiff = math.Abs(entropy(original) - entropy(smoothed))
	return c, nil
}

// entropy returns the Shannon entropy of a 256-bin histogram over the range
// of the finite samples. NaN and infinite samples are not counted.
func entropy(data []float64) float64 {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0
	}
	lo, hi := floats.Min(finite), floats.Max(finite)
	if hi <= lo {
		return 0
	}

	const numBins = 256
	dividers := make([]float64, numBins+1)
	floats.Span(dividers, lo, hi)
	// Histogram needs the last divider above the largest value.
	dividers[numBins] = math.Nextafter(hi, math.Inf(1))

	floats.Argsort(finite, make([]int, len(finite)))
	hist := stat.Histogram(nil, dividers, finite, nil)

	var h float64
	n := float64(len(finite))
	for _, count := range hist {
		if count > 0 {
			p := count / n
			h -= p * math.Log2(p)
		}
	}
	return h
}
