package indicator

import "math"

// overflowShift is the power-of-two scale applied when a plain sum would
// overflow. Scaling by a power of two is exact.
const overflowShift = 64

// Mean returns the arithmetic mean of values using Neumaier compensated
// summation. An empty slice yields 0. Finite values near math.MaxFloat64
// are averaged at a reduced scale so the result stays finite.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := float64(len(values))
	sum := Sum(values)
	if !math.IsInf(sum, 0) && !math.IsNaN(sum) {
		return sum / n
	}
	return math.Ldexp(scaledSum(values, -overflowShift)/n, overflowShift)
}

// Sum adds values with Neumaier compensation so long windows of similar
// magnitudes do not drift.
func Sum(values []float64) float64 {
	return scaledSum(values, 0)
}

// scaledSum is Sum over values multiplied by 2^exp.
func scaledSum(values []float64, exp int) float64 {
	var sum, c float64
	for _, v := range values {
		if exp != 0 {
			v = math.Ldexp(v, exp)
		}
		t := sum + v
		if abs(sum) >= abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	return sum + c
}

// LastSMA returns the simple moving average of the last period prices.
// ok is false when there are fewer than period prices or period is not positive.
func LastSMA(prices []float64, period int) (avg float64, ok bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	return Mean(prices[len(prices)-period:]), true
}

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	for end := period; end <= len(prices); end++ {
		result = append(result, Mean(prices[end-period:end]))
	}
	return result
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
