package reliability

import "math"

// PoissonPMF is the probability of exactly k events in one year given an
// annual event rate. k is bounded by the parity level (at most
// MaxParity+1), so the iterative factorial never overflows a float64.
func PoissonPMF(rate float64, k int) float64 {
	return math.Pow(rate, float64(k)) * math.Exp(-rate) / factorial(k)
}

// PoissonAtLeast is the probability of n or more events in one year. For
// n == 1 this is exactly 1 - e^(-rate), the annual failure probability
// used throughout the forecast.
func PoissonAtLeast(rate float64, n int) float64 {
	pNeg := 0.0
	for k := 0; k < n; k++ {
		pNeg += PoissonPMF(rate, n-1-k)
	}
	return 1 - pNeg
}

func factorial(n int) float64 {
	v := 1.0
	for ; n > 1; n-- {
		v *= float64(n)
	}
	return v
}
