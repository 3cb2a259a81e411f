package genotype

import "math"

// logFactorialCacheSize mirrors original_source/repeatseq.cpp's
// LOG_FACTORIAL_SIZE: small factorials are precomputed once at process
// start; anything larger is accumulated on demand.
const logFactorialCacheSize = 10

var logFactorialCache [logFactorialCacheSize]float64

func init() {
	var val float64
	for i := 1; i < logFactorialCacheSize; i++ {
		val += math.Log(float64(i))
		logFactorialCache[i] = val
	}
}

// logFactorial returns log(x!), using the process-wide cache for small x and
// accumulating the remainder for larger x, matching
// original_source/repeatseq.cpp's getLogFactorial.
func logFactorial(x int) float64 {
	if x < logFactorialCacheSize {
		if x < 0 {
			return 0
		}
		return logFactorialCache[x]
	}
	val := logFactorialCache[logFactorialCacheSize-1]
	for i := logFactorialCacheSize; i <= x; i++ {
		val += math.Log(float64(i))
	}
	return val
}

// betaMult computes log(∏ Γ(v_k) / Γ(Σ v_k)) via log-factorials, spec.md
// §4.5's B(v), used for both the numerator and denominator of the
// Dirichlet-multinomial likelihood. Each v_k must be ≥ 1 (v_k-1 ≥ 0).
func betaMult(v []int) float64 {
	value := 0.0
	sum := 0
	for _, vk := range v {
		value += logFactorial(vk - 1)
		sum += vk
	}
	value -= logFactorial(sum - 1)
	return value
}

// logMultinomialCoef returns log(fact(a+b+c) / (fact(a)*fact(b)*fact(c))),
// computed via log-factorials (spec.md §4.5), equivalent to
// original_source/repeatseq.cpp's retSumFactOverIndFact but without that
// function's incremental-product overflow avoidance, unnecessary once
// everything is carried in log space.
func logMultinomialCoef(a, b, c int) float64 {
	return logFactorial(a+b+c) - logFactorial(a) - logFactorial(b) - logFactorial(c)
}
