package velox

import "math"

// lpcCoeffs holds the quantized integer LPC coefficients for one
// sub-block channel stream.
type lpcCoeffs struct {
	q     uint8 // number of fractional bits; 0 means "no prediction, all zero"
	coefs [LPCOrder]int16
}

// autocorrelate computes r[0..LPCOrder] over samples. Sub-blocks longer
// than 4096 samples may be strided by 4; shorter ones use stride 1, per
// spec.md §4.5.
func autocorrelate(samples []Sample) [LPCOrder + 1]float64 {
	var r [LPCOrder + 1]float64

	stride := 1
	if len(samples) > 4096 {
		stride = 4
	}

	for lag := 0; lag <= LPCOrder; lag++ {
		var sum float64
		for i := lag; i < len(samples); i += stride {
			sum += float64(samples[i]) * float64(samples[i-lag])
		}
		r[lag] = sum
	}
	return r
}

// levinsonDurbin solves the Yule-Walker system for r, returning the
// LPC coefficients a[0..LPCOrder-1] such that
// pred[i] = sum(a[j] * x[i-1-j]). Reflection coefficients are clamped
// to +/-0.999 to guarantee filter stability.
func levinsonDurbin(r [LPCOrder + 1]float64) [LPCOrder]float64 {
	var a [LPCOrder]float64
	if r[0] == 0 {
		return a
	}

	err := r[0]
	var tmp [LPCOrder]float64

	for i := 0; i < LPCOrder; i++ {
		acc := r[i+1]
		for j := 0; j < i; j++ {
			acc -= a[j] * r[i-j]
		}

		k := 0.0
		if err != 0 {
			k = acc / err
		}
		if k > 0.999 {
			k = 0.999
		} else if k < -0.999 {
			k = -0.999
		}

		copy(tmp[:i], a[:i])
		a[i] = k
		for j := 0; j < i; j++ {
			a[j] = tmp[j] - k*tmp[i-1-j]
		}

		err *= 1 - k*k
		if err <= 0 {
			break
		}
	}
	return a
}

// quantizeLPC quantizes floating LPC coefficients with Q fractional
// bits: q[i] = floor(a[i] * 2^Q + 0.5).
func quantizeLPC(a [LPCOrder]float64) lpcCoeffs {
	var out lpcCoeffs
	allZero := true
	for _, v := range a {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return out // q = 0
	}

	out.q = LPCQ
	scale := float64(int(1) << LPCQ)
	for i, v := range a {
		qv := math.Floor(v*scale + 0.5)
		out.coefs[i] = clampInt16(qv)
	}
	return out
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// computeLPC runs autocorrelation, Levinson-Durbin, and quantization
// over one sub-block channel stream.
func computeLPC(samples []Sample) lpcCoeffs {
	r := autocorrelate(samples)
	a := levinsonDurbin(r)
	return quantizeLPC(a)
}

// lpcPredict returns the LPC prediction for sample index i of x, using
// history terms x[i-1-j]; missing history (i < j+1) contributes zero.
func lpcPredict(c lpcCoeffs, x []Sample, i int) Sample {
	if c.q == 0 {
		return 0
	}
	var acc int64
	for j := 0; j < LPCOrder; j++ {
		hi := i - 1 - j
		if hi < 0 {
			continue
		}
		acc += int64(c.coefs[j]) * int64(x[hi])
	}
	return Sample(acc >> c.q)
}
