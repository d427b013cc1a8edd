package velox

// chooseStereoMode computes the sum-of-absolute-differences cost of
// left/right vs. mid/side representation for one stereo sub-block and
// reports whether mid/side should be used.
func chooseStereoMode(l, r []Sample) bool {
	var sadLR, sadMS int64
	for i := range l {
		sadLR += int64(abs64(l[i])) + int64(abs64(r[i]))

		m := (l[i] + r[i]) >> 1
		s := l[i] - r[i]
		sadMS += int64(abs64(m)) + int64(abs64(s))
	}
	return sadMS < sadLR
}

// toMidSide computes the forward mid/side transform.
func toMidSide(l, r []Sample) (mid, side []Sample) {
	mid = make([]Sample, len(l))
	side = make([]Sample, len(l))
	for i := range l {
		mid[i] = (l[i] + r[i]) >> 1
		side[i] = l[i] - r[i]
	}
	return mid, side
}

// fromMidSide is the exact inverse of toMidSide. The +1 offset on the
// left channel compensates the rounding of the forward right shift and
// is required for bit-exact round-trip.
func fromMidSide(mid, side []Sample) (l, r []Sample) {
	l = make([]Sample, len(mid))
	r = make([]Sample, len(mid))
	for i := range mid {
		l[i] = mid[i] + ((side[i] + 1) >> 1)
		r[i] = mid[i] - (side[i] >> 1)
	}
	return l, r
}

// deinterleaveStereo splits an interleaved L,R,L,R,... stream into two
// channel streams.
func deinterleaveStereo(samples []Sample) (l, r []Sample) {
	n := len(samples) / 2
	l = make([]Sample, n)
	r = make([]Sample, n)
	for i := 0; i < n; i++ {
		l[i] = samples[2*i]
		r[i] = samples[2*i+1]
	}
	return l, r
}

// interleaveStereo is the inverse of deinterleaveStereo.
func interleaveStereo(l, r []Sample) []Sample {
	out := make([]Sample, 2*len(l))
	for i := range l {
		out[2*i] = l[i]
		out[2*i+1] = r[i]
	}
	return out
}
