package velox

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidSideRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	l := make([]Sample, 500)
	r := make([]Sample, 500)
	for i := range l {
		l[i] = Sample(rng.Intn(131071) - 65536)
		r[i] = Sample(rng.Intn(131071) - 65536)
	}

	mid, side := toMidSide(l, r)
	gotL, gotR := fromMidSide(mid, side)

	assert.Equal(t, l, gotL)
	assert.Equal(t, r, gotR)
}

func TestMidSideRoundTripEdgeValues(t *testing.T) {
	l := []Sample{0, 1, -1, 32767, -32768, 1 << 23, -(1 << 23)}
	r := []Sample{0, -1, 1, -32768, 32767, -(1 << 23), 1 << 23}

	mid, side := toMidSide(l, r)
	gotL, gotR := fromMidSide(mid, side)

	assert.Equal(t, l, gotL)
	assert.Equal(t, r, gotR)
}

func TestInterleaveDeinterleaveRoundTrip(t *testing.T) {
	samples := []Sample{1, 2, 3, 4, 5, 6}
	l, r := deinterleaveStereo(samples)
	assert.Equal(t, []Sample{1, 3, 5}, l)
	assert.Equal(t, []Sample{2, 4, 6}, r)
	assert.Equal(t, samples, interleaveStereo(l, r))
}

func TestChooseStereoModePrefersMidSideForCorrelatedChannels(t *testing.T) {
	n := 256
	l := make([]Sample, n)
	r := make([]Sample, n)
	for i := range l {
		l[i] = Sample(i % 100)
		r[i] = Sample(i%100) + 1 // nearly identical to l: side stays tiny
	}
	assert.True(t, chooseStereoMode(l, r))
}

func TestChooseStereoModePrefersLRForUncorrelatedChannels(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 512
	l := make([]Sample, n)
	r := make([]Sample, n)
	for i := range l {
		l[i] = Sample(rng.Intn(20) - 10)
		r[i] = Sample(rng.Intn(200000) - 100000)
	}
	assert.False(t, chooseStereoMode(l, r))
}
