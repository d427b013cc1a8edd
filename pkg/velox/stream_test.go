package velox

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainStream(t *testing.T, d *StreamingDecoder) []Sample {
	t.Helper()
	var out []Sample
	for {
		s, _, err := d.DecodeNext()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestStreamingDecoderMonoMultiBlockRoundTrip(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	frames := 1024*3 + 200 // spans several blocks, last one short
	samples := sineSamples(frames, 12000, 0.04)

	payload, err := EncodeStream(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d.SetBlockSizes(1024, 512)

	decoded := drainStream(t, d)
	assert.Equal(t, samples, decoded)
}

func TestStreamingDecoderStereoMultiBlockRoundTrip(t *testing.T) {
	engine := NewBlockEngine(2048, 512, newWorkerPool(1))
	frames := 2048*2 + 300
	l := sineSamples(frames, 9000, 0.03)
	r := sineSamples(frames, 9000, 0.0305)
	interleaved := interleaveStereo(l, r)

	payload, err := EncodeStream(engine, interleaved, 2, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(interleaved)), 2)
	d.SetBlockSizes(2048, 512)

	decoded := drainStream(t, d)
	assert.Equal(t, interleaved, decoded)
}

func TestStreamingDecoderDeterministicAcrossCalls(t *testing.T) {
	engine := NewBlockEngine(1024, 256, newWorkerPool(1))
	rng := rand.New(rand.NewSource(42))
	frames := 1024 * 2
	samples := make([]Sample, frames)
	for i := range samples {
		samples[i] = Sample(rng.Intn(40000) - 20000)
	}

	payload, err := EncodeStream(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d1 := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d1.SetBlockSizes(1024, 256)
	d2 := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d2.SetBlockSizes(1024, 256)

	assert.Equal(t, drainStream(t, d1), drainStream(t, d2))
}

func TestStreamingDecoderEOFAtDeclaredTotal(t *testing.T) {
	engine := NewBlockEngine(1024, 256, newWorkerPool(1))
	samples := sineSamples(500, 1000, 0.02)

	payload, err := EncodeStream(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d.SetBlockSizes(1024, 256)

	for i := 0; i < len(samples); i++ {
		_, _, err := d.DecodeNext()
		require.NoError(t, err)
	}
	_, _, err = d.DecodeNext()
	assert.Equal(t, io.EOF, err)
}

func TestStreamingDecoderGenuineFloatExponentsRoundTrip(t *testing.T) {
	engine := NewBlockEngine(512, 256, newWorkerPool(1))
	values := make([]float32, 600)
	for i := range values {
		values[i] = float32(i%13-6) * 0.1
	}
	buf := float32WordsToBytes(values)
	mantissas, exponents := splitFloat32(buf, len(values))

	payload, err := EncodeStream(engine, mantissas, 1, true, FloatModeGenuine, exponents)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(mantissas)), 1)
	d.SetBlockSizes(512, 256)

	var gotMantissas []Sample
	var gotExponents []byte
	for {
		s, exp, err := d.DecodeNext()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		gotMantissas = append(gotMantissas, s)
		gotExponents = append(gotExponents, exp)
	}

	assert.Equal(t, mantissas, gotMantissas)
	assert.Equal(t, exponents, gotExponents)
	assert.True(t, d.IsFloat())
	assert.Equal(t, FloatModeGenuine, d.CurrentFloatMode())
}

func TestEncodeExponentsRLERoundTripAcrossRunBoundary(t *testing.T) {
	exps := make([]byte, 0, 600)
	for i := 0; i < 300; i++ {
		exps = append(exps, 0x7F) // single run longer than the 255 cap
	}
	for i := 0; i < 10; i++ {
		exps = append(exps, byte(i))
	}

	w := newBitWriter()
	encodeExponentsRLE(w, exps)
	r := newBitReader(w.flush())
	got := decodeExponentsRLE(r, len(exps))

	assert.Equal(t, exps, got)
}
