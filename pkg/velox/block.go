package velox

import (
	"encoding/binary"
)

// BlockInput bundles everything the block engine needs to encode one
// block of interleaved samples. Exponents is only meaningful when
// IsFloat is true and FloatMode is FloatModeGenuine.
type BlockInput struct {
	Samples   []Sample
	Channels  int
	IsFloat   bool
	FloatMode FloatMode
	Exponents []byte
}

// BlockEngine composes the format front-end, preprocessors, channel
// decorrelator, LPC stage, adaptive predictor, and entropy coder into a
// per-block encode/decode, with a per-sub-block verbatim fallback. The
// worker pool is a constructor parameter rather than hidden state, so
// callers can force deterministic single-threaded execution.
type BlockEngine struct {
	blockFrames    int
	subBlockFrames int
	pool           *workerPool
}

// NewBlockEngine constructs a block engine. blockFrames <= 0 uses the
// reference BlockFrames; subBlockFrames <= 0 uses SubBlockFrames. A nil
// pool is replaced by a pool of limit 1, which runs the sub-blocks one
// at a time in order.
func NewBlockEngine(blockFrames, subBlockFrames int, pool *workerPool) *BlockEngine {
	if blockFrames <= 0 {
		blockFrames = BlockFrames
	}
	if subBlockFrames <= 0 {
		subBlockFrames = SubBlockFrames
	}
	if pool == nil {
		pool = newWorkerPool(1)
	}
	return &BlockEngine{blockFrames: blockFrames, subBlockFrames: subBlockFrames, pool: pool}
}

// subBlockSpec describes one independently-encodable sub-block: the
// samples it covers and how many channel streams it carries. streams
// is 2 only for the ordinary even-length, 2-channel stereo case (the
// only case that carries a use_ms bit); it is 1 for mono, for the
// odd-total-sample-count safety fallback, and is >2 for N-channel audio,
// each handled as an independent channel stream with no decorrelation.
type subBlockSpec struct {
	samples []Sample
	streams int
	stereo  bool
}

// partitionBlock splits a block's interleaved samples into independent
// sub-blocks, per spec.md §4.8.2 and §4.4.
func (e *BlockEngine) partitionBlock(samples []Sample, channels int) []subBlockSpec {
	if channels != 2 || len(samples)%2 != 0 {
		// Mono, N-channel, or the odd-total-sample-count safety case:
		// one sub-block spanning the whole block.
		streams := channels
		if channels == 2 && len(samples)%2 != 0 {
			streams = 1
		}
		return []subBlockSpec{{samples: samples, streams: streams, stereo: false}}
	}

	frames := len(samples) / 2
	var specs []subBlockSpec
	for start := 0; start < frames; start += e.subBlockFrames {
		end := start + e.subBlockFrames
		if end > frames {
			end = frames
		}
		specs = append(specs, subBlockSpec{
			samples: samples[start*2 : end*2],
			streams: 2,
			stereo:  true,
		})
	}
	return specs
}

// EncodeBlock encodes one block of interleaved samples into its
// self-contained compressed form: block header bits followed by one or
// more length-prefixed sub-block chunks.
func (e *BlockEngine) EncodeBlock(in BlockInput) ([]byte, error) {
	header := newBitWriter()
	header.writeBit(boolBit(in.IsFloat))
	if in.IsFloat {
		header.writeBits(uint32(in.FloatMode), 2)
		if in.FloatMode == FloatModeGenuine {
			encodeExponentsRLE(header, in.Exponents)
		}
	}

	highRes := false
	if !(in.IsFloat && in.FloatMode == FloatModeGenuine) {
		highRes = needsHighRes(in.Samples)
	}
	header.writeBit(boolBit(highRes))

	specs := e.partitionBlock(in.Samples, in.Channels)

	chunks, err := e.pool.run(len(specs), func(i int) ([]byte, error) {
		return encodeSubBlockChunk(specs[i], highRes)
	})
	if err != nil {
		return nil, err
	}

	out := header.flush()
	for _, chunk := range chunks {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(chunk)))
		out = append(out, lenBuf[:]...)
		out = append(out, chunk...)
	}
	return out, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// encodeSubBlockChunk encodes one sub-block into a self-contained,
// byte-aligned chunk body, choosing between the predictive and
// verbatim forms per spec.md §4.8.3.
func encodeSubBlockChunk(spec subBlockSpec, highRes bool) ([]byte, error) {
	compressed, err := tryCompress(spec, highRes)
	if err != nil {
		return nil, err
	}

	threshold := verbatimThreshold(spec)
	if len(compressed) < threshold {
		return compressed, nil
	}
	return encodeVerbatim(spec), nil
}

// verbatimThreshold matches spec.md §4.8.3.d: total_frames*2*4 for a
// stereo sub-block's raw dump, n*4 otherwise.
func verbatimThreshold(spec subBlockSpec) int {
	if spec.stereo {
		frames := len(spec.samples) / 2
		return frames * 2 * 4
	}
	return len(spec.samples) * 4
}

// tryCompress runs the full predictive pipeline over a sub-block.
func tryCompress(spec subBlockSpec, highRes bool) ([]byte, error) {
	w := newBitWriter()
	w.writeBit(1) // compressed_mode

	if spec.stereo {
		l, r := deinterleaveStereo(spec.samples)
		useMS := chooseStereoMode(l, r)
		w.writeBit(boolBit(useMS))

		var ch0, ch1 []Sample
		if useMS {
			ch0, ch1 = toMidSide(l, r)
		} else {
			ch0, ch1 = l, r
		}
		encodeChannelStream(w, ch0, highRes)
		encodeChannelStream(w, ch1, highRes)
	} else if spec.streams <= 1 {
		encodeChannelStream(w, spec.samples, highRes)
	} else {
		channels := splitChannels(spec.samples, spec.streams)
		for _, ch := range channels {
			encodeChannelStream(w, ch, highRes)
		}
	}

	return w.flush(), nil
}

// splitChannels deinterleaves an N-channel interleaved sample stream
// into N independent per-channel streams.
func splitChannels(samples []Sample, channels int) [][]Sample {
	frames := len(samples) / channels
	out := make([][]Sample, channels)
	for c := 0; c < channels; c++ {
		out[c] = make([]Sample, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}

// mergeChannels is the inverse of splitChannels.
func mergeChannels(channels [][]Sample) []Sample {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	n := len(channels)
	out := make([]Sample, frames*n)
	for i := 0; i < frames; i++ {
		for c := 0; c < n; c++ {
			out[i*n+c] = channels[c][i]
		}
	}
	return out
}

// encodeChannelStream encodes one channel's samples: a silence bit,
// then (if not silent) the LSB shift, LPC header, entropy-coded
// residual stream, and (if highRes) the verbatim low-byte stream.
func encodeChannelStream(w *bitWriter, samples []Sample, highRes bool) {
	if isSilent(samples) {
		w.writeBit(1)
		return
	}
	w.writeBit(0)

	work := samples
	var low []byte
	if highRes {
		var high []Sample
		high, low = splitBitPlane(samples)
		work = high
	}

	shift := computeLSBShift(work)
	w.writeBits(uint32(shift), 5)
	work = applyLSBShift(work, shift)

	coeffs := computeLPC(work)
	w.writeBits(uint32(coeffs.q), 5)
	for _, c := range coeffs.coefs {
		w.writeBits(uint32(uint16(c)), 16)
	}

	pred := &neuralPredictor{}
	ctx := newRiceContext()
	for i, x := range work {
		predLPC := lpcPredict(coeffs, work, i)
		resLPC := int64(x) - int64(predLPC)

		predicted := pred.predict()
		final := resLPC - predicted

		encodeRice(w, ctx, final)
		pred.update(resLPC, predicted)
	}

	if highRes {
		for _, b := range low {
			w.writeBits(uint32(b), 8)
		}
	}
}

// encodeVerbatim writes the raw ZigZag dump fallback. Per the Open
// Question resolution in spec.md §9, verbatim never transforms: it
// always writes the original (pre-M/S) channel data and records
// use_ms = 0.
func encodeVerbatim(spec subBlockSpec) []byte {
	w := newBitWriter()
	w.writeBit(0) // compressed_mode
	if spec.stereo {
		w.writeBit(0) // use_ms, always 0 for verbatim
		l, r := deinterleaveStereo(spec.samples)
		writeZigZagDump(w, l)
		writeZigZagDump(w, r)
	} else if spec.streams <= 1 {
		writeZigZagDump(w, spec.samples)
	} else {
		for _, ch := range splitChannels(spec.samples, spec.streams) {
			writeZigZagDump(w, ch)
		}
	}
	return w.flush()
}

func writeZigZagDump(w *bitWriter, samples []Sample) {
	for _, s := range samples {
		w.writeBits(uint32(zigzag(int64(s))), 32)
	}
}

// decodeSubBlockChunk decodes one chunk body given the number of
// frames it covers (per channel stream, for the stereo/mono cases; the
// N-channel case uses frames as the per-channel frame count too) and
// whether it is a stereo (2-stream, use_ms-aware) sub-block, a single
// stream, or an N-channel sub-block.
func decodeSubBlockChunk(body []byte, streams int, stereo bool, frames int, highRes bool) ([]Sample, error) {
	r := newBitReader(body)
	compressed := r.readBit() == 1

	if stereo {
		useMS := r.readBit() == 1
		var ch0, ch1 []Sample
		var err error
		if compressed {
			ch0, err = decodeChannelStream(r, frames, highRes)
			if err != nil {
				return nil, err
			}
			ch1, err = decodeChannelStream(r, frames, highRes)
			if err != nil {
				return nil, err
			}
			var l, r2 []Sample
			if useMS {
				l, r2 = fromMidSide(ch0, ch1)
			} else {
				l, r2 = ch0, ch1
			}
			return interleaveStereo(l, r2), nil
		}
		l, err := decodeVerbatimStream(r, frames)
		if err != nil {
			return nil, err
		}
		r2, err := decodeVerbatimStream(r, frames)
		if err != nil {
			return nil, err
		}
		return interleaveStereo(l, r2), nil
	}

	if streams <= 1 {
		if compressed {
			return decodeChannelStream(r, frames, highRes)
		}
		return decodeVerbatimStream(r, frames)
	}

	channels := make([][]Sample, streams)
	for c := 0; c < streams; c++ {
		var ch []Sample
		var err error
		if compressed {
			ch, err = decodeChannelStream(r, frames, highRes)
		} else {
			ch, err = decodeVerbatimStream(r, frames)
		}
		if err != nil {
			return nil, err
		}
		channels[c] = ch
	}
	return mergeChannels(channels), nil
}

// decodeChannelStream is the exact inverse of encodeChannelStream.
func decodeChannelStream(r *bitReader, n int, highRes bool) ([]Sample, error) {
	if r.readBit() == 1 {
		return make([]Sample, n), nil // silent: all zero
	}

	shift := uint8(r.readBits(5))
	if shift > maxLSBShift {
		return nil, ErrCorruptChunk
	}

	var coeffs lpcCoeffs
	coeffs.q = uint8(r.readBits(5))
	for i := range coeffs.coefs {
		coeffs.coefs[i] = int16(uint16(r.readBits(16)))
	}

	work := make([]Sample, n)
	pred := &neuralPredictor{}
	ctx := newRiceContext()
	for i := 0; i < n; i++ {
		final := decodeRice(r, ctx)
		predicted := pred.predict()
		resLPC := final + predicted

		predLPC := lpcPredict(coeffs, work, i)
		x := resLPC + int64(predLPC)
		work[i] = Sample(x)

		pred.update(resLPC, predicted)
	}

	work = restoreLSBShift(work, shift)

	if highRes {
		low := make([]byte, n)
		for i := range low {
			low[i] = byte(r.readBits(8))
		}
		return mergeBitPlane(work, low), nil
	}
	return work, nil
}

// decodeVerbatimStream reads n raw ZigZag-encoded 32-bit samples.
func decodeVerbatimStream(r *bitReader, n int) ([]Sample, error) {
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		m := uint64(r.readBits(32))
		out[i] = Sample(dezigzag(m))
	}
	return out, nil
}
