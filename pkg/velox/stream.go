package velox

import (
	"encoding/binary"
	"io"
)

// StreamingDecoder is a pull decoder over the compressed payload bytes
// of one file. It emits samples one at a time on demand, decoding
// blocks and sub-block chunks lazily as the caller asks for more. It
// holds no external resources and is not internally synchronized — a
// caller needing cancellable playback simply stops calling DecodeNext
// and drops the decoder.
type StreamingDecoder struct {
	payload  []byte
	pos      int
	channels int

	blockFrames    int
	subBlockFrames int

	totalFrames     uint64
	framesRemaining uint64

	curBlockFramesRemaining int
	isFloat                 bool
	floatMode               FloatMode
	highRes                 bool
	exponents               []byte
	expIndex                int

	scratch []Sample
	cursor  int

	decoded uint64
	total   uint64

	seek *seekTable
}

// NewStreamingDecoder constructs a decoder over payload, the
// compressed-payload byte slice of one file, given its declared total
// interleaved sample count and channel count.
func NewStreamingDecoder(payload []byte, totalSamples uint64, channels int) *StreamingDecoder {
	totalFrames := uint64(0)
	if channels > 0 {
		totalFrames = totalSamples / uint64(channels)
	}
	return &StreamingDecoder{
		payload:         payload,
		channels:        channels,
		blockFrames:     BlockFrames,
		subBlockFrames:  SubBlockFrames,
		totalFrames:     totalFrames,
		framesRemaining: totalFrames,
		total:           totalSamples,
	}
}

// SetBlockSizes overrides the block/sub-block frame sizes the decoder
// assumes, for use with a BlockEngine constructed with non-default
// sizes. Must be called before the first DecodeNext.
func (d *StreamingDecoder) SetBlockSizes(blockFrames, subBlockFrames int) {
	if blockFrames > 0 {
		d.blockFrames = blockFrames
	}
	if subBlockFrames > 0 {
		d.subBlockFrames = subBlockFrames
	}
}

// AttachSeekTable lets SeekTo start from the nearest preceding block
// boundary (found by a linear scan of the table) instead of the start
// of the payload. Its absence is never a format error: SeekTo falls
// back to decode-and-discard.
func (d *StreamingDecoder) AttachSeekTable(t *seekTable) {
	d.seek = t
}

// IsFloat and CurrentFloatMode report the format of the block most recently
// read. Since mid-stream format changes are a non-goal, these are
// constant for the whole file once the first block header has been
// read by a DecodeNext call.
func (d *StreamingDecoder) IsFloat() bool         { return d.isFloat }
func (d *StreamingDecoder) CurrentFloatMode() FloatMode { return d.floatMode }

// DecodeNext returns the next (sample, exponent byte) pair. exponent
// is zero unless the stream is genuine float (float_mode 0), in which
// case it carries that sample's stored biased exponent. It returns
// io.EOF once the declared total sample count has been produced.
func (d *StreamingDecoder) DecodeNext() (Sample, byte, error) {
	if d.decoded >= d.total {
		return 0, 0, io.EOF
	}
	if d.cursor >= len(d.scratch) {
		if err := d.fillNextChunk(); err != nil {
			return 0, 0, err
		}
	}

	s := d.scratch[d.cursor]
	var exp byte
	if d.isFloat && d.floatMode == FloatModeGenuine && d.expIndex < len(d.exponents) {
		exp = d.exponents[d.expIndex]
		d.expIndex++
	}
	d.cursor++
	d.decoded++
	return s, exp, nil
}

// fillNextChunk decodes the next sub-block chunk into the scratch
// buffer, reading a new block header first if the current block has
// been fully consumed.
func (d *StreamingDecoder) fillNextChunk() error {
	if d.curBlockFramesRemaining == 0 {
		if d.framesRemaining == 0 {
			return io.EOF
		}
		blockFrameCount := d.blockFrames
		if uint64(blockFrameCount) > d.framesRemaining {
			blockFrameCount = int(d.framesRemaining)
		}
		if err := d.readBlockHeader(blockFrameCount); err != nil {
			return err
		}
		d.curBlockFramesRemaining = blockFrameCount
	}

	stereo := d.channels == 2
	streams := d.channels
	var subFrames int
	if stereo {
		subFrames = d.subBlockFrames
		if subFrames > d.curBlockFramesRemaining {
			subFrames = d.curBlockFramesRemaining
		}
	} else {
		subFrames = d.curBlockFramesRemaining
	}

	if d.pos+4 > len(d.payload) {
		return ErrTruncatedStream
	}
	chunkLen := binary.LittleEndian.Uint32(d.payload[d.pos : d.pos+4])
	d.pos += 4
	if d.pos+int(chunkLen) > len(d.payload) {
		return ErrCorruptChunk
	}
	body := d.payload[d.pos : d.pos+int(chunkLen)]
	d.pos += int(chunkLen)

	samples, err := decodeSubBlockChunk(body, streams, stereo, subFrames, d.highRes)
	if err != nil {
		return err
	}

	d.scratch = samples
	d.cursor = 0
	d.curBlockFramesRemaining -= subFrames
	d.framesRemaining -= uint64(subFrames)
	return nil
}

// readBlockHeader reads the per-block header bits (is_float,
// float_mode, RLE exponents, high_res_mode) starting at the current
// byte position, and advances pos past them.
func (d *StreamingDecoder) readBlockHeader(blockFrameCount int) error {
	r := newBitReader(d.payload[d.pos:])

	d.isFloat = r.readBit() == 1
	if d.isFloat {
		d.floatMode = FloatMode(r.readBits(2))
		if d.floatMode == FloatModeGenuine {
			n := blockFrameCount * d.channels
			d.exponents = decodeExponentsRLE(r, n)
			d.expIndex = 0
		} else {
			d.exponents = nil
			d.expIndex = 0
		}
	} else {
		d.floatMode = FloatModeGenuine
		d.exponents = nil
		d.expIndex = 0
	}
	d.highRes = r.readBit() == 1

	d.pos += r.bytesConsumed()
	return nil
}

// EncodeStream runs engine.EncodeBlock once per block over a full interleaved sample
// buffer, concatenating each block's bytes into one compressed
// payload — the stream framer's encode side (C9). channels, isFloat,
// floatMode, and exponents are constant for the whole stream per
// spec.md's "no mid-stream format changes" non-goal.
func EncodeStream(engine *BlockEngine, samples []Sample, channels int, isFloat bool, floatMode FloatMode, exponents []byte) ([]byte, error) {
	blockFrames := engine.blockFrames
	frames := len(samples) / channels

	var out []byte
	for start := 0; start < frames; start += blockFrames {
		end := start + blockFrames
		if end > frames {
			end = frames
		}
		blockSamples := samples[start*channels : end*channels]

		in := BlockInput{
			Samples:   blockSamples,
			Channels:  channels,
			IsFloat:   isFloat,
			FloatMode: floatMode,
		}
		if isFloat && floatMode == FloatModeGenuine && exponents != nil {
			in.Exponents = exponents[start*channels : end*channels]
		}

		blockBytes, err := engine.EncodeBlock(in)
		if err != nil {
			return nil, err
		}
		out = append(out, blockBytes...)
	}
	return out, nil
}

// encodeExponentsRLE run-length-encodes a byte stream: each run is
// written as an 8-bit run length (1..255) followed by the 8-bit value,
// splitting a run that would exceed 255 into multiple entries.
func encodeExponentsRLE(w *bitWriter, exps []byte) {
	i := 0
	for i < len(exps) {
		v := exps[i]
		runLen := 0
		for i < len(exps) && exps[i] == v && runLen < 255 {
			runLen++
			i++
		}
		w.writeBits(uint32(runLen), 8)
		w.writeBits(uint32(v), 8)
	}
}

// decodeExponentsRLE reads run-length-encoded entries until n bytes
// have been reconstructed.
func decodeExponentsRLE(r *bitReader, n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		runLen := r.readBits(8)
		v := byte(r.readBits(8))
		for j := uint32(0); j < runLen && len(out) < n; j++ {
			out = append(out, v)
		}
	}
	return out
}
