package velox

import "encoding/binary"

// seekTable is the optional version >= 0x0800 supplement that lets
// SeekTo jump near a target frame instead of decoding from the start.
// Its absence is never a format error: StreamingDecoder.SeekTo falls
// back to decode-and-discard when none is attached.
type seekTable struct {
	points []seekPoint
}

type seekPoint struct {
	frame      uint64
	byteOffset uint32
}

// EncodeStreamSeekable is EncodeStream plus a seek table recording each
// block's starting frame and byte offset into the returned payload.
func EncodeStreamSeekable(engine *BlockEngine, samples []Sample, channels int, isFloat bool, floatMode FloatMode, exponents []byte) ([]byte, *seekTable, error) {
	blockFrames := engine.blockFrames
	frames := len(samples) / channels

	var out []byte
	table := &seekTable{}
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

		table.points = append(table.points, seekPoint{frame: uint64(start), byteOffset: uint32(len(out))})

		blockBytes, err := engine.EncodeBlock(in)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, blockBytes...)
	}
	return out, table, nil
}

// Encode serializes the seek table: a 4-byte count followed by, for
// each point, an 8-byte LE frame number and a 4-byte LE byte offset.
func (t *seekTable) Encode() []byte {
	buf := make([]byte, 4+len(t.points)*12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(t.points)))
	pos := 4
	for _, p := range t.points {
		binary.LittleEndian.PutUint64(buf[pos:pos+8], p.frame)
		binary.LittleEndian.PutUint32(buf[pos+8:pos+12], p.byteOffset)
		pos += 12
	}
	return buf
}

// decodeSeekTable parses a table previously produced by Encode.
func decodeSeekTable(buf []byte) (*seekTable, error) {
	if len(buf) < 4 {
		return nil, ErrTruncatedStream
	}
	n := int(binary.LittleEndian.Uint32(buf[0:4]))
	if 4+n*12 > len(buf) {
		return nil, ErrTruncatedStream
	}
	t := &seekTable{points: make([]seekPoint, n)}
	pos := 4
	for i := 0; i < n; i++ {
		t.points[i] = seekPoint{
			frame:      binary.LittleEndian.Uint64(buf[pos : pos+8]),
			byteOffset: binary.LittleEndian.Uint32(buf[pos+8 : pos+12]),
		}
		pos += 12
	}
	return t, nil
}

// floorEntry returns the last point whose frame is <= target, or the
// zero point if target precedes every recorded point.
func (t *seekTable) floorEntry(target uint64) seekPoint {
	best := seekPoint{}
	for _, p := range t.points {
		if p.frame <= target {
			best = p
		} else {
			break
		}
	}
	return best
}

// SeekTo repositions the decoder so the next DecodeNext calls resume
// at targetFrame (the frame index, not the interleaved sample index).
// With a seek table attached it jumps to the nearest preceding block
// boundary and decodes forward from there; without one it restarts
// from the beginning and decodes-and-discards up to the target, which
// is always correct, just not O(1).
func (d *StreamingDecoder) SeekTo(targetFrame uint64) error {
	if targetFrame > d.totalFrames {
		targetFrame = d.totalFrames
	}

	var fromFrame uint64
	if d.seek != nil {
		entry := d.seek.floorEntry(targetFrame)
		d.pos = int(entry.byteOffset)
		fromFrame = entry.frame
	} else {
		d.pos = 0
		fromFrame = 0
	}

	d.framesRemaining = d.totalFrames - fromFrame
	d.curBlockFramesRemaining = 0
	d.scratch = nil
	d.cursor = 0
	d.decoded = fromFrame * uint64(d.channels)

	for fromFrame < targetFrame {
		_, _, err := d.DecodeNext()
		if err != nil {
			return err
		}
		if d.channels <= 1 {
			fromFrame++
			continue
		}
		// Advance a full frame: discard the remaining channels of it.
		for c := 1; c < d.channels; c++ {
			if _, _, err := d.DecodeNext(); err != nil {
				return err
			}
		}
		fromFrame++
	}
	return nil
}
