package containerio

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeIEEE80 packs an integer sample rate into the 10-byte IEEE 754
// 80-bit extended-precision layout AIFF's COMM chunk uses, inverse of
// ieee80ToUint32.
func encodeIEEE80(rate uint32) []byte {
	out := make([]byte, 10)
	if rate == 0 {
		return out
	}
	e := bits.Len32(rate) - 1
	mantissa := uint64(rate) << uint(63-e)
	binary.BigEndian.PutUint16(out[0:2], uint16(16383+e))
	binary.BigEndian.PutUint64(out[2:10], mantissa)
	return out
}

// buildAIFF assembles a minimal, well-formed AIFF/AIFC file byte-for-byte.
func buildAIFF(t *testing.T, channels, sampleRate, bitsPerSample int, pcmBigEndian []byte, beforeSSND, afterSSND []byte) []byte {
	t.Helper()

	var comm bytes.Buffer
	comm.WriteString("COMM")
	binary.Write(&comm, binary.BigEndian, uint32(18))
	binary.Write(&comm, binary.BigEndian, uint16(channels))
	binary.Write(&comm, binary.BigEndian, uint32(len(pcmBigEndian)/(bitsPerSample/8)/channels))
	binary.Write(&comm, binary.BigEndian, uint16(bitsPerSample))
	comm.Write(encodeIEEE80(uint32(sampleRate)))

	var ssnd bytes.Buffer
	ssnd.WriteString("SSND")
	binary.Write(&ssnd, binary.BigEndian, uint32(8+len(pcmBigEndian)))
	binary.Write(&ssnd, binary.BigEndian, uint32(0)) // offset
	binary.Write(&ssnd, binary.BigEndian, uint32(0)) // blockSize
	ssnd.Write(pcmBigEndian)
	if len(pcmBigEndian)%2 == 1 {
		ssnd.WriteByte(0)
	}

	var body bytes.Buffer
	body.WriteString("AIFF")
	body.Write(comm.Bytes())
	body.Write(beforeSSND)
	body.Write(ssnd.Bytes())
	body.Write(afterSSND)

	var out bytes.Buffer
	out.WriteString("FORM")
	binary.Write(&out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func aiffChunk(id string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func TestExtractAIFFReadsFormatFields(t *testing.T) {
	pcmBE := []byte{0, 1, 0, 2, 0, 3, 0, 4} // 4 mono 16-bit big-endian samples
	raw := buildAIFF(t, 1, 44100, 16, pcmBE, nil, nil)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 16, info.BitsPerSample)
	assert.False(t, info.IsFloat)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, info.PCM) // swapped to little-endian
}

func TestExtractAIFFIEEE80SampleRate48000(t *testing.T) {
	pcmBE := make([]byte, 8)
	raw := buildAIFF(t, 1, 48000, 16, pcmBE, nil, nil)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)
	assert.Equal(t, 48000, info.SampleRate)
}

func TestExtractAIFFPreservesExtraChunksInHeaderAndFooterBlobs(t *testing.T) {
	pcmBE := []byte{0, 1, 0, 2}
	before := aiffChunk("ANNO", []byte("some info text"))
	after := aiffChunk("ANNO", []byte("trailing metadata"))
	raw := buildAIFF(t, 1, 44100, 16, pcmBE, before, after)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)

	rebuilt := RebuildAIFF(info)
	assert.Equal(t, raw, rebuilt)
}

func TestExtractAIFFHandlesOddSizedDataWithPadByte(t *testing.T) {
	pcmBE := []byte{1, 2, 3} // odd length: gets a pad byte in the file
	raw := buildAIFF(t, 1, 44100, 8, pcmBE, nil, nil)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)
	assert.Equal(t, pcmBE, info.PCM) // 8-bit: no byte order to swap
	assert.Equal(t, []byte{0}, info.FooterBlob)

	rebuilt := RebuildAIFF(info)
	assert.Equal(t, raw, rebuilt)
}

func TestExtractAIFFPreservesTrailingChunkAfterOddSizedData(t *testing.T) {
	pcmBE := []byte{1, 2, 3} // odd length: gets a pad byte, then a chunk follows it
	after := aiffChunk("ANNO", []byte("trailing metadata"))
	raw := buildAIFF(t, 1, 44100, 8, pcmBE, nil, after)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)
	assert.Equal(t, pcmBE, info.PCM)
	assert.Equal(t, append([]byte{0}, after...), info.FooterBlob)
	assert.Equal(t, raw, RebuildAIFF(info))
}

func TestExtractAIFFRejectsNonFORM(t *testing.T) {
	_, err := ExtractAIFF([]byte("not an aiff file at all"))
	assert.ErrorIs(t, err, ErrNotAIFF)
}

func TestExtractAIFFRejectsMissingSoundChunk(t *testing.T) {
	var comm bytes.Buffer
	comm.WriteString("COMM")
	binary.Write(&comm, binary.BigEndian, uint32(18))
	binary.Write(&comm, binary.BigEndian, uint16(1))
	binary.Write(&comm, binary.BigEndian, uint32(0))
	binary.Write(&comm, binary.BigEndian, uint16(16))
	comm.Write(encodeIEEE80(44100))

	var body bytes.Buffer
	body.WriteString("AIFF")
	body.Write(comm.Bytes())

	var out bytes.Buffer
	out.WriteString("FORM")
	binary.Write(&out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	_, err := ExtractAIFF(out.Bytes())
	assert.ErrorIs(t, err, ErrNoSoundData)
}

func TestExtractAIFFStereoRoundTrip24Bit(t *testing.T) {
	pcmBE := make([]byte, 48) // 8 frames, 2 channels, 3 bytes each
	for i := range pcmBE {
		pcmBE[i] = byte(i)
	}
	raw := buildAIFF(t, 2, 96000, 24, pcmBE, nil, nil)

	info, err := ExtractAIFF(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 96000, info.SampleRate)
	assert.Equal(t, 24, info.BitsPerSample)
	assert.Equal(t, raw, RebuildAIFF(info))

	// every 3-byte sample word should be byte-reversed relative to the source
	for i := 0; i+3 <= len(pcmBE); i += 3 {
		assert.Equal(t, pcmBE[i], info.PCM[i+2])
		assert.Equal(t, pcmBE[i+2], info.PCM[i])
	}
}
