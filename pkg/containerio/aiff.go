package containerio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotAIFF means the input does not start with a FORM/AIFF header.
var ErrNotAIFF = errors.New("containerio: not a FORM/AIFF file")

// ErrNoSoundData means no 'SSND' chunk was found before EOF.
var ErrNoSoundData = errors.New("containerio: no SSND chunk found")

// ErrNoCommonChunk means no 'COMM' chunk was found before EOF, so
// sample format can't be determined.
var ErrNoCommonChunk = errors.New("containerio: no COMM chunk found")

// ExtractAIFF parses an AIFF/AIFC file's bytes. AIFF chunk sizes and
// sample data are big-endian, unlike RIFF/WAVE; ExtractAIFF swaps the
// extracted PCM into the same little-endian layout ExtractWAV produces
// so the codec core never has to care which container a file came
// from, and RebuildAIFF swaps it back on the way out.
func ExtractAIFF(raw []byte) (*WAVInfo, error) {
	if len(raw) < 12 || string(raw[0:4]) != "FORM" {
		return nil, ErrNotAIFF
	}
	formType := string(raw[8:12])
	if formType != "AIFF" && formType != "AIFC" {
		return nil, ErrNotAIFF
	}

	channels, bitsPerSample, sampleRate, err := findCommonChunk(raw)
	if err != nil {
		return nil, err
	}

	dataOffset, dataSize, err := findSoundChunk(raw)
	if err != nil {
		return nil, err
	}

	pcmEnd := dataOffset + dataSize
	if pcmEnd > len(raw) {
		pcmEnd = len(raw)
	}

	pcm := append([]byte(nil), raw[dataOffset:pcmEnd]...)
	swapPCMEndian(pcm, bitsPerSample)

	info := &WAVInfo{
		SampleRate:    sampleRate,
		Channels:      channels,
		BitsPerSample: bitsPerSample,
		IsFloat:       false, // AIFF/AIFC sound data is PCM; compressed AIFC formats aren't supported
		PCM:           pcm,
		HeaderBlob:    raw[:dataOffset],
		FooterBlob:    raw[pcmEnd:], // includes the SSND pad byte, if any, plus any trailing chunks
	}
	return info, nil
}

// findCommonChunk walks top-level AIFF chunks looking for 'COMM',
// which carries channel count, bit depth, and an 80-bit IEEE 754
// extended-precision sample rate.
func findCommonChunk(raw []byte) (channels, bitsPerSample, sampleRate int, err error) {
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		chunkSize := int(binary.BigEndian.Uint32(raw[pos+4 : pos+8]))
		payloadStart := pos + 8

		if id == "COMM" {
			if payloadStart+18 > len(raw) {
				return 0, 0, 0, fmt.Errorf("containerio: truncated COMM chunk")
			}
			channels = int(binary.BigEndian.Uint16(raw[payloadStart : payloadStart+2]))
			bitsPerSample = int(binary.BigEndian.Uint16(raw[payloadStart+6 : payloadStart+8]))
			sampleRate = int(ieee80ToUint32(raw[payloadStart+8 : payloadStart+18]))
			return channels, bitsPerSample, sampleRate, nil
		}

		advance := chunkSize
		if advance%2 == 1 {
			advance++
		}
		pos = payloadStart + advance
	}
	return 0, 0, 0, ErrNoCommonChunk
}

// findSoundChunk walks top-level AIFF chunks looking for 'SSND' and
// returns the byte offset and size of the actual sample data, which
// sits after the chunk's own 8-byte offset/blockSize fields and
// whatever block-alignment padding offset describes.
func findSoundChunk(raw []byte) (offset int, size int, err error) {
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		chunkSize := int(binary.BigEndian.Uint32(raw[pos+4 : pos+8]))
		payloadStart := pos + 8

		if id == "SSND" {
			if payloadStart+8 > len(raw) {
				return 0, 0, fmt.Errorf("containerio: truncated SSND chunk")
			}
			dataOffset := int(binary.BigEndian.Uint32(raw[payloadStart : payloadStart+4]))
			soundStart := payloadStart + 8 + dataOffset
			soundSize := chunkSize - 8 - dataOffset
			return soundStart, soundSize, nil
		}

		advance := chunkSize
		if advance%2 == 1 {
			advance++
		}
		pos = payloadStart + advance
	}
	return 0, 0, ErrNoSoundData
}

// ieee80ToUint32 decodes the 10-byte IEEE 754 80-bit extended-precision
// float AIFF stores its sample rate as, returning its integer part (any
// fractional part is dropped). Exponent is biased by 16383; the mantissa's top bit
// is an explicit integer bit rather than implicit as in IEEE 754
// double/single precision.
func ieee80ToUint32(b []byte) uint32 {
	exp := int(binary.BigEndian.Uint16(b[0:2]))
	mantissa := binary.BigEndian.Uint64(b[2:10])

	sign := exp & 0x8000
	exp &^= 0x8000
	if sign != 0 || mantissa == 0 {
		return 0
	}

	e := exp - 16383 // unbiased exponent; mantissa's explicit top bit represents 2^e
	if e < 0 || e > 63 {
		return 0
	}
	return uint32(mantissa >> uint(63-e))
}

// swapPCMEndian byte-swaps every sample word in place between AIFF's
// big-endian layout and this module's internal little-endian one.
// 8-bit samples have no byte order to swap.
func swapPCMEndian(pcm []byte, bitsPerSample int) {
	width := bitsPerSample / 8
	if width <= 1 {
		return
	}
	for i := 0; i+width <= len(pcm); i += width {
		for j, k := 0, width-1; j < k; j, k = j+1, k-1 {
			pcm[i+j], pcm[i+k] = pcm[i+k], pcm[i+j]
		}
	}
}

// RebuildAIFF reassembles a complete AIFF file from a decoded WAVInfo's
// preserved blobs and freshly-decoded PCM bytes, swapping sample data
// back to AIFF's big-endian layout first.
func RebuildAIFF(info *WAVInfo) []byte {
	pcm := append([]byte(nil), info.PCM...)
	swapPCMEndian(pcm, info.BitsPerSample)

	out := make([]byte, 0, len(info.HeaderBlob)+len(pcm)+len(info.FooterBlob))
	out = append(out, info.HeaderBlob...)
	out = append(out, pcm...)
	out = append(out, info.FooterBlob...)
	return out
}
