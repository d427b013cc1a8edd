// Package containerio walks RIFF/WAVE and FORM/AIFF containers to pull
// out raw PCM bytes and sample format for the codec core, and slices
// exact header/footer byte ranges so a decoded file reconstructs its
// original container bytes verbatim, the way cmd/convert.go in the
// teacher CLI drives go-audio/wav for its own container work.
package containerio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// ErrNotRIFF means the input does not start with a RIFF/WAVE header.
var ErrNotRIFF = errors.New("containerio: not a RIFF/WAVE file")

// ErrNoDataChunk means no 'data' chunk was found before EOF.
var ErrNoDataChunk = errors.New("containerio: no data chunk found")

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// WAVInfo is everything the codec front-end and the file envelope need
// pulled out of a WAVE or AIFF container: sample format, the raw PCM
// payload (always little-endian, regardless of source container), and
// the exact surrounding bytes to preserve. ExtractAIFF populates the
// same struct as ExtractWAV so the CLI can treat both container kinds
// uniformly.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	IsFloat       bool

	PCM []byte

	// HeaderBlob is every byte from the start of the file through the
	// sample-data chunk's own header fields ('data'+size for WAVE,
	// 'SSND'+size+offset+blockSize for AIFF), inclusive. FooterBlob is
	// every byte from the end of the PCM payload (the chunk's declared
	// size; this includes the trailing pad byte when that size is odd,
	// and any chunks that follow) to EOF.
	HeaderBlob []byte
	FooterBlob []byte
}

// ExtractWAV parses a WAVE file's bytes, using go-audio/wav to read
// the fmt chunk's sample format and a manual chunk walk (RIFF chunks
// are trivially self-describing: 4-byte id, 4-byte LE size, payload)
// to locate the exact byte range of the data chunk's payload, since
// byte-exact container preservation needs offsets the decode-to-Buffer
// API does not expose.
func ExtractWAV(raw []byte) (*WAVInfo, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, ErrNotRIFF
	}

	dataOffset, dataSize, err := findDataChunk(raw)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(bytes.NewReader(raw))
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("containerio: reading wav header: %w", err)
	}

	format := dec.Format()
	isFloat := dec.WavAudioFormat == wavFormatFloat

	pcmEnd := dataOffset + dataSize
	if pcmEnd > len(raw) {
		pcmEnd = len(raw)
	}

	info := &WAVInfo{
		SampleRate:    format.SampleRate,
		Channels:      format.NumChannels,
		BitsPerSample: int(dec.BitDepth),
		IsFloat:       isFloat,
		PCM:           raw[dataOffset:pcmEnd],
		HeaderBlob:    raw[:dataOffset],
		FooterBlob:    raw[pcmEnd:], // includes the RIFF pad byte, if any, plus any trailing chunks
	}
	return info, nil
}

// findDataChunk walks top-level RIFF chunks starting right after the
// 12-byte RIFF/WAVE file header and returns the byte offset of the
// 'data' chunk's payload (just past its 8-byte id+size header) and its
// declared size.
func findDataChunk(raw []byte) (offset int, size int, err error) {
	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		payloadStart := pos + 8

		if id == "data" {
			return payloadStart, chunkSize, nil
		}

		advance := chunkSize
		if advance%2 == 1 {
			advance++
		}
		pos = payloadStart + advance
	}
	return 0, 0, ErrNoDataChunk
}

// RebuildWAV reassembles a complete WAVE file from a decoded WAVInfo's
// preserved blobs and freshly-decoded PCM bytes, byte-exact modulo the
// PCM payload itself.
func RebuildWAV(info *WAVInfo) []byte {
	out := make([]byte, 0, len(info.HeaderBlob)+len(info.PCM)+len(info.FooterBlob))
	out = append(out, info.HeaderBlob...)
	out = append(out, info.PCM...)
	out = append(out, info.FooterBlob...)
	return out
}
