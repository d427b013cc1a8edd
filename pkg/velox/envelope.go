package velox

import (
	"encoding/binary"
	"fmt"
)

// Magic is the fixed 4-byte file signature, 'VELX' read little-endian.
const Magic uint32 = 0x56454C58

const bitsPerSamplePadFlag = uint16(0x8000)

const envelopeFixedSize = 32

// Header is the fixed 32-byte envelope header (spec.md §6).
type Header struct {
	Version        uint16
	SampleRate     uint32
	Channels       uint16
	BitsPerSample  uint16 // low 15 bits; OddPad carries the high bit separately
	OddPad         bool
	FormatCode     FormatCode
	TotalSamples   uint64
	HeaderBlobSize uint32
	FooterBlobSize uint32
}

// Envelope is a fully assembled Velox file: the fixed header, optional
// metadata block, preserved container header/footer blobs, and the
// compressed payload.
type Envelope struct {
	Header       Header
	Metadata     *Metadata
	HeaderBlob   []byte
	FooterBlob   []byte
	Payload      []byte
	SeekTableRaw []byte // present only when version >= 0x0800 and built
}

// EncodeEnvelope serializes e to its on-disk byte layout.
func EncodeEnvelope(e *Envelope) ([]byte, error) {
	h := e.Header
	bps := h.BitsPerSample & 0x7FFF
	if h.OddPad {
		bps |= bitsPerSamplePadFlag
	}

	buf := make([]byte, envelopeFixedSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint32(buf[6:10], h.SampleRate)
	binary.LittleEndian.PutUint16(buf[10:12], h.Channels)
	binary.LittleEndian.PutUint16(buf[12:14], bps)
	binary.LittleEndian.PutUint16(buf[14:16], uint16(h.FormatCode))
	binary.LittleEndian.PutUint64(buf[16:24], h.TotalSamples)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(e.HeaderBlob)))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(e.FooterBlob)))

	out := buf
	if h.Version >= 0x0400 {
		var metaBytes []byte
		if e.Metadata != nil {
			metaBytes = EncodeMetadata(e.Metadata)
		} else {
			metaBytes = EncodeMetadata(NewMetadata(""))
		}
		out = append(out, metaBytes...)
	}
	out = append(out, e.HeaderBlob...)
	out = append(out, e.FooterBlob...)
	out = append(out, e.Payload...)
	if h.Version >= 0x0800 && len(e.SeekTableRaw) > 0 {
		out = append(out, e.SeekTableRaw...)
		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(e.SeekTableRaw)))
		out = append(out, sizeBuf[:]...)
		out = append(out, seekTableTrailerMagic...)
	}
	return out, nil
}

// seekTableTrailerMagic marks the end of an optional seek table
// appended after the payload: [seek table bytes][4-byte LE size][magic].
// Its absence is never a format error — older readers and readers that
// never look for it just treat those bytes as part of the payload they
// don't need to seek within.
var seekTableTrailerMagic = []byte("VLXSEEK1")

// DecodeEnvelope parses the fixed header, metadata block (if present),
// preserved blobs, and compressed payload out of buf.
func DecodeEnvelope(buf []byte) (*Envelope, error) {
	if len(buf) < envelopeFixedSize {
		return nil, ErrTruncatedStream
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	var h Header
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version > FormatVersion {
		return nil, ErrUnsupportedVersion
	}
	h.SampleRate = binary.LittleEndian.Uint32(buf[6:10])
	h.Channels = binary.LittleEndian.Uint16(buf[10:12])
	rawBps := binary.LittleEndian.Uint16(buf[12:14])
	h.BitsPerSample = rawBps &^ bitsPerSamplePadFlag
	h.OddPad = rawBps&bitsPerSamplePadFlag != 0
	h.FormatCode = FormatCode(binary.LittleEndian.Uint16(buf[14:16]))
	h.TotalSamples = binary.LittleEndian.Uint64(buf[16:24])
	h.HeaderBlobSize = binary.LittleEndian.Uint32(buf[24:28])
	h.FooterBlobSize = binary.LittleEndian.Uint32(buf[28:32])

	pos := envelopeFixedSize
	var meta *Metadata
	if h.Version >= 0x0400 {
		m, consumed, err := DecodeMetadata(buf[pos:])
		if err != nil {
			return nil, err
		}
		meta = m
		pos += consumed
	}

	if pos+int(h.HeaderBlobSize) > len(buf) {
		return nil, ErrTruncatedStream
	}
	headerBlob := buf[pos : pos+int(h.HeaderBlobSize)]
	pos += int(h.HeaderBlobSize)

	if pos+int(h.FooterBlobSize) > len(buf) {
		return nil, ErrTruncatedStream
	}
	footerBlob := buf[pos : pos+int(h.FooterBlobSize)]
	pos += int(h.FooterBlobSize)

	payload := buf[pos:]
	var seekRaw []byte
	if h.Version >= 0x0800 {
		if trailer, size, ok := splitSeekTableTrailer(payload); ok {
			seekRaw = trailer
			payload = payload[:len(payload)-size]
		}
	}

	return &Envelope{
		Header:       h,
		Metadata:     meta,
		HeaderBlob:   headerBlob,
		FooterBlob:   footerBlob,
		Payload:      payload,
		SeekTableRaw: seekRaw,
	}, nil
}

// splitSeekTableTrailer checks whether buf ends with a seek table
// trailer and, if so, returns the seek table bytes and the total
// trailer size (seek table + length word + magic) to trim off.
func splitSeekTableTrailer(buf []byte) ([]byte, int, bool) {
	tail := len(seekTableTrailerMagic)
	if len(buf) < tail+4 {
		return nil, 0, false
	}
	if string(buf[len(buf)-tail:]) != string(seekTableTrailerMagic) {
		return nil, 0, false
	}
	sizePos := len(buf) - tail - 4
	size := int(binary.LittleEndian.Uint32(buf[sizePos : sizePos+4]))
	start := sizePos - size
	if start < 0 {
		return nil, 0, false
	}
	return buf[start:sizePos], size + 4 + tail, true
}

// SeekTable parses and returns the envelope's optional seek table, or
// nil if none was present.
func (e *Envelope) SeekTable() (*seekTable, error) {
	if len(e.SeekTableRaw) == 0 {
		return nil, nil
	}
	return decodeSeekTable(e.SeekTableRaw)
}

// String gives a short human-readable summary, used by `velox info`.
func (h Header) String() string {
	kind := "integer"
	if h.FormatCode == FormatFloat {
		kind = "float"
	}
	return fmt.Sprintf("v%#x %dHz %dch %dbit %s samples=%d", h.Version, h.SampleRate, h.Channels, h.BitsPerSample, kind, h.TotalSamples)
}
