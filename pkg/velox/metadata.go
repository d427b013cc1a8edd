package velox

import (
	"encoding/binary"
	"strings"
)

// metadataPadTo is the block alignment spec.md §6 requires: the block
// header + payload always occupies a multiple of this many bytes, with
// a full extra block of padding when the payload is already aligned.
const metadataPadTo = 4096

// allowedPictureMIME is the set of picture MIME types the store will
// accept; anything else is rejected by SetPicture.
var allowedPictureMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Picture is an optional embedded image, e.g. cover art.
type Picture struct {
	MIME string
	Data []byte
}

// Metadata is the in-scope tag store: a vendor string, an ordered list
// of KEY=VALUE tags with case-insensitive, uppercased keys, and an
// optional single picture.
type Metadata struct {
	Vendor  string
	tags    []string // "KEY=VALUE", insertion order
	Picture *Picture
}

// NewMetadata constructs an empty store with the given vendor string.
func NewMetadata(vendor string) *Metadata {
	return &Metadata{Vendor: vendor}
}

// SetTag sets key (uppercased) to value, replacing any prior value for
// the same key (case-insensitive).
func (m *Metadata) SetTag(key, value string) {
	key = strings.ToUpper(key)
	prefix := key + "="
	for i, t := range m.tags {
		if strings.HasPrefix(strings.ToUpper(t), prefix) {
			m.tags[i] = key + "=" + value
			return
		}
	}
	m.tags = append(m.tags, key+"="+value)
}

// Tag looks up a tag's value by key, case-insensitively.
func (m *Metadata) Tag(key string) (string, bool) {
	key = strings.ToUpper(key)
	prefix := key + "="
	for _, t := range m.tags {
		if strings.HasPrefix(strings.ToUpper(t), prefix) {
			return t[len(prefix):], true
		}
	}
	return "", false
}

// Tags returns the ordered KEY=VALUE pairs as a copy.
func (m *Metadata) Tags() []string {
	out := make([]string, len(m.tags))
	copy(out, m.tags)
	return out
}

// SetPicture attaches a picture, rejecting MIME types outside the
// allow-list.
func (m *Metadata) SetPicture(mime string, data []byte) error {
	if !allowedPictureMIME[mime] {
		return ErrMetadataCorrupt
	}
	m.Picture = &Picture{MIME: mime, Data: data}
	return nil
}

// EncodeMetadata serializes m into its block form: the 4-byte
// payload_size prefix, the vendor/tag/picture payload, and zero
// padding up to the next 4096-byte boundary (a full extra block if
// already aligned).
func EncodeMetadata(m *Metadata) []byte {
	var payload []byte
	payload = appendLenString(payload, m.Vendor)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(m.tags)))
	payload = append(payload, countBuf[:]...)
	for _, t := range m.tags {
		payload = appendLenString(payload, t)
	}

	if m.Picture != nil {
		payload = append(payload, 1)
		payload = appendLenString(payload, m.Picture.MIME)
		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(m.Picture.Data)))
		payload = append(payload, sizeBuf[:]...)
		payload = append(payload, m.Picture.Data...)
	} else {
		payload = append(payload, 0)
	}

	total := 4 + len(payload) // the length word counts toward alignment
	pad := metadataPadTo - (total % metadataPadTo)
	payload = append(payload, make([]byte, pad)...)

	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// DecodeMetadata parses a metadata block starting at buf[0] and
// returns the parsed store plus the number of bytes consumed
// (including the length prefix and padding).
func DecodeMetadata(buf []byte) (*Metadata, int, error) {
	if len(buf) < 4 {
		return nil, 0, ErrTruncatedStream
	}
	size := int(binary.LittleEndian.Uint32(buf[0:4]))
	if 4+size > len(buf) {
		return nil, 0, ErrMetadataCorrupt
	}
	payload := buf[4 : 4+size]

	m := &Metadata{}
	pos := 0

	vendor, n, err := readLenString(payload, pos)
	if err != nil {
		return nil, 0, err
	}
	m.Vendor = vendor
	pos = n

	if pos+4 > len(payload) {
		return nil, 0, ErrMetadataCorrupt
	}
	count := binary.LittleEndian.Uint32(payload[pos : pos+4])
	pos += 4
	for i := uint32(0); i < count; i++ {
		tag, n, err := readLenString(payload, pos)
		if err != nil {
			return nil, 0, err
		}
		m.tags = append(m.tags, tag)
		pos = n
	}

	if pos >= len(payload) {
		return nil, 0, ErrMetadataCorrupt
	}
	hasPicture := payload[pos]
	pos++
	if hasPicture == 1 {
		mime, n, err := readLenString(payload, pos)
		if err != nil {
			return nil, 0, err
		}
		pos = n
		if pos+4 > len(payload) {
			return nil, 0, ErrMetadataCorrupt
		}
		imgLen := int(binary.LittleEndian.Uint32(payload[pos : pos+4]))
		pos += 4
		if pos+imgLen > len(payload) {
			return nil, 0, ErrMetadataCorrupt
		}
		data := make([]byte, imgLen)
		copy(data, payload[pos:pos+imgLen])
		m.Picture = &Picture{MIME: mime, Data: data}
	}

	return m, 4 + size, nil
}

func appendLenString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readLenString(buf []byte, pos int) (string, int, error) {
	if pos+4 > len(buf) {
		return "", 0, ErrMetadataCorrupt
	}
	n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	if pos+n > len(buf) {
		return "", 0, ErrMetadataCorrupt
	}
	return string(buf[pos : pos+n]), pos + n, nil
}
