package velox

import "errors"

// Error kinds the core codec can surface to its caller. The core never
// attempts partial recovery: the block engine aborts a block on any
// internal inconsistency and the decoder aborts on any corruption.
var (
	// ErrInvalidMagic means the file does not start with the 'VELX' magic.
	ErrInvalidMagic = errors.New("velox: invalid magic")
	// ErrUnsupportedVersion means the file's major version is above what
	// this implementation supports.
	ErrUnsupportedVersion = errors.New("velox: unsupported version")
	// ErrTruncatedStream means the bit reader was exhausted before the
	// declared sample count was produced.
	ErrTruncatedStream = errors.New("velox: truncated stream")
	// ErrCorruptChunk means a chunk length prefix would overrun the
	// payload, an LPC shift value was out of range, or a verbatim body
	// had the wrong size.
	ErrCorruptChunk = errors.New("velox: corrupt chunk")
	// ErrMetadataCorrupt means a length field in the metadata block
	// exceeds its declared size.
	ErrMetadataCorrupt = errors.New("velox: corrupt metadata")
)
