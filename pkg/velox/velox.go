/*
Package velox implements the Velox lossless audio codec core: per-block
predictive modelling and adaptive entropy coding, plus the block and
stream framing that makes a compressed file independently decodable in
parallel and streamable one sample at a time.

# Pipeline

Encoding a block runs, in order: format front-end (int PCM unpack or
float32 split, with pseudo-float demotion), preprocessing (silence
detection, LSB shift, bit-plane split for high-resolution PCM), channel
decorrelation (mid/side vs left/right, chosen per sub-block), an order-8
LPC stage, an order-12 adaptive "neural" residual predictor, and
adaptive Rice/Golomb entropy coding. Decoding runs the mirror image.
Each sub-block chunk is self-contained: predictor state is built fresh
at the start of a sub-block and discarded at its end, so chunks decode
independently and can be produced out of order before being
length-prefixed back into their original positions.

# Versioning

The wire format is versioned (see [FormatVersion]); this package
implements exactly the version 0x0800 pipeline described in its design
document: parallel sub-blocks, high-resolution bit-plane split,
pseudo-float detection, per-sub-block verbatim fallback, and a
predictor order of 12 with delta thresholds (1024, 16, 4). Older
variants (no high-res split, shorter predictor order, different delta
thresholds) are not implemented; there is exactly one canonical
pipeline.
*/
package velox

// FormatVersion is the wire format version this package reads and writes.
const FormatVersion = 0x0800

// Sample is the canonical 64-bit signed sample width used throughout the
// pipeline. It is wide enough to hold 32-bit PCM and the 24-bit
// hidden-bit form of an IEEE-754 float32 mantissa.
type Sample = int64

// BlockFrames is the reference block size in frames. The last block of
// a stream may be shorter.
const BlockFrames = 4096

// SubBlockFrames is the reference per-channel sub-block size used when
// partitioning a stereo block.
const SubBlockFrames = 4096

// LPCOrder is the fixed LPC order used by the LPC stage (C5).
const LPCOrder = 8

// LPCQ is the reference number of fractional bits used to quantize LPC
// coefficients.
const LPCQ = 11

// PredictorOrder is the fixed order of the adaptive sign-LMS predictor (C6).
const PredictorOrder = 12

// Predictor delta-selection constants, canonical for FormatVersion 0x0800.
// See the Design Notes: other source copies use (256, 8, 2); this
// implementation always uses these.
const (
	predictorErrThreshold = 1024
	predictorDeltaLarge   = 16
	predictorDeltaSmall   = 4
)

// riceInitialAverage is the initial running-average magnitude context
// for the entropy coder (C7).
const riceInitialAverage = 512

// riceEscapeQuotient is the unary quotient value at which the entropy
// coder switches to its 32-bit escape.
const riceEscapeQuotient = 32

// FormatCode identifies the sample representation recorded in the file
// envelope header.
type FormatCode uint16

const (
	FormatInteger FormatCode = 1
	FormatFloat   FormatCode = 3
)

// FloatMode distinguishes genuine float32 data from pseudo-float data
// that the encoder demoted to an integer representation.
type FloatMode uint8

const (
	FloatModeGenuine  FloatMode = 0
	FloatModePseudo16 FloatMode = 1
	FloatModePseudo24 FloatMode = 2
)
