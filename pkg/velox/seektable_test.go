package velox

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeekTableEncodeDecodeRoundTrip(t *testing.T) {
	table := &seekTable{points: []seekPoint{
		{frame: 0, byteOffset: 0},
		{frame: 4096, byteOffset: 512},
		{frame: 8192, byteOffset: 1030},
	}}

	got, err := decodeSeekTable(table.Encode())
	require.NoError(t, err)
	assert.Equal(t, table.points, got.points)
}

func TestSeekTableFloorEntry(t *testing.T) {
	table := &seekTable{points: []seekPoint{
		{frame: 0, byteOffset: 0},
		{frame: 4096, byteOffset: 500},
		{frame: 8192, byteOffset: 1000},
	}}

	assert.Equal(t, seekPoint{frame: 0, byteOffset: 0}, table.floorEntry(2000))
	assert.Equal(t, seekPoint{frame: 4096, byteOffset: 500}, table.floorEntry(4096))
	assert.Equal(t, seekPoint{frame: 4096, byteOffset: 500}, table.floorEntry(5000))
	assert.Equal(t, seekPoint{frame: 8192, byteOffset: 1000}, table.floorEntry(999999))
}

func TestSeekTableFloorEntryBeforeFirstPointIsZeroValue(t *testing.T) {
	table := &seekTable{points: []seekPoint{{frame: 100, byteOffset: 10}}}
	assert.Equal(t, seekPoint{}, table.floorEntry(50))
}

func TestEncodeStreamSeekableRecordsOneEntryPerBlock(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	samples := sineSamples(1024*3, 9000, 0.03)

	_, table, err := EncodeStreamSeekable(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)
	require.Len(t, table.points, 3)
	assert.Equal(t, uint64(0), table.points[0].frame)
	assert.Equal(t, uint64(1024), table.points[1].frame)
	assert.Equal(t, uint64(2048), table.points[2].frame)
}

func TestSeekToWithTableJumpsNearTarget(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	frames := 1024 * 4
	samples := sineSamples(frames, 9000, 0.03)

	payload, table, err := EncodeStreamSeekable(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d.SetBlockSizes(1024, 512)
	d.AttachSeekTable(table)

	target := uint64(2500)
	require.NoError(t, d.SeekTo(target))

	s, _, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, samples[target], s)
}

func TestSeekToWithoutTableFallsBackToDecodeAndDiscard(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	frames := 1024 * 3
	samples := sineSamples(frames, 9000, 0.03)

	payload, err := EncodeStream(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d.SetBlockSizes(1024, 512)

	target := uint64(1500)
	require.NoError(t, d.SeekTo(target))

	s, _, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, samples[target], s)
}

func TestSeekToStereoAdvancesByWholeFrames(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	frames := 1024 * 2
	l := sineSamples(frames, 9000, 0.03)
	r := sineSamples(frames, 9000, 0.031)
	interleaved := interleaveStereo(l, r)

	payload, table, err := EncodeStreamSeekable(engine, interleaved, 2, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(interleaved)), 2)
	d.SetBlockSizes(1024, 512)
	d.AttachSeekTable(table)

	target := uint64(700)
	require.NoError(t, d.SeekTo(target))

	left, _, err := d.DecodeNext()
	require.NoError(t, err)
	right, _, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, l[target], left)
	assert.Equal(t, r[target], right)
}

func TestSeekToClampsBeyondEnd(t *testing.T) {
	engine := NewBlockEngine(1024, 512, newWorkerPool(1))
	samples := sineSamples(100, 9000, 0.03)

	payload, table, err := EncodeStreamSeekable(engine, samples, 1, false, FloatModeGenuine, nil)
	require.NoError(t, err)

	d := NewStreamingDecoder(payload, uint64(len(samples)), 1)
	d.SetBlockSizes(1024, 512)
	d.AttachSeekTable(table)

	require.NoError(t, d.SeekTo(10000))
	_, _, err = d.DecodeNext()
	assert.Equal(t, io.EOF, err)
}
