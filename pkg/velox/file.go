package velox

import "io"

// EncodedFile is a fully decoded Velox file ready for a collaborator
// (the CLI, or a test) to rebuild a container around.
type EncodedFile struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	IsFloat       bool
	PCM           []byte
	HeaderBlob    []byte
	FooterBlob    []byte
	Metadata      *Metadata
}

// EncodeFile runs the full format front-end, block engine, and
// envelope assembly over one container's raw PCM bytes and preserved
// blobs, producing a complete Velox file. workers <= 0 uses
// defaultWorkerPool.
func EncodeFile(pcm []byte, sampleRate, channels, bitsPerSample int, isFloat bool, headerBlob, footerBlob []byte, meta *Metadata, workers int) ([]byte, error) {
	bytesPerUnit := bitsPerSample / 8
	if isFloat {
		bytesPerUnit = 4
	}
	total := len(pcm) / bytesPerUnit
	oddPad := len(pcm)%bytesPerUnit != 0

	var samples []Sample
	var exponents []byte
	floatMode := FloatModeGenuine
	formatCode := FormatInteger

	if isFloat {
		formatCode = FormatFloat
		values := float32WordsFromBytes(pcm, total)
		floatMode = detectPseudoFloat(values)
		switch floatMode {
		case FloatModeGenuine:
			samples, exponents = splitFloat32(pcm, total)
		default:
			samples = demoteToInteger(values, pseudoFloatScaleFor(floatMode))
		}
	} else {
		samples = bytesToSamples(pcm, total, bitsPerSample)
	}

	pool := defaultWorkerPool()
	if workers > 0 {
		pool = newWorkerPool(workers)
	}
	engine := NewBlockEngine(0, 0, pool)

	payload, table, err := EncodeStreamSeekable(engine, samples, channels, isFloat, floatMode, exponents)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Header: Header{
			Version:        FormatVersion,
			SampleRate:     uint32(sampleRate),
			Channels:       uint16(channels),
			BitsPerSample:  uint16(bitsPerSample),
			OddPad:         oddPad,
			FormatCode:     formatCode,
			TotalSamples:   uint64(total),
			HeaderBlobSize: uint32(len(headerBlob)),
			FooterBlobSize: uint32(len(footerBlob)),
		},
		Metadata:     meta,
		HeaderBlob:   headerBlob,
		FooterBlob:   footerBlob,
		Payload:      payload,
		SeekTableRaw: table.Encode(),
	}
	return EncodeEnvelope(env)
}

// DecodeFile parses a complete Velox file and fully decodes its
// payload back into raw PCM bytes plus the preserved container blobs.
func DecodeFile(fileBytes []byte) (*EncodedFile, error) {
	env, err := DecodeEnvelope(fileBytes)
	if err != nil {
		return nil, err
	}

	channels := int(env.Header.Channels)
	decoder := NewStreamingDecoder(env.Payload, env.Header.TotalSamples, channels)
	if table, err := env.SeekTable(); err == nil && table != nil {
		decoder.AttachSeekTable(table)
	}

	samples := make([]Sample, 0, env.Header.TotalSamples)
	var exponents []byte
	isFloat := env.Header.FormatCode == FormatFloat
	floatMode := FloatModeGenuine
	if isFloat {
		exponents = make([]byte, 0, env.Header.TotalSamples)
	}

	for {
		s, exp, err := decoder.DecodeNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
		if isFloat {
			exponents = append(exponents, exp)
		}
	}
	if isFloat {
		floatMode = decoder.CurrentFloatMode()
	}

	var pcm []byte
	switch {
	case isFloat && floatMode == FloatModeGenuine:
		pcm = mergeFloat32(samples, exponents)
	case isFloat:
		values := promoteFromInteger(samples, pseudoFloatScaleFor(floatMode))
		pcm = float32WordsToBytes(values)
	default:
		pcm = samplesToBytes(samples, int(env.Header.BitsPerSample))
	}
	if env.Header.OddPad {
		pcm = append(pcm, 0)
	}

	return &EncodedFile{
		SampleRate:    int(env.Header.SampleRate),
		Channels:      channels,
		BitsPerSample: int(env.Header.BitsPerSample),
		IsFloat:       isFloat,
		PCM:           pcm,
		HeaderBlob:    env.HeaderBlob,
		FooterBlob:    env.FooterBlob,
		Metadata:      env.Metadata,
	}, nil
}
