package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alithw/Velox/pkg/containerio"
	"github.com/alithw/Velox/pkg/velox"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input.vlx> <output.wav|output.aiff>",
	Short: "Decode a Velox file back into its original WAV or AIFF container",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runDecode(args[0], args[1])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(inputFile, outputFile string) {
	raw, err := os.ReadFile(inputFile)
	if err != nil {
		logger.Fatalf("Error reading %s: %v", inputFile, err)
	}

	decoded, err := velox.DecodeFile(raw)
	if err != nil {
		logger.Fatalf("Error decoding %s: %v", inputFile, err)
	}

	logger.Debug(
		inputFile,
		"channels", decoded.Channels,
		"samplerate(hz)", decoded.SampleRate,
		"bitdepth", decoded.BitsPerSample,
		"float", decoded.IsFloat,
	)

	info := &containerio.WAVInfo{
		SampleRate:    decoded.SampleRate,
		Channels:      decoded.Channels,
		BitsPerSample: decoded.BitsPerSample,
		IsFloat:       decoded.IsFloat,
		PCM:           decoded.PCM,
		HeaderBlob:    decoded.HeaderBlob,
		FooterBlob:    decoded.FooterBlob,
	}

	var out []byte
	if len(info.HeaderBlob) >= 4 && string(info.HeaderBlob[0:4]) == "FORM" {
		out = containerio.RebuildAIFF(info)
	} else {
		out = containerio.RebuildWAV(info)
	}

	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		logger.Fatalf("Error writing %s: %v", outputFile, err)
	}

	logger.Infof("Decoded %s -> %s (%s)", inputFile, outputFile, formatSize(len(out)))
}
