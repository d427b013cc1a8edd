package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alithw/Velox/pkg/containerio"
	"github.com/alithw/Velox/pkg/velox"
)

var vendorFlag string

var encodeCmd = &cobra.Command{
	Use:   "encode <input.wav|input.aiff> <output.vlx>",
	Short: "Encode a WAV or AIFF file into a Velox file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runEncode(args[0], args[1])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	encodeCmd.Flags().StringVar(&vendorFlag, "vendor", "velox", "Vendor string recorded in the output file")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(inputFile, outputFile string) {
	raw, err := os.ReadFile(inputFile)
	if err != nil {
		logger.Fatalf("Error reading %s: %v", inputFile, err)
	}

	info, err := extractContainer(raw)
	if err != nil {
		logger.Fatalf("Error parsing %s: %v", inputFile, err)
	}

	logger.Debug(
		inputFile,
		"channels", info.Channels,
		"samplerate(hz)", info.SampleRate,
		"bitdepth", info.BitsPerSample,
		"float", info.IsFloat,
		"size", formatSize(len(raw)),
	)

	meta := velox.NewMetadata(vendorFlag)

	out, err := velox.EncodeFile(info.PCM, info.SampleRate, info.Channels, info.BitsPerSample, info.IsFloat, info.HeaderBlob, info.FooterBlob, meta, workers)
	if err != nil {
		logger.Fatalf("Error encoding %s: %v", inputFile, err)
	}

	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		logger.Fatalf("Error writing %s: %v", outputFile, err)
	}

	ratio := float64(len(out)) / float64(len(raw)) * 100
	logger.Infof("Encoded %s -> %s (%s -> %s, %.1f%%)", inputFile, outputFile, formatSize(len(raw)), formatSize(len(out)), ratio)
}

// extractContainer sniffs the input file's magic bytes and dispatches
// to the matching container parser.
func extractContainer(raw []byte) (*containerio.WAVInfo, error) {
	if len(raw) >= 4 && string(raw[0:4]) == "FORM" {
		return containerio.ExtractAIFF(raw)
	}
	return containerio.ExtractWAV(raw)
}

// formatSize converts the inputSize to a human readable format
func formatSize(inputSize int) string {
	const unit = 1024
	if inputSize < unit {
		return fmt.Sprintf("%d B", inputSize)
	}
	div, exp := int64(unit), 0
	for n := inputSize / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(inputSize)/float64(div), "KMGTPE"[exp])
}
