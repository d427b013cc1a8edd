package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alithw/Velox/pkg/velox"
)

var infoCmd = &cobra.Command{
	Use:   "info <file.vlx>",
	Short: "Print a Velox file's header and tags",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runInfo(args[0])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Fatalf("Error reading %s: %v", path, err)
	}

	env, err := velox.DecodeEnvelope(raw)
	if err != nil {
		logger.Fatalf("Error reading envelope: %v", err)
	}

	fmt.Println(env.Header.String())
	if env.Metadata != nil {
		if env.Metadata.Vendor != "" {
			fmt.Printf("vendor: %s\n", env.Metadata.Vendor)
		}
		for _, t := range env.Metadata.Tags() {
			fmt.Printf("  %s\n", t)
		}
		if env.Metadata.Picture != nil {
			fmt.Printf("picture: %s (%d bytes)\n", env.Metadata.Picture.MIME, len(env.Metadata.Picture.Data))
		}
	}
}
