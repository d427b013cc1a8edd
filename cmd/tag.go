package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alithw/Velox/pkg/velox"
)

var tagSets []string
var tagGets []string

var tagCmd = &cobra.Command{
	Use:   "tag <file.vlx>",
	Short: "Read or write tags on a Velox file in place",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTag(args[0])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	tagCmd.Flags().StringArrayVar(&tagSets, "set", nil, "Set a tag as KEY=VALUE (repeatable)")
	tagCmd.Flags().StringArrayVar(&tagGets, "get", nil, "Print a tag's value by KEY (repeatable)")
	rootCmd.AddCommand(tagCmd)
}

func runTag(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Fatalf("Error reading %s: %v", path, err)
	}

	env, err := velox.DecodeEnvelope(raw)
	if err != nil {
		logger.Fatalf("Error reading envelope: %v", err)
	}
	if env.Metadata == nil {
		env.Metadata = velox.NewMetadata("velox")
	}

	for _, kv := range tagSets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			logger.Fatalf("Invalid --set value %q, expected KEY=VALUE", kv)
		}
		env.Metadata.SetTag(key, value)
	}

	for _, key := range tagGets {
		if value, ok := env.Metadata.Tag(key); ok {
			fmt.Printf("%s=%s\n", strings.ToUpper(key), value)
		} else {
			logger.Warnf("Tag %q not set", key)
		}
	}

	if len(tagSets) == 0 {
		return
	}

	out, err := velox.EncodeEnvelope(env)
	if err != nil {
		logger.Fatalf("Error rewriting %s: %v", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		logger.Fatalf("Error writing %s: %v", path, err)
	}
	logger.Infof("Updated %d tag(s) on %s", len(tagSets), path)
}
