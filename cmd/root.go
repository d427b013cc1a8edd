package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.8.0"

var rootCmd = &cobra.Command{
	Use:   "velox",
	Short: "A lossless audio codec utility.",
	Long:  "A CLI tool to encode, decode, and tag Velox audio files.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Usage: velox [command]")
		fmt.Println("Use 'velox help' for a list of commands.")
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var quiet bool
var verbose bool
var workers int

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress command output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Increase command output")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (0 = number of CPUs)")
}

func Execute() error {
	return rootCmd.Execute()
}
