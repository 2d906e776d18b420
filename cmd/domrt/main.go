// Command domrt is a small smoke-test harness over the engine package:
// load an HTML fixture, run a fixed action/assertion script against it,
// and report the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "domrt --html fixture.html --steps script.steps",
	Short: "Run a deterministic DOM/script test fixture",
	RunE:  runRoot,
}

var (
	htmlPath  string
	stepsPath string
	seed      uint64
)

func init() {
	rootCmd.Flags().StringVar(&htmlPath, "html", "", "path to the HTML fixture to load (required)")
	rootCmd.Flags().StringVar(&stepsPath, "steps", "", "path to the .steps action script (required)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "deterministic PRNG seed (0 leaves the default)")
	rootCmd.MarkFlagRequired("html")
	rootCmd.MarkFlagRequired("steps")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
