package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tierwalk/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tierwalk",
	Short: "Tierwalk adaptive runtime CLI",
	Long:  `Tierwalk runs and inspects functions under the tiered profiling-interpreter/compiler runtime.`,
}

// main wires the command tree and global flags, then hands off to cobra.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML runtime config file")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off); accepted but not read by any subcommand")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output; accepted but not read by any subcommand")
	rootCmd.PersistentFlags().Bool("timings", false, "show compile-phase timing information")
	rootCmd.PersistentFlags().String("ui", "auto", "TUI mode for watch (auto|on|off)")

	rootCmd.PersistentFlags().String("trace", "", "trace output path (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring tracer capacity")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "periodic heartbeat trace interval (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to an interactive terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
