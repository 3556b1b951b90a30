package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tierwalk/internal/ir"
	"tierwalk/internal/lang"
	"tierwalk/internal/ui"
	"tierwalk/internal/unit"
)

var watchCmd = &cobra.Command{
	Use:   "watch <program> [int-args...]",
	Short: "Call a program repeatedly while rendering its tier transitions",
	Long: `Watch calls the named embedded program --iterations times in a
background goroutine while rendering a Bubble Tea progress view of every
function in its unit moving from profiling to compiling to compiled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Uint64("iterations", 20, "number of calls to make")
	watchCmd.Flags().Duration("pace", 20*time.Millisecond, "delay between calls")
}

func runWatch(cmd *cobra.Command, args []string) error {
	name := args[0]
	intArgs, err := parseIntArgs(args[1:])
	if err != nil {
		return err
	}

	iterations, err := cmd.Flags().GetUint64("iterations")
	if err != nil {
		return err
	}
	pace, err := cmd.Flags().GetDuration("pace")
	if err != nil {
		return err
	}
	uiModeValue, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiModeValue)
	if err != nil {
		return err
	}

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	lib, _, err := buildLibrary(cmd)
	if err != nil {
		return err
	}
	uf, err := lookupProgram(lib, name)
	if err != nil {
		return err
	}
	arity := len(uf.Function().Params)
	if arity > len(intArgs) {
		return fmt.Errorf("%s needs %d arguments, got %d", name, arity, len(intArgs))
	}
	callArgs := intArgs[:arity]

	if !shouldUseTUI(mode) {
		return watchPlain(cmd, uf, callArgs, iterations, pace)
	}
	return watchWithUI(cmd, lib.Driver(), name, uf, callArgs, iterations, pace)
}

func watchPlain(cmd *cobra.Command, uf *lang.UserFunction, callArgs []any, iterations uint64, pace time.Duration) error {
	for i := uint64(0); i < iterations; i++ {
		result, err := uf.Call(callArgs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %v (state: %s)\n", i, result, uf.State())
		time.Sleep(pace)
	}
	return nil
}

type watchOutcome struct {
	err error
}

// watchWithUI drives the call loop from a goroutine while rendering
// ui.NewProgressModel on the main goroutine, the same split the teacher
// uses for its own build-progress TUI: the real work posts onto a channel,
// Bubble Tea owns the terminal, and the outcome comes back over a buffered
// channel once the program exits.
func watchWithUI(cmd *cobra.Command, driver *unit.Driver, title string, uf *lang.UserFunction, callArgs []any, iterations uint64, pace time.Duration) error {
	functions := unitFunctionNames(uf)
	model := ui.NewProgressModel(title, functions, driver.Events())
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))

	// driver.Events() lives as long as the Driver itself and is never
	// closed, unlike the teacher's per-request progress channel, so
	// completion is signaled by quitting the program directly rather than
	// by the model observing a closed channel.
	outcomeCh := make(chan watchOutcome, 1)
	go func() {
		var err error
		for i := uint64(0); i < iterations && err == nil; i++ {
			_, err = uf.Call(callArgs)
			time.Sleep(pace)
		}
		outcomeCh <- watchOutcome{err: err}
		program.Quit()
	}()

	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return uiErr
	}
	return outcome.err
}

// unitFunctionNames lists the top-level program and every nested closure
// name in its unit, the row set ui.NewProgressModel renders one line per.
func unitFunctionNames(uf *lang.UserFunction) []string {
	return nestedNames(uf.Function())
}

func nestedNames(fn *ir.Function) []string {
	names := []string{fn.Name}
	for _, n := range fn.Nested {
		names = append(names, nestedNames(n)...)
	}
	return names
}
