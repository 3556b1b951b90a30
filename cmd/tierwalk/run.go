package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tierwalk/internal/ir"
	"tierwalk/internal/lang"
)

var runCmd = &cobra.Command{
	Use:   "run <program> [int-args...]",
	Short: "Run one of tierwalk's embedded demo programs",
	Long: `Run invokes a named embedded demo program (see 'tierwalk run --list')
with the given integer arguments, letting it ride whatever tier the
profiling interpreter and compiler currently have it at. A result that
comes back as a closure is itself called with any arguments left over,
so 'tierwalk run make-adder 5 10' chains through make-adder(5)'s returned
closure to produce 15.`,
	Args: cobra.MinimumNArgs(0),
	RunE: runProgram,
}

func init() {
	runCmd.Flags().Bool("list", false, "list the embedded demo programs and exit")
	runCmd.Flags().Uint64("warm", 0, "call the program this many extra times before the reported call, to exercise tier promotion")
	runCmd.Flags().Bool("force-compile", false, "compile the program immediately instead of waiting for the profiling threshold")
}

func runProgram(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list || len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "embedded programs:")
		for _, name := range programNames() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
		}
		return nil
	}

	name := args[0]
	intArgs, err := parseIntArgs(args[1:])
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

	warm, err := cmd.Flags().GetUint64("warm")
	if err != nil {
		return err
	}
	forceCompile, err := cmd.Flags().GetBool("force-compile")
	if err != nil {
		return err
	}
	if forceCompile {
		if err := uf.ForceCompile(); err != nil {
			return fmt.Errorf("force-compile %s: %w", name, err)
		}
	}
	for i := uint64(0); i < warm; i++ {
		if _, err := callWithInts(uf, intArgs); err != nil {
			return fmt.Errorf("warm-up call %d: %w", i, err)
		}
	}

	result, err := callChained(uf, intArgs)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %v (state: %s)\n", name, result, uf.State())

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	if showTimings {
		if report, ok := lib.Driver().CompileReport(uf.Function()); ok {
			printCompileReport(cmd.OutOrStdout(), report)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "no compile has run yet for this program")
		}
	}
	return nil
}

// parseIntArgs converts the CLI's string arguments into int64 runtime
// values; every embedded demo program is INT-in, INT-or-closure-out.
func parseIntArgs(args []string) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not an integer: %w", a, err)
		}
		out[i] = n
	}
	return out, nil
}

// callWithInts calls uf with exactly len(uf.Function().Params) leading
// values from args, discarding the rest; used only for --warm repeats where
// the trailing closure-chase args (if any) should not themselves be warmed.
func callWithInts(uf *lang.UserFunction, args []any) (any, error) {
	arity := len(uf.Function().Params)
	if arity > len(args) {
		return nil, fmt.Errorf("%s needs %d arguments, got %d", uf.Name(), arity, len(args))
	}
	return uf.Call(args[:arity])
}

// callChained invokes uf with as many of args as its arity needs, then, if
// the result is a closure and arguments remain, keeps calling through it
// with whatever arguments are left over.
func callChained(uf *lang.UserFunction, args []any) (any, error) {
	arity := len(uf.Function().Params)
	if arity > len(args) {
		return nil, fmt.Errorf("%s needs %d arguments, got %d", uf.Name(), arity, len(args))
	}
	result, err := uf.Call(args[:arity])
	if err != nil {
		return nil, err
	}
	rest := args[arity:]
	for len(rest) > 0 {
		cv, ok := result.(*ir.ClosureValue)
		if !ok {
			return nil, fmt.Errorf("%d argument(s) left over but result %v is not callable", len(rest), result)
		}
		closure := lang.WrapClosure(cv)
		n := len(cv.Fn.Params)
		if n > len(rest) {
			return nil, fmt.Errorf("closure needs %d arguments, only %d left over", n, len(rest))
		}
		result, err = closure.Call(rest[:n])
		if err != nil {
			return nil, err
		}
		rest = rest[n:]
	}
	return result, nil
}
