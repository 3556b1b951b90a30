package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tierwalk/internal/lang"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <program> [int-args...]",
	Short: "Warm up a program and dump its dispatch/profile snapshot",
	Long: `Inspect calls the named program --calls times (to build up profile
data, and cross the compile threshold if --calls is high enough or
--force-compile is set), then dumps an internal/lang.Snapshot of every
function of every embedded program, the named one included.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Uint64("calls", 1, "number of warm-up calls to make before snapshotting")
	inspectCmd.Flags().Bool("force-compile", false, "compile the program immediately instead of waiting for the profiling threshold")
	inspectCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	name := args[0]
	intArgs, err := parseIntArgs(args[1:])
	if err != nil {
		return err
	}

	calls, err := cmd.Flags().GetUint64("calls")
	if err != nil {
		return err
	}
	forceCompile, err := cmd.Flags().GetBool("force-compile")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json", "msgpack":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json, or msgpack)", format)
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

	for i := uint64(0); i < calls; i++ {
		if _, err := uf.Call(callArgs); err != nil {
			return fmt.Errorf("warm-up call %d: %w", i, err)
		}
	}
	if forceCompile {
		if err := uf.ForceCompile(); err != nil {
			return fmt.Errorf("force-compile %s: %w", name, err)
		}
	}

	snap, err := lib.Snapshot()
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "msgpack":
		data, err := snap.MarshalMsgpack()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	default:
		return renderSnapshotPretty(cmd, snap)
	}
}

// renderSnapshotPretty prints one locale-formatted line per function,
// grouping the invocation counter's thousands digits the way an operator
// staring at a long-running profiling count would want them.
func renderSnapshotPretty(cmd *cobra.Command, snap lang.Snapshot) error {
	p := message.NewPrinter(language.English)
	for _, fn := range snap.Functions {
		specialized := "no"
		if fn.Specialized {
			specialized = "yes"
		}
		if _, err := p.Fprintf(cmd.OutOrStdout(),
			"%-16s state=%-9s calls=%d params=%d nested=%d specialized=%s return=%s\n",
			fn.Name, fn.State, fn.InvocationCount, fn.ParamCount, fn.NestedCount, specialized, fn.ReturnKind,
		); err != nil {
			return err
		}
	}
	return nil
}
