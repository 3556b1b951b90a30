package main

import (
	"fmt"
	"io"

	"tierwalk/internal/observ"
)

// printCompileReport writes one line per compile phase internal/unit timed,
// followed by the total, matching the teacher's one-line-per-stage idiom.
func printCompileReport(out io.Writer, report observ.Report) {
	if out == nil {
		return
	}
	for _, phase := range report.Phases {
		if _, err := fmt.Fprintf(out, "%-10s %7.2f ms\n", phase.Name, phase.DurationMS); err != nil {
			panic(err)
		}
	}
	if _, err := fmt.Fprintf(out, "%-10s %7.2f ms\n", "total", report.TotalMS); err != nil {
		panic(err)
	}
}
