package main

import (
	"fmt"
	"io"
	"strings"

	"pasfront/internal/observ"
)

func printTimings(out io.Writer, kind string, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	fmt.Fprintf(out, "%s timings:\n", kind)
	for _, line := range strings.SplitAfter(report.String(), "\n") {
		if line != "" {
			fmt.Fprintf(out, "  %s", line)
		}
	}
}
