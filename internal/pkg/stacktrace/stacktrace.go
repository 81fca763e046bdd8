// Package stacktrace trims panic stacks down to the service's own frames.
package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

const maxDepth = 64

// Internal returns "internal/<pkg>/<file>.go:<line>" for each frame of the
// calling goroutine that lives under an internal/ directory. skip counts
// frames above the caller of Internal.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if i := strings.LastIndex(f.File, "/internal/"); i >= 0 {
			out = append(out, fmt.Sprintf("%s:%d", f.File[i+1:], f.Line))
		}
		if !more {
			break
		}
	}
	return out
}
