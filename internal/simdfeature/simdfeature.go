// Package simdfeature detects whether the host CPU could run a 16-wide vector
// scan over one of densemap's control-byte groups.
//
// No example repo in this module's lineage performs vector scans directly,
// but golang.org/x/sys/cpu is already a direct dependency of the teacher
// repo (pulled in transitively for terminal handling); it is the
// ecosystem-standard way to answer this question, so it is used here rather
// than left unwired.
package simdfeature

import "golang.org/x/sys/cpu"

// HasGroupScan reports whether the host CPU exposes a vector instruction set
// wide enough to compare a 16-byte control group in one shot (SSE4.2 on
// amd64, ASIMD on arm64). densemap consults it only for
// Options.RequireHardwareSIMD; its group scan is the same scalar byte loop
// whatever this returns.
func HasGroupScan() bool {
	if cpu.X86.HasSSE42 {
		return true
	}

	if cpu.ARM64.HasASIMD {
		return true
	}

	return false
}
