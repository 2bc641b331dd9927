// Package hlsl compiles HLSL with the system shader compiler and parses its diagnostics.
package hlsl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnavailable is returned when the shader compiler cannot be loaded.
var ErrUnavailable = errors.New("hlsl: d3dcompiler_47.dll is not available")

// sourceName is reported in compiler diagnostics.
const sourceName = "shader.hlsl"

// Diagnostic is one message of the compiler log.
type Diagnostic struct {
	Line    int
	Column  int
	Warning bool
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	kind := "error"
	if d.Warning {
		kind = "warning"
	}
	return fmt.Sprintf("%d:%d: %s %s: %s", d.Line, d.Column, kind, d.Code, d.Message)
}

// CompileError is a failed compilation.
type CompileError struct {
	Profile string
	// Code is the failing HRESULT, 0 when the source was rejected before compiling.
	Code uint32
	Log  string
}

func (e *CompileError) Error() string {
	diags := Diagnostics(e.Log)
	for _, d := range diags {
		if !d.Warning {
			return fmt.Sprintf("hlsl %s: %s", e.Profile, d)
		}
	}
	if e.Code != 0 {
		return fmt.Sprintf("hlsl %s: compilation failed (%#x): %s", e.Profile, e.Code, strings.TrimSpace(e.Log))
	}
	return fmt.Sprintf("hlsl %s: %s", e.Profile, strings.TrimSpace(e.Log))
}

// shader.hlsl(12,5-9): error X3004: undeclared identifier 'foo'
var diagnosticLine = regexp.MustCompile(`^[^(]*\((\d+),(\d+)(?:-\d+)?\): (error|warning) (X\d+): (.*)$`)

// Diagnostics parses a D3DCompile message log. Lines in another format are skipped.
//
// Parameters:
//   - log: the compiler output
//
// Returns:
//   - []Diagnostic: the parsed messages in log order
func Diagnostics(log string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(log, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		out = append(out, Diagnostic{
			Line:    lineNo,
			Column:  col,
			Warning: m[3] == "warning",
			Code:    m[4],
			Message: m[5],
		})
	}
	return out
}
