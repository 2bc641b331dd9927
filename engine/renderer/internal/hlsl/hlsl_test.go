package hlsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `shader.hlsl(3,10-14): warning X3206: implicit truncation of vector type
shader.hlsl(12,5): error X3004: undeclared identifier 'foo'

compilation failed; no code produced`

func TestDiagnostics(t *testing.T) {
	diags := Diagnostics(sampleLog)
	require.Len(t, diags, 2)
	assert.Equal(t, Diagnostic{Line: 3, Column: 10, Warning: true, Code: "X3206", Message: "implicit truncation of vector type"}, diags[0])
	assert.Equal(t, 12, diags[1].Line)
	assert.False(t, diags[1].Warning)
	assert.Equal(t, "12:5: error X3004: undeclared identifier 'foo'", diags[1].String())

	assert.Empty(t, Diagnostics("no diagnostics here"))
}

func TestCompileErrorReportsFirstError(t *testing.T) {
	err := &CompileError{Profile: "ps_3_0", Code: 0x80004005, Log: sampleLog}
	assert.Equal(t, "hlsl ps_3_0: 12:5: error X3004: undeclared identifier 'foo'", err.Error())

	bare := &CompileError{Profile: "vs_2_0", Log: "empty source\n"}
	assert.Equal(t, "hlsl vs_2_0: empty source", bare.Error())
}
