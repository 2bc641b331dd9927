//go:build windows

package hlsl

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	d3dcompiler47 = windows.NewLazySystemDLL("d3dcompiler_47.dll")

	procD3DCompile = d3dcompiler47.NewProc("D3DCompile")
)

// D3DCOMPILE flags
const (
	compileEnableBackwardsCompatibility = 1 << 12
	compileOptimizationLevel3           = 1 << 15
)

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type id3dBlob struct {
	vtbl *struct {
		iUnknownVtbl
		GetBufferPointer uintptr
		GetBufferSize    uintptr
	}
}

func (b *id3dBlob) bytes() []byte {
	ptr, _, _ := syscall.SyscallN(b.vtbl.GetBufferPointer, uintptr(unsafe.Pointer(b)))
	size, _, _ := syscall.SyscallN(b.vtbl.GetBufferSize, uintptr(unsafe.Pointer(b)))
	if ptr == 0 || size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size))
	return out
}

func (b *id3dBlob) release() {
	syscall.SyscallN(b.vtbl.Release, uintptr(unsafe.Pointer(b)))
}

// Compile compiles HLSL source with D3DCompile from d3dcompiler_47.dll.
//
// Parameters:
//   - source: the HLSL source
//   - entryPoint: the entry function
//   - profile: the target profile, e.g. "vs_3_0" or "ps_5_0"
//
// Returns:
//   - []byte: the bytecode
//   - error: a *CompileError with the compiler diagnostics, or an error if the compiler is missing
func Compile(source, entryPoint, profile string) ([]byte, error) {
	if err := procD3DCompile.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if source == "" {
		return nil, &CompileError{Profile: profile, Log: "empty source"}
	}
	src := []byte(source)
	entry, err := windows.BytePtrFromString(entryPoint)
	if err != nil {
		return nil, err
	}
	target, err := windows.BytePtrFromString(profile)
	if err != nil {
		return nil, err
	}
	name, _ := windows.BytePtrFromString(sourceName)

	var code, messages *id3dBlob
	hr, _, _ := procD3DCompile.Call(
		uintptr(unsafe.Pointer(&src[0])),
		uintptr(len(src)),
		uintptr(unsafe.Pointer(name)),
		0, // pDefines, resolved by the preprocessor
		0, // pInclude
		uintptr(unsafe.Pointer(entry)),
		uintptr(unsafe.Pointer(target)),
		compileEnableBackwardsCompatibility|compileOptimizationLevel3,
		0,
		uintptr(unsafe.Pointer(&code)),
		uintptr(unsafe.Pointer(&messages)),
	)
	var log string
	if messages != nil {
		log = string(messages.bytes())
		messages.release()
	}
	if int32(hr) < 0 {
		if code != nil {
			code.release()
		}
		return nil, &CompileError{Profile: profile, Code: uint32(hr), Log: log}
	}
	defer code.release()
	return code.bytes(), nil
}
