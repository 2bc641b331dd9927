//go:build !windows

package hlsl

// Compile is only available on Windows.
func Compile(source, entryPoint, profile string) ([]byte, error) {
	return nil, ErrUnavailable
}
