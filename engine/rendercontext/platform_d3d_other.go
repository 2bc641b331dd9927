//go:build !windows

package rendercontext

import "fmt"

func openD3D9(cfg Config, a Attempt) (Surface, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, cfg.Backend)
}

func openD3D11(cfg Config, a Attempt) (Surface, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, cfg.Backend)
}
