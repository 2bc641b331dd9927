// Package dx is a minimal COM binding of the Direct3D 11 and DXGI interfaces used by the d3d11
// render system. Names follow the Windows SDK. The binding is only available on windows.
package dx
