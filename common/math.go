package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Identity writes the identity matrix into m. Matrices are column-major: element (row r, column c)
// lives at m[c*4+r].
//
// Parameters:
//   - m: destination, at least 16 elements
func Identity(m []float32) {
	clear(m[:16])
	for i := 0; i < 16; i += 5 {
		m[i] = 1
	}
}

// IdentityMatrix returns the identity matrix by value.
func IdentityMatrix() [16]float32 {
	return [16]float32{0: 1, 5: 1, 10: 1, 15: 1}
}

// SliceToBytes returns the memory of data as bytes, e.g. vertices or matrices for a buffer upload.
// The result aliases data.
//
// Parameters:
//   - data: the elements, must not contain pointers
//
// Returns:
//   - []byte: a view of data, nil when data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	n := len(data) * int(unsafe.Sizeof(data[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), n)
}

// StructToBytes returns the memory of *v as bytes. The result aliases v.
//
// Parameters:
//   - v: the value, its type must not contain pointers
//
// Returns:
//   - []byte: a view of *v
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}

// Mul4 computes out = a * b for column-major 4x4 matrices. out may alias a or b.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - a: left operand
//   - b: right operand
func Mul4(out, a, b []float32) {
	var r [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	copy(out, r[:])
}

// Transpose4 transposes a 4x4 matrix. Direct3D shader constants expect row-major data, so
// column-major engine matrices are transposed before upload.
//
// Parameters:
//   - m: the matrix to transpose
//
// Returns:
//   - [16]float32: the transposed matrix
func Transpose4(m [16]float32) [16]float32 {
	var out [16]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r*4+c] = m[c*4+r]
		}
	}
	return out
}

// Perspective writes a right-handed perspective projection mapping depth to [0, 1].
//
// Parameters:
//   - out: destination, at least 16 elements
//   - fovY: vertical field of view in radians
//   - aspect: width divided by height
//   - near: distance of the near plane, > 0
//   - far: distance of the far plane, > near
func Perspective(out []float32, fovY, aspect, near, far float32) {
	focal := 1 / math32.Tan(fovY*0.5)
	depth := 1 / (near - far)
	clear(out[:16])
	out[0] = focal / aspect
	out[5] = focal
	out[10] = far * depth
	out[11] = -1
	out[14] = near * far * depth
}

// Ortho creates an orthographic projection matrix mapping the box [left,right]x[bottom,top]x[near,far]
// to clip space with a [-1, 1] depth range.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right: horizontal extent
//   - bottom, top: vertical extent; passing bottom > top flips the Y axis
//   - near, far: depth extent
func Ortho(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = -2 / (far - near)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = -(far + near) / (far - near)
}

// LookAt writes the view matrix of a camera at eye looking at center.
//
// Parameters:
//   - out: destination, at least 16 elements
//   - eye: camera position
//   - center: point looked at
//   - up: approximate up direction, usually +Y
func LookAt(out []float32, eye, center, up Vec3) {
	z := normalize3(Vec3{eye.X - center.X, eye.Y - center.Y, eye.Z - center.Z})
	x := normalize3(Vec3{
		up.Y*z.Z - up.Z*z.Y,
		up.Z*z.X - up.X*z.Z,
		up.X*z.Y - up.Y*z.X,
	})
	y := Vec3{
		z.Y*x.Z - z.Z*x.Y,
		z.Z*x.X - z.X*x.Z,
		z.X*x.Y - z.Y*x.X,
	}

	out[0], out[4], out[8], out[12] = x.X, x.Y, x.Z, -(x.X*eye.X + x.Y*eye.Y + x.Z*eye.Z)
	out[1], out[5], out[9], out[13] = y.X, y.Y, y.Z, -(y.X*eye.X + y.Y*eye.Y + y.Z*eye.Z)
	out[2], out[6], out[10], out[14] = z.X, z.Y, z.Z, -(z.X*eye.X + z.Y*eye.Y + z.Z*eye.Z)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

func normalize3(v Vec3) Vec3 {
	l := math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return v
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}
