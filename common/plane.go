package common

import "github.com/chewxy/math32"

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// Normalized returns the plane scaled so that its normal has unit length.
// A degenerate plane is returned unchanged.
func (p Plane) Normalized() Plane {
	length := math32.Sqrt(p.Normal.X*p.Normal.X + p.Normal.Y*p.Normal.Y + p.Normal.Z*p.Normal.Z)
	if length == 0 {
		return p
	}
	inv := 1 / length
	return Plane{
		Normal:   Vec3{p.Normal.X * inv, p.Normal.Y * inv, p.Normal.Z * inv},
		Distance: p.Distance * inv,
	}
}

// Equation returns the plane coefficients (a, b, c, d).
func (p Plane) Equation() [4]float32 {
	return [4]float32{p.Normal.X, p.Normal.Y, p.Normal.Z, p.Distance}
}

// Equation64 returns the plane coefficients in double precision, as glClipPlane expects them.
func (p Plane) Equation64() [4]float64 {
	return [4]float64{float64(p.Normal.X), float64(p.Normal.Y), float64(p.Normal.Z), float64(p.Distance)}
}

// SignedDistance returns the signed distance of point v to the plane, assuming the plane is normalized.
func (p Plane) SignedDistance(v Vec3) float32 {
	return p.Normal.X*v.X + p.Normal.Y*v.Y + p.Normal.Z*v.Z + p.Distance
}
