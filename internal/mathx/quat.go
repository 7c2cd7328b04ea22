package mathx

import "math"

// slerpThreshold is the dot product above which Slerp falls back to a
// normalized linear interpolation.
const slerpThreshold = 0.9995

// Quat is a rotation quaternion stored as (x, y, z, w).
type Quat Vec4

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat { return Quat{0, 0, 0, 1} }

// QuatAxisAngle returns a rotation of angle radians about axis.
func QuatAxisAngle(axis Vec3, angle float32) Quat {
	a := axis.Normalize()
	s := float32(math.Sin(float64(angle) / 2))
	c := float32(math.Cos(float64(angle) / 2))
	return Quat{a[0] * s, a[1] * s, a[2] * s, c}
}

func (q Quat) Dot(o Quat) float32 { return Vec4(q).Dot(Vec4(o)) }

// Normalize returns q scaled to unit length.
func (q Quat) Normalize() Quat {
	l := sqrt32(q.Dot(q))
	if l == 0 {
		return QuatIdentity()
	}
	return Quat(Vec4(q).Scale(1 / l))
}

// Mul returns the Hamilton product q*o (apply o, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		q[3]*o[0] + q[0]*o[3] + q[1]*o[2] - q[2]*o[1],
		q[3]*o[1] - q[0]*o[2] + q[1]*o[3] + q[2]*o[0],
		q[3]*o[2] + q[0]*o[1] - q[1]*o[0] + q[2]*o[3],
		q[3]*o[3] - q[0]*o[0] - q[1]*o[1] - q[2]*o[2],
	}
}

// Slerp interpolates along the shortest arc between q and o. When the two
// rotations nearly coincide it uses a normalized lerp instead.
func (q Quat) Slerp(o Quat, t float32) Quat {
	d := q.Dot(o)
	if d < 0 {
		o = Quat(Vec4(o).Scale(-1))
		d = -d
	}
	if d > slerpThreshold {
		r := Quat{
			q[0] + (o[0]-q[0])*t,
			q[1] + (o[1]-q[1])*t,
			q[2] + (o[2]-q[2])*t,
			q[3] + (o[3]-q[3])*t,
		}
		return r.Normalize()
	}
	theta0 := math.Acos(float64(d))
	theta := theta0 * float64(t)
	sinTheta0 := math.Sin(theta0)
	s0 := float32(math.Cos(theta) - float64(d)*math.Sin(theta)/sinTheta0)
	s1 := float32(math.Sin(theta) / sinTheta0)
	return Quat{
		q[0]*s0 + o[0]*s1,
		q[1]*s0 + o[1]*s1,
		q[2]*s0 + o[2]*s1,
		q[3]*s0 + o[3]*s1,
	}
}

// Mat4 returns the rotation matrix of a unit quaternion.
func (q Quat) Mat4() Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), 0,
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), 0,
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}
