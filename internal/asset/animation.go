package asset

import "lumen/internal/mathx"

type Keyframe struct {
	Time        float32
	Translation mathx.Vec3
	Rotation    mathx.Quat
	Scale       mathx.Vec3
}

// Channel animates one bone. Keys are sorted by Time.
type Channel struct {
	Bone int
	Keys []Keyframe
}

type Animation struct {
	ID       ID
	Name     string
	Length   float32
	Channels []Channel
}

// Sample returns the channel's local transform at time t. Before the first
// key and after the last one the nearest key is held.
func (c *Channel) Sample(t float32) mathx.Mat4 {
	switch {
	case len(c.Keys) == 0:
		return mathx.Identity()
	case t <= c.Keys[0].Time:
		return c.Keys[0].matrix()
	}
	for i := 1; i < len(c.Keys); i++ {
		next := c.Keys[i]
		if next.Time <= t {
			continue
		}
		prev := c.Keys[i-1]
		f := (t - prev.Time) / (next.Time - prev.Time)
		return mathx.Compose(
			prev.Translation.Lerp(next.Translation, f),
			prev.Rotation.Slerp(next.Rotation, f),
			prev.Scale.Lerp(next.Scale, f),
		)
	}
	return c.Keys[len(c.Keys)-1].matrix()
}

func (k Keyframe) matrix() mathx.Mat4 {
	return mathx.Compose(k.Translation, k.Rotation, k.Scale)
}

// Sample writes every channel's transform at time t into pose, indexed by
// bone. Bones without a channel are left alone.
func (a *Animation) Sample(t float32, pose []mathx.Mat4) {
	for i := range a.Channels {
		c := &a.Channels[i]
		if c.Bone >= 0 && c.Bone < len(pose) {
			pose[c.Bone] = c.Sample(t)
		}
	}
}
