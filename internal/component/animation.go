package component

import (
	"lumen/internal/asset"
	"lumen/internal/ecs"
	"lumen/internal/mathx"
)

type PlayMode uint8

const (
	Loop PlayMode = iota
	PlayOnce
)

// SkeletalAnimation plays an animation asset on the joint entities in
// Joints, indexed by bone. The animation clock ignores Stopped; the pose
// system holds the last sampled pose while it is set.
type SkeletalAnimation struct {
	Animation asset.ID
	Time      float32
	Length    float32
	Mode      PlayMode
	Stopped   bool
	Joints    []ecs.EntityID
}

func (SkeletalAnimation) Kind() ecs.Kind { return KindSkeletalAnimation }

// Joint marks an entity as bone Index of a skeleton.
type Joint struct {
	Index       int
	InverseBind mathx.Mat4
}

func (Joint) Kind() ecs.Kind { return KindJoint }
