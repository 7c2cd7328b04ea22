// Package component defines the engine's component kinds. Each component
// reports its kind, which is also its bit in an entity's ecs.Mask.
package component

import "lumen/internal/ecs"

const (
	KindTransform ecs.Kind = iota
	KindGUITransform
	KindStaticMesh
	KindSkinnedMesh
	KindTerrainMesh
	KindGUI
	KindText
	KindCamera
	KindLight
	KindSkeletalAnimation
	KindJoint
	KindParent
	KindChildren

	NumKinds int = iota
)

// Component is implemented by every struct stored in a scene.
type Component interface {
	Kind() ecs.Kind
}

var kindNames = [NumKinds]string{
	KindTransform:         "transform",
	KindGUITransform:      "gui_transform",
	KindStaticMesh:        "static_mesh",
	KindSkinnedMesh:       "skinned_mesh",
	KindTerrainMesh:       "terrain_mesh",
	KindGUI:               "gui",
	KindText:              "text",
	KindCamera:            "camera",
	KindLight:             "light",
	KindSkeletalAnimation: "skeletal_animation",
	KindJoint:             "joint",
	KindParent:            "parent",
	KindChildren:          "children",
}

// Name returns the kind's name as used in config files and logs.
func Name(k ecs.Kind) string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return "unknown"
}
