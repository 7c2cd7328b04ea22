package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// DescriptorLayout names the bindings a descriptor set provides.
type DescriptorLayout struct {
	Name    string
	Entries []gputypes.BindGroupLayoutEntry
}

func (l *DescriptorLayout) entry(slot uint32) (gputypes.BindGroupLayoutEntry, bool) {
	for _, e := range l.Entries {
		if e.Binding == slot {
			return e, true
		}
	}
	return gputypes.BindGroupLayoutEntry{}, false
}

// Binding attaches a buffer or a texture to one slot of a layout.
type Binding struct {
	Slot    uint32
	Buffer  *Buffer
	Texture *Texture
}

// DescriptorSet is one frame's set of bindings for a layout.
type DescriptorSet struct {
	id       uint32
	layout   *DescriptorLayout
	frame    int
	bindings []Binding
	freed    bool
}

func (s *DescriptorSet) ID() uint32                { return s.id }
func (s *DescriptorSet) Layout() *DescriptorLayout { return s.layout }
func (s *DescriptorSet) Frame() int                { return s.frame }

// Buffer returns the buffer bound at slot, or nil.
func (s *DescriptorSet) Buffer(slot uint32) *Buffer {
	for _, b := range s.bindings {
		if b.Slot == slot {
			return b.Buffer
		}
	}
	return nil
}

// Texture returns the texture bound at slot, or nil.
func (s *DescriptorSet) Texture(slot uint32) *Texture {
	for _, b := range s.bindings {
		if b.Slot == slot {
			return b.Texture
		}
	}
	return nil
}

func validateBindings(layout *DescriptorLayout, bindings []Binding) error {
	if len(bindings) != len(layout.Entries) {
		return fmt.Errorf("%w: %s wants %d bindings, got %d", ErrLayoutMismatch, layout.Name, len(layout.Entries), len(bindings))
	}
	for _, b := range bindings {
		e, ok := layout.entry(b.Slot)
		if !ok {
			return fmt.Errorf("%w: %s has no slot %d", ErrLayoutMismatch, layout.Name, b.Slot)
		}
		switch {
		case e.Buffer != nil && b.Buffer == nil:
			return fmt.Errorf("%w: %s slot %d wants a buffer", ErrLayoutMismatch, layout.Name, b.Slot)
		case e.Texture != nil && b.Texture == nil:
			return fmt.Errorf("%w: %s slot %d wants a texture", ErrLayoutMismatch, layout.Name, b.Slot)
		}
	}
	return nil
}
