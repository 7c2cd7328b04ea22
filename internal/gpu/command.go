package gpu

// Pipeline names a fixed-function configuration the executor knows how to
// run.
type Pipeline string

type Op uint8

const (
	OpBindPipeline Op = iota
	OpBindSet
	OpBindVertexBuffer
	OpBindIndexBuffer
	OpBindInstanceBuffer
	OpDrawIndexed
)

// Command is one recorded operation. Which fields are meaningful depends
// on Op.
type Command struct {
	Op            Op
	Pipeline      Pipeline
	SetIndex      int
	Set           *DescriptorSet
	Buffer        *Buffer
	IndexCount    int
	InstanceCount int
}

// CommandBuffer records the commands of one frame in flight.
type CommandBuffer struct {
	frame int
	cmds  []Command
}

// Frame returns the frame-in-flight slot this buffer belongs to.
func (c *CommandBuffer) Frame() int { return c.frame }

func (c *CommandBuffer) Commands() []Command { return c.cmds }

func (c *CommandBuffer) Reset() { c.cmds = c.cmds[:0] }

func (c *CommandBuffer) BindPipeline(p Pipeline) {
	c.cmds = append(c.cmds, Command{Op: OpBindPipeline, Pipeline: p})
}

func (c *CommandBuffer) BindDescriptorSet(index int, set *DescriptorSet) {
	c.cmds = append(c.cmds, Command{Op: OpBindSet, SetIndex: index, Set: set})
}

func (c *CommandBuffer) BindVertexBuffer(b *Buffer) {
	c.cmds = append(c.cmds, Command{Op: OpBindVertexBuffer, Buffer: b})
}

func (c *CommandBuffer) BindIndexBuffer(b *Buffer) {
	c.cmds = append(c.cmds, Command{Op: OpBindIndexBuffer, Buffer: b})
}

func (c *CommandBuffer) BindInstanceBuffer(b *Buffer) {
	c.cmds = append(c.cmds, Command{Op: OpBindInstanceBuffer, Buffer: b})
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount int) {
	c.cmds = append(c.cmds, Command{Op: OpDrawIndexed, IndexCount: indexCount, InstanceCount: instanceCount})
}

// DrawCount returns the number of draw commands recorded so far.
func (c *CommandBuffer) DrawCount() int {
	n := 0
	for _, cmd := range c.cmds {
		if cmd.Op == OpDrawIndexed {
			n++
		}
	}
	return n
}
