package gpu

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"go.uber.org/zap/zaptest"
)

func uniformLayout() *DescriptorLayout {
	return &DescriptorLayout{
		Name: "test",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	}
}

func TestFlushControlsDeviceVisibility(t *testing.T) {
	d := NewDevice(2, nil, zaptest.NewLogger(t))
	defer d.Close()

	b, err := d.CreateBuffer(BufferDesc{Label: "instances", ElementSize: 4, Length: 4, Usage: gputypes.BufferUsageVertex}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateHost([]byte{1, 2, 3, 4}, 4); err != nil {
		t.Fatal(err)
	}
	b.ReadDevice(func(data []byte) {
		if data[4] != 0 {
			t.Fatal("expected unflushed bytes to stay off the device")
		}
	})
	if err := b.Flush(4, 4); err != nil {
		t.Fatal(err)
	}
	b.ReadDevice(func(data []byte) {
		if data[4] != 1 || data[7] != 4 {
			t.Fatalf("expected flushed bytes on the device, got %v", data)
		}
	})
	if err := b.UpdateHost(make([]byte, 8), 12); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestDescriptorSetLifecycle(t *testing.T) {
	d := NewDevice(3, nil, zaptest.NewLogger(t))
	defer d.Close()
	layout := uniformLayout()
	b, _ := d.CreateBuffer(BufferDesc{Label: "u", ElementSize: 64, Length: 1, Usage: gputypes.BufferUsageUniform}, nil)

	perFrame := make([][]Binding, 3)
	for i := range perFrame {
		perFrame[i] = []Binding{{Slot: 0, Buffer: b}}
	}
	sets, err := d.AllocateDescriptorSets(layout, perFrame)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 3 || d.Stats().LiveDescriptorSets != 3 {
		t.Fatalf("expected 3 live sets, got %d", d.Stats().LiveDescriptorSets)
	}
	if sets[2].Frame() != 2 || sets[2].Buffer(0) != b {
		t.Fatal("set 2 lost its frame or binding")
	}

	if err := d.FreeDescriptorSets(sets); err != nil {
		t.Fatal(err)
	}
	if d.Stats().LiveDescriptorSets != 0 {
		t.Fatalf("expected 0 live sets, got %d", d.Stats().LiveDescriptorSets)
	}
	if err := d.FreeDescriptorSets(sets[:1]); !errors.Is(err, ErrDoubleFree) {
		t.Fatalf("expected ErrDoubleFree, got %v", err)
	}
}

func TestAllocateRejectsMismatchedBindings(t *testing.T) {
	d := NewDevice(2, nil, zaptest.NewLogger(t))
	defer d.Close()
	layout := uniformLayout()

	cases := []struct {
		name     string
		perFrame [][]Binding
	}{
		{"wrong frame count", [][]Binding{{}}},
		{"missing buffer", [][]Binding{{{Slot: 0}}, {{Slot: 0}}}},
		{"unknown slot", [][]Binding{{{Slot: 3}}, {{Slot: 3}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.AllocateDescriptorSets(layout, tc.perFrame); !errors.Is(err, ErrLayoutMismatch) {
				t.Fatalf("expected ErrLayoutMismatch, got %v", err)
			}
		})
	}
}

// blockingExecutor holds every frame until release is closed.
type blockingExecutor struct {
	mu      sync.Mutex
	frames  []int
	release chan struct{}
}

func (e *blockingExecutor) Execute(frame int, cmds []Command) error {
	<-e.release
	e.mu.Lock()
	e.frames = append(e.frames, frame)
	e.mu.Unlock()
	return nil
}

func TestFramesInFlightBound(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	d := NewDevice(2, exec, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		cb, err := d.BeginFrame(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if cb.Frame() != i {
			t.Fatalf("expected frame slot %d, got %d", i, cb.Frame())
		}
		d.Submit(cb)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.BeginFrame(ctx); err == nil {
		t.Fatal("expected the third frame to wait for the first")
	}

	close(exec.release)
	if err := d.WaitIdle(context.Background()); err != nil {
		t.Fatal(err)
	}
	cb, err := d.BeginFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cb.Frame() != 0 {
		t.Fatalf("expected slot 0 to come around again, got %d", cb.Frame())
	}
	d.Submit(cb)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if got := d.FramesExecuted(); got != 3 {
		t.Fatalf("expected 3 executed frames, got %d", got)
	}
	if _, err := d.BeginFrame(context.Background()); !errors.Is(err, ErrDeviceClosed) {
		t.Fatalf("expected ErrDeviceClosed, got %v", err)
	}
}

func TestExecutorSeesRecordedCommands(t *testing.T) {
	got := make(chan int, 1)
	d := NewDevice(1, ExecutorFunc(func(frame int, cmds []Command) error {
		draws := 0
		for _, c := range cmds {
			if c.Op == OpDrawIndexed {
				draws += c.InstanceCount
			}
		}
		got <- draws
		return nil
	}), zaptest.NewLogger(t))
	defer d.Close()

	cb, _ := d.BeginFrame(context.Background())
	cb.BindPipeline("static")
	cb.DrawIndexed(36, 5)
	cb.DrawIndexed(6, 2)
	if cb.DrawCount() != 2 {
		t.Fatalf("expected 2 draws recorded, got %d", cb.DrawCount())
	}
	d.Submit(cb)
	if n := <-got; n != 7 {
		t.Fatalf("expected 7 instances drawn, got %d", n)
	}
}

func TestTextureSampling(t *testing.T) {
	d := NewDevice(1, nil, zaptest.NewLogger(t))
	defer d.Close()
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	tex, err := d.CreateTexture(TextureDesc{Label: "checker", Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm}, pixels)
	if err != nil {
		t.Fatal(err)
	}
	if c := tex.Sample(0.75, 0.25); c != [4]uint8{0, 255, 0, 255} {
		t.Fatalf("expected green, got %v", c)
	}
	if c := tex.Texel(9, 9); c != [4]uint8{255, 255, 255, 255} {
		t.Fatalf("expected clamped white, got %v", c)
	}
	if _, err := d.CreateTexture(TextureDesc{Label: "bgra", Width: 1, Height: 1, Format: gputypes.TextureFormatBGRA8Unorm}, make([]byte, 4)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if err := d.DestroyTexture(tex); err != nil {
		t.Fatal(err)
	}
	if err := d.DestroyTexture(tex); !errors.Is(err, ErrDoubleFree) {
		t.Fatalf("expected ErrDoubleFree, got %v", err)
	}
}
