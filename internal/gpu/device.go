package gpu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Executor runs the commands recorded for one frame. It is called on the
// device's worker goroutine, one frame at a time.
type Executor interface {
	Execute(frame int, cmds []Command) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(frame int, cmds []Command) error

func (f ExecutorFunc) Execute(frame int, cmds []Command) error { return f(frame, cmds) }

type submission struct {
	cb *CommandBuffer
}

// Device is a host-memory device. Submitted frames are executed in order
// on a worker goroutine; at most FramesInFlight frames are outstanding at
// any time, so BeginFrame for frame N waits until frame N-F has executed.
type Device struct {
	frames int
	exec   Executor
	log    *zap.Logger

	inFlight *semaphore.Weighted
	work     chan submission
	wg       sync.WaitGroup

	mu        sync.Mutex
	nextID    uint32
	frame     uint64
	cmdBufs   []*CommandBuffer
	pending   bool
	closed    bool
	liveSets  int
	totalSets int
	buffers   int
	textures  int
	executed  uint64
}

// NewDevice starts a device with frames frames in flight.
func NewDevice(frames int, exec Executor, log *zap.Logger) *Device {
	if frames < 1 {
		frames = 1
	}
	d := &Device{
		frames:   frames,
		exec:     exec,
		log:      log,
		inFlight: semaphore.NewWeighted(int64(frames)),
		work:     make(chan submission, frames),
		cmdBufs:  make([]*CommandBuffer, frames),
	}
	for i := range d.cmdBufs {
		d.cmdBufs[i] = &CommandBuffer{frame: i}
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Device) run() {
	defer d.wg.Done()
	for sub := range d.work {
		if d.exec != nil {
			if err := d.exec.Execute(sub.cb.frame, sub.cb.cmds); err != nil {
				d.log.Error("execute frame", zap.Int("frame", sub.cb.frame), zap.Error(err))
			}
		}
		d.mu.Lock()
		d.executed++
		d.mu.Unlock()
		d.inFlight.Release(1)
	}
}

// FramesInFlight returns the number of frame slots.
func (d *Device) FramesInFlight() int { return d.frames }

// BeginFrame waits for a free frame slot and returns its reset command
// buffer. Every BeginFrame must be followed by exactly one Submit.
func (d *Device) BeginFrame(ctx context.Context) (*CommandBuffer, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDeviceClosed
	}
	if d.pending {
		d.mu.Unlock()
		return nil, errors.New("gpu: previous frame was not submitted")
	}
	d.mu.Unlock()

	if err := d.inFlight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for frame slot: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	cb := d.cmdBufs[d.frame%uint64(d.frames)]
	cb.Reset()
	d.pending = true
	return cb, nil
}

// Submit hands cb to the worker for execution.
func (d *Device) Submit(cb *CommandBuffer) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.inFlight.Release(1)
		return ErrDeviceClosed
	}
	d.pending = false
	d.frame++
	d.mu.Unlock()
	d.work <- submission{cb: cb}
	return nil
}

// WaitIdle blocks until every submitted frame has executed.
func (d *Device) WaitIdle(ctx context.Context) error {
	n := int64(d.frames)
	if err := d.inFlight.Acquire(ctx, n); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	d.inFlight.Release(n)
	return nil
}

// Close drains the device and stops the worker.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	err := d.WaitIdle(context.Background())

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	close(d.work)
	d.wg.Wait()
	return err
}

// FramesExecuted returns the number of frames the worker has finished.
func (d *Device) FramesExecuted() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.executed
}

func (d *Device) allocID() uint32 {
	d.nextID++
	return d.nextID
}

// CreateBuffer allocates a buffer and, if data is non-nil, uploads it to
// both copies.
func (d *Device) CreateBuffer(desc BufferDesc, data []byte) (*Buffer, error) {
	if desc.Size() <= 0 {
		return nil, fmt.Errorf("create buffer %s: size %d", desc.Label, desc.Size())
	}
	d.mu.Lock()
	b := &Buffer{
		id:     d.allocID(),
		desc:   desc,
		host:   make([]byte, desc.Size()),
		device: make([]byte, desc.Size()),
	}
	d.buffers++
	d.mu.Unlock()

	if data != nil {
		if err := b.UpdateDeviceAndHost(data, 0); err != nil {
			return nil, fmt.Errorf("create buffer %s: %w", desc.Label, err)
		}
	}
	return b, nil
}

// DestroyBuffer releases b.
func (d *Device) DestroyBuffer(b *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.destroyed {
		return fmt.Errorf("%w: buffer %s", ErrDoubleFree, b.desc.Label)
	}
	b.destroyed = true
	d.buffers--
	return nil
}

// CreateTexture uploads an RGBA8 image.
func (d *Device) CreateTexture(desc TextureDesc, pixels []byte) (*Texture, error) {
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc.Label)
	}
	if want := desc.Width * desc.Height * 4; want <= 0 || len(pixels) != want {
		return nil, fmt.Errorf("create texture %s: want %d bytes, got %d", desc.Label, want, len(pixels))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &Texture{id: d.allocID(), desc: desc, pixels: append([]byte(nil), pixels...)}
	d.textures++
	return t, nil
}

// DestroyTexture releases t.
func (d *Device) DestroyTexture(t *Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.destroyed {
		return fmt.Errorf("%w: texture %s", ErrDoubleFree, t.desc.Label)
	}
	t.destroyed = true
	d.textures--
	return nil
}

// AllocateDescriptorSets creates one set per frame in flight; perFrame[i]
// holds the bindings of frame i's set.
func (d *Device) AllocateDescriptorSets(layout *DescriptorLayout, perFrame [][]Binding) ([]*DescriptorSet, error) {
	if len(perFrame) != d.frames {
		return nil, fmt.Errorf("%w: %s: %d binding lists for %d frames", ErrLayoutMismatch, layout.Name, len(perFrame), d.frames)
	}
	for _, bindings := range perFrame {
		if err := validateBindings(layout, bindings); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	sets := make([]*DescriptorSet, d.frames)
	for i, bindings := range perFrame {
		sets[i] = &DescriptorSet{
			id:       d.allocID(),
			layout:   layout,
			frame:    i,
			bindings: append([]Binding(nil), bindings...),
		}
	}
	d.liveSets += len(sets)
	d.totalSets += len(sets)
	return sets, nil
}

// FreeDescriptorSets returns sets to the pool. Freeing a set twice is an
// error; the other sets are still freed.
func (d *Device) FreeDescriptorSets(sets []*DescriptorSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, s := range sets {
		if s == nil {
			continue
		}
		if s.freed {
			errs = append(errs, fmt.Errorf("%w: descriptor set %d", ErrDoubleFree, s.id))
			continue
		}
		s.freed = true
		d.liveSets--
	}
	return errors.Join(errs...)
}

// Stats is a snapshot of the device's live resource counts.
type Stats struct {
	LiveDescriptorSets  int
	TotalDescriptorSets int
	Buffers             int
	Textures            int
}

func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		LiveDescriptorSets:  d.liveSets,
		TotalDescriptorSets: d.totalSets,
		Buffers:             d.buffers,
		Textures:            d.textures,
	}
}
