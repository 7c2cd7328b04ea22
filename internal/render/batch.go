// Package render turns renderable components into instanced draws. Each
// renderer keeps a fixed set of batches; a batch is leased to one
// identity (mesh and material, or texture) and owns one instance buffer
// and one descriptor set per frame in flight.
package render

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lumen/internal/config"
	"lumen/internal/gpu"
)

var (
	ErrBatchesExhausted = errors.New("render: no free batch")
	ErrMissingComponent = errors.New("render: missing component")
)

type batchState uint8

const (
	batchFree batchState = iota
	batchOccupied
)

// batch is one leased slot. instances, sets and extra are indexed by
// frame in flight.
type batch struct {
	state    batchState
	identity uint64
	key      batchKey

	instances []*gpu.Buffer
	sets      []*gpu.DescriptorSet
	extra     []*gpu.Buffer
	extraSets []*gpu.DescriptorSet

	count int
	idle  int
}

// batchKey holds the asset ids a batch was leased for so recording can
// check they still resolve.
type batchKey struct {
	pipeline gpu.Pipeline
	a, b     uint32
}

// batchSet is the fixed pool of batches behind one renderer.
type batchSet struct {
	name      string
	device    *gpu.Device
	log       *zap.Logger
	elemSize  int
	length    int
	idleLimit int
	frame     int

	batches []batch
	// Sets of evicted batches wait here until no frame in flight can
	// still read them.
	retired  []retiredSets
	recorded int
}

type retiredSets struct {
	sets []*gpu.DescriptorSet
	at   int
}

func newBatchSet(name string, device *gpu.Device, log *zap.Logger, cfg config.BatchConfig, elemSize, idleLimit int) *batchSet {
	return &batchSet{
		name:      name,
		device:    device,
		log:       log.With(zap.String("renderer", name)),
		elemSize:  elemSize,
		length:    cfg.Instances,
		idleLimit: idleLimit,
		batches:   make([]batch, cfg.Batches),
	}
}

// find returns an occupied batch for identity with room for one more
// instance, or nil.
func (bs *batchSet) find(identity uint64) *batch {
	for i := range bs.batches {
		b := &bs.batches[i]
		if b.state == batchOccupied && b.identity == identity && b.count < bs.length {
			return b
		}
	}
	return nil
}

// lease moves a free batch to identity. bind creates its descriptor sets;
// if it fails the batch stays free.
func (bs *batchSet) lease(identity uint64, key batchKey, bind func(b *batch) error) (*batch, error) {
	for i := range bs.batches {
		b := &bs.batches[i]
		if b.state != batchFree {
			continue
		}
		if err := bs.ensureBuffers(b); err != nil {
			return nil, err
		}
		if err := bind(b); err != nil {
			bs.freeSets(b)
			return nil, err
		}
		b.state = batchOccupied
		b.identity = identity
		b.key = key
		b.count = 0
		b.idle = 0
		bs.log.Debug("batch leased", zap.Int("batch", i), zap.Uint64("identity", identity))
		return b, nil
	}
	bs.log.Warn("batches exhausted", zap.Int("batches", len(bs.batches)))
	return nil, fmt.Errorf("%w: %s has %d batches", ErrBatchesExhausted, bs.name, len(bs.batches))
}

// acquire returns a batch for identity that can take one more instance.
func (bs *batchSet) acquire(identity uint64, key batchKey, bind func(b *batch) error) (*batch, error) {
	if b := bs.find(identity); b != nil {
		return b, nil
	}
	return bs.lease(identity, key, bind)
}

// ensureBuffers creates the per-frame instance buffers the first time a
// slot is leased. They live until freeAll.
func (bs *batchSet) ensureBuffers(b *batch) error {
	if b.instances != nil {
		return nil
	}
	bufs, err := perFrameBuffers(bs.device, func(f int) gpu.BufferDesc {
		return gpu.BufferDesc{
			Label:       fmt.Sprintf("%s.instances.%d", bs.name, f),
			ElementSize: bs.elemSize,
			Length:      bs.length,
			Usage:       instanceUsage,
			Frequency:   gpu.Stream,
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", bs.name, err)
	}
	b.instances = bufs
	return nil
}

// perFrameBuffers creates one buffer per frame in flight. On failure the
// buffers already made are destroyed and nil is returned.
func perFrameBuffers(device *gpu.Device, desc func(frame int) gpu.BufferDesc) ([]*gpu.Buffer, error) {
	bufs := make([]*gpu.Buffer, device.FramesInFlight())
	for f := range bufs {
		buf, err := device.CreateBuffer(desc(f), nil)
		if err != nil {
			for _, made := range bufs[:f] {
				device.DestroyBuffer(made)
			}
			return nil, err
		}
		bufs[f] = buf
	}
	return bufs, nil
}

// push appends one encoded instance to b in the current frame.
func (bs *batchSet) push(b *batch, rec []byte) (int, error) {
	slot := b.count
	if err := b.instances[bs.frame].UpdateHost(rec, slot*bs.elemSize); err != nil {
		return 0, err
	}
	b.count++
	return slot, nil
}

// reclaim frees retired sets. Recording frame N happens after frame
// N-F has completed, so sets retired while recording frame N are unused
// once frame N+F-1 is being recorded. all frees everything and is only
// valid after the device is idle.
func (bs *batchSet) reclaim(all bool) {
	keep := bs.retired[:0]
	for _, r := range bs.retired {
		if !all && bs.recorded-r.at < bs.device.FramesInFlight()-1 {
			keep = append(keep, r)
			continue
		}
		if err := bs.device.FreeDescriptorSets(r.sets); err != nil {
			bs.log.Error("free descriptor sets", zap.Error(err))
		}
	}
	clear(bs.retired[len(keep):])
	bs.retired = keep
}

func (bs *batchSet) freeSets(b *batch) {
	if err := bs.device.FreeDescriptorSets(append(b.sets, b.extraSets...)); err != nil {
		bs.log.Error("free descriptor sets", zap.Error(err))
	}
	b.sets = nil
	b.extraSets = nil
}

// evict returns b to the free state and retires its descriptor sets.
// Its buffers are kept for the next lease.
func (bs *batchSet) evict(b *batch) {
	if sets := append(b.sets, b.extraSets...); len(sets) > 0 {
		bs.retired = append(bs.retired, retiredSets{sets: sets, at: bs.recorded})
	}
	b.sets = nil
	b.extraSets = nil
	b.state = batchFree
	b.identity = 0
	b.key = batchKey{}
	b.count = 0
	b.idle = 0
}

// record walks the occupied batches. stale reports whether a batch's
// assets are gone; draw records one batch with a non-zero count.
func (bs *batchSet) record(frame int, stale func(b *batch) bool, draw func(b *batch) error) error {
	bs.recorded++
	bs.reclaim(false)
	var errs []error
	for i := range bs.batches {
		b := &bs.batches[i]
		if b.state != batchOccupied {
			continue
		}
		if stale(b) {
			bs.log.Debug("evicting stale batch", zap.Int("batch", i), zap.Uint64("identity", b.identity))
			bs.evict(b)
			continue
		}
		if b.count == 0 {
			b.idle++
			if b.idle >= bs.idleLimit {
				bs.log.Debug("evicting idle batch", zap.Int("batch", i), zap.Uint64("identity", b.identity))
				bs.evict(b)
			}
			continue
		}
		if err := b.instances[frame].Flush(0, b.count*bs.elemSize); err != nil {
			errs = append(errs, err)
		} else if err := draw(b); err != nil {
			errs = append(errs, err)
		}
		b.count = 0
		b.idle = 0
	}
	return errors.Join(errs...)
}

// freeAll evicts every batch and destroys every buffer.
func (bs *batchSet) freeAll() error {
	var errs []error
	for i := range bs.batches {
		b := &bs.batches[i]
		if b.state == batchOccupied {
			bs.evict(b)
		}
		for _, buf := range append(b.instances, b.extra...) {
			if err := bs.device.DestroyBuffer(buf); err != nil {
				errs = append(errs, err)
			}
		}
		b.instances = nil
		b.extra = nil
	}
	bs.reclaim(true)
	return errors.Join(errs...)
}

// occupied returns the number of leased batches.
func (bs *batchSet) occupied() int {
	n := 0
	for i := range bs.batches {
		if bs.batches[i].state == batchOccupied {
			n++
		}
	}
	return n
}

// setFrame points submissions at frame's instance buffers.
func (bs *batchSet) setFrame(frame int) { bs.frame = frame }
