package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// Frequency hints how often a buffer's contents change.
type Frequency uint8

const (
	Static  Frequency = iota // written once
	Dynamic                  // rewritten every few frames
	Stream                   // rewritten every frame
)

// BufferDesc describes a buffer of Length elements of ElementSize bytes.
type BufferDesc struct {
	Label        string
	ElementSize  int
	Length       int
	Usage        gputypes.BufferUsage
	Frequency    Frequency
	KeepHostCopy bool
}

// Size returns the buffer size in bytes.
func (d BufferDesc) Size() int { return d.ElementSize * d.Length }

// Buffer is a device buffer with a host staging copy. Writes land in the
// host copy and become visible to the executor only after Flush.
type Buffer struct {
	id   uint32
	desc BufferDesc

	host []byte

	mu        sync.RWMutex
	device    []byte
	destroyed bool
}

func (b *Buffer) ID() uint32       { return b.id }
func (b *Buffer) Desc() BufferDesc { return b.desc }
func (b *Buffer) Size() int        { return len(b.host) }

// Host returns the host copy. The slice is only meaningful for buffers
// created with KeepHostCopy or between an UpdateHost and its Flush.
func (b *Buffer) Host() []byte { return b.host }

// UpdateHost copies data into the host copy at byte offset.
func (b *Buffer) UpdateHost(data []byte, offset int) error {
	if offset < 0 || offset+len(data) > len(b.host) {
		return fmt.Errorf("%w: %s: %d+%d > %d", ErrOutOfRange, b.desc.Label, offset, len(data), len(b.host))
	}
	copy(b.host[offset:], data)
	return nil
}

// Flush makes size bytes of the host copy starting at offset visible to the
// device.
func (b *Buffer) Flush(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(b.host) {
		return fmt.Errorf("%w: %s: flush %d+%d > %d", ErrOutOfRange, b.desc.Label, offset, size, len(b.host))
	}
	b.mu.Lock()
	copy(b.device[offset:offset+size], b.host[offset:offset+size])
	b.mu.Unlock()
	return nil
}

// UpdateDeviceAndHost writes data to both copies at once.
func (b *Buffer) UpdateDeviceAndHost(data []byte, offset int) error {
	if err := b.UpdateHost(data, offset); err != nil {
		return err
	}
	return b.Flush(offset, len(data))
}

// ReadDevice calls fn with the device contents. fn must not retain the slice.
func (b *Buffer) ReadDevice(fn func(data []byte)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.device)
}
