package render

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"

	"lumen/internal/asset"
	"lumen/internal/gpu"
)

const (
	instanceUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	uniformUsage  = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	storageUsage  = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
)

// identity hashes a pipeline and the asset ids a batch draws with.
func identity(p gpu.Pipeline, ids ...asset.ID) uint64 {
	d := xxhash.New()
	d.WriteString(string(p))
	var b [4]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint32(b[:], uint32(id))
		d.Write(b[:])
	}
	return d.Sum64()
}
