package bundle

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Blob format: a fixed header followed by the sections in header order.
// Every section is a tightly packed little-endian array in the exact layout
// the GPU buffers expect.
const (
	blobMagic   = "SOLB"
	blobVersion = 1
)

// ErrTooLarge is returned when a section does not fit a uint32 count.
var ErrTooLarge = errors.New("bundle section exceeds uint32 range")

// blobHeader precedes the sections of a serialised bundle.
type blobHeader struct {
	Magic        [4]byte
	Version      uint32
	Mode         uint32
	VertexCount  uint32
	IndexCount   uint32
	PrimCount    uint32
	MeshletCount uint32
	MeshCount    uint32
}

// WriteTo serialises the bundle buffers to w: vertices, indices, packed
// primitives, meshlet details, then per-mesh details.
func (d *TemporaryData) WriteTo(w io.Writer) (int64, error) {
	counts := []int{len(d.Vertices), len(d.Indices), len(d.PrimIndices), len(d.MeshletDetails), d.MeshCount()}
	for _, c := range counts {
		if uint64(c) > uint64(^uint32(0)) {
			return 0, ErrTooLarge
		}
	}

	hdr := blobHeader{
		Version:      blobVersion,
		Mode:         uint32(d.Mode),
		VertexCount:  uint32(len(d.Vertices)),
		IndexCount:   uint32(len(d.Indices)),
		PrimCount:    uint32(len(d.PrimIndices)),
		MeshletCount: uint32(len(d.MeshletDetails)),
		MeshCount:    uint32(d.MeshCount()),
	}
	copy(hdr.Magic[:], blobMagic)

	meshes := any(d.BundleDetails)
	if d.Mode == MeshShader {
		meshes = d.MeshletBundleDetails
	}
	sections := []section{
		{"header", &hdr},
		{"vertices", d.Vertices},
		{"indices", d.Indices},
		{"primitives", d.PrimIndices},
		{"meshlets", d.MeshletDetails},
		{"meshes", meshes},
	}

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	for _, s := range sections {
		if err := binary.Write(cw, binary.LittleEndian, s.data); err != nil {
			return cw.n, fmt.Errorf("writing %s: %w", s.name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("flushing bundle: %w", err)
	}
	return cw.n, nil
}

// BlobSize returns the number of bytes WriteTo produces.
func (d *TemporaryData) BlobSize() int {
	size := binary.Size(blobHeader{}) +
		32*len(d.Vertices) +
		4*len(d.Indices) +
		4*len(d.PrimIndices) +
		40*len(d.MeshletDetails)
	if d.Mode == MeshShader {
		size += 52 * len(d.MeshletBundleDetails)
	} else {
		size += 40 * len(d.BundleDetails)
	}
	return size
}

type section struct {
	name string
	data any
}

// countingWriter counts bytes accepted by the buffered writer. A failed
// Flush can still lose some of them.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
