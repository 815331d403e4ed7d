// Package boxio reads and writes frame files: flat sequences of fixed-size
// little-endian box records.
//
// Record layout (32 bytes, 8 x IEEE-754 float32):
//
//	x, y, z, dx, dy, dz, heading, class
package boxio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/bev-grader/internal/bev"
	"github.com/banshee-data/bev-grader/internal/fsutil"
)

const (
	// FieldCount is the number of float32 fields per record.
	FieldCount = 8
	// RecordSize is the size in bytes of one box record.
	RecordSize = FieldCount * 4
)

// ErrRecordSize is returned when a buffer is not a whole number of records.
var ErrRecordSize = errors.New("frame data is not a multiple of the record size")

// Decode parses a frame buffer into boxes, preserving file order. An empty
// buffer is a valid frame with no boxes.
func Decode(data []byte) ([]bev.OrientedBox, error) {
	if rem := len(data) % RecordSize; rem != 0 {
		return nil, fmt.Errorf("%w: %d bytes (%d trailing)", ErrRecordSize, len(data), rem)
	}

	n := len(data) / RecordSize
	boxes := make([]bev.OrientedBox, n)
	for i := range boxes {
		var f [FieldCount]float32
		rec := data[i*RecordSize : (i+1)*RecordSize]
		for j := range f {
			f[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[j*4:]))
		}
		boxes[i] = FromFields(f)
	}
	return boxes, nil
}

// Encode serialises boxes into the record layout.
func Encode(boxes []bev.OrientedBox) []byte {
	out := make([]byte, len(boxes)*RecordSize)
	for i, b := range boxes {
		f := Fields(b)
		rec := out[i*RecordSize:]
		for j, v := range f {
			binary.LittleEndian.PutUint32(rec[j*4:], math.Float32bits(v))
		}
	}
	return out
}

// Fields returns the box as its raw record fields.
func Fields(b bev.OrientedBox) [FieldCount]float32 {
	return [FieldCount]float32{b.X, b.Y, b.Z, b.DX, b.DY, b.DZ, b.Heading, b.Class}
}

// FromFields builds a box from raw record fields.
func FromFields(f [FieldCount]float32) bev.OrientedBox {
	return bev.OrientedBox{
		X:       f[0],
		Y:       f[1],
		Z:       f[2],
		DX:      f[3],
		DY:      f[4],
		DZ:      f[5],
		Heading: f[6],
		Class:   f[7],
	}
}

// ReadFile loads and decodes one frame file.
func ReadFile(fs fsutil.FileSystem, path string) ([]bev.OrientedBox, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	boxes, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return boxes, nil
}

// WriteFile encodes boxes and writes them to path.
func WriteFile(fs fsutil.FileSystem, path string, boxes []bev.OrientedBox) error {
	return fs.WriteFile(path, Encode(boxes), 0o644)
}
