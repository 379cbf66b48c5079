package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor implements a pass-through compressor that doesn't compress data.
type NoCompressor struct{}

// Name returns the name of the compressor.
func (c *NoCompressor) Name() string {
	return "none"
}

// Compress returns a copy of the data.
func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Decompress returns a copy of the data.
func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Block modes written in the first byte of an LZ4Compressor frame.
const (
	blockRaw byte = 0
	blockLZ4 byte = 1
)

var ErrCorruptBlock = errors.New("lz4: corrupt block")

// LZ4Compressor implements LZ4 block compression.
// Frames are [mode][uvarint uncompressed length][payload]; data LZ4 cannot
// shrink is stored raw.
type LZ4Compressor struct{}

// Name returns the name of the compressor.
func (c *LZ4Compressor) Name() string {
	return "lz4"
}

// Compress compresses data using LZ4.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, 1, 1+binary.MaxVarintLen64)
	header = binary.AppendUvarint(header, uint64(len(data)))

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	// n == 0 means the input is incompressible
	if n == 0 || n >= len(data) {
		header[0] = blockRaw
		return append(header, data...), nil
	}
	header[0] = blockLZ4
	return append(header, compressed[:n]...), nil
}

// Decompress decompresses LZ4 data.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, ErrCorruptBlock
	}
	size, read := binary.Uvarint(data[1:])
	if read <= 0 {
		return nil, ErrCorruptBlock
	}
	payload := data[1+read:]

	switch data[0] {
	case blockRaw:
		if uint64(len(payload)) != size {
			return nil, ErrCorruptBlock
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case blockLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(n) != size {
			return nil, ErrCorruptBlock
		}
		return out, nil
	default:
		return nil, ErrCorruptBlock
	}
}
