package mask

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Snapshot compression. Masks are near-uniform byte runs, so zstd shrinks
// them far below the raw voxel count; pooled coders keep repeated snapshots
// allocation-cheap during interactive editing.

var encPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var decPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

func encodeBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	enc := encPool.Get().(*zstd.Encoder)
	enc.Reset(&buf)

	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		encPool.Put(enc)
		return nil, err
	}
	if err := enc.Close(); err != nil {
		encPool.Put(enc)
		return nil, err
	}

	encPool.Put(enc)
	return buf.Bytes(), nil
}

func decodeBytes(data []byte, expectedLen int) ([]byte, error) {
	dec := decPool.Get().(*zstd.Decoder)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		decPool.Put(dec)
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(dec); err != nil {
		decPool.Put(dec)
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	decPool.Put(dec)

	if out.Len() != expectedLen {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d",
			ErrCorruptSnapshot, out.Len(), expectedLen)
	}
	return out.Bytes(), nil
}
