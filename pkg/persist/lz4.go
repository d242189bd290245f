package persist

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Extension is appended after the inner codec's own extension, e.g. ".gob.lz4".
const lz4Extension = ".lz4"

// LZ4Codec wraps an inner Codec and transparently compresses its encoded
// bytes with LZ4. storage.Open wraps the gob codec in it for every
// file_array cell blob, whatever its size.
type LZ4Codec struct {
	inner Codec
}

// NewLZ4Codec wraps inner with LZ4 stream compression.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{inner: inner}
}

// Encode compresses the inner codec's encoding of state as it is written.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.inner.Encode(zw, state)
	if err != nil {
		return fmt.Errorf("lz4 encode: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 flush: %w", err)
	}

	return nil
}

// Decode decompresses the LZ4 stream and decodes it with the inner codec.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	zr := lz4.NewReader(r)

	err := c.inner.Decode(zr, state)
	if err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}

	return nil
}

// Extension returns the inner codec's extension with an additional ".lz4" suffix.
func (c *LZ4Codec) Extension() string {
	return c.inner.Extension() + lz4Extension
}
