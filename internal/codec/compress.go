package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressor wraps a zstd encoder/decoder pair. EncodeAll and DecodeAll are
// safe for concurrent use, so one pair serves the whole store.
type compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCompressor() (*compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &compressor{enc: enc, dec: dec}, nil
}

func (z *compressor) compress(b []byte) []byte {
	return z.enc.EncodeAll(b, nil)
}

func (z *compressor) decompress(b []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
