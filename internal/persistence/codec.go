package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/idle-realm/internal/state"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// EncodeBlob serialises a blob as zstd-compressed JSON.
func EncodeBlob(b state.Blob) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode save: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// DecodeBlob reverses EncodeBlob. The result is whatever JSON value was
// stored; shaping it is the schema layer's job.
func DecodeBlob(data []byte) (any, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress save: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	return v, nil
}
