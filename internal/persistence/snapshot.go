package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/idle-realm/internal/state"
)

// SnapshotHeader is the first line of an exported snapshot.
type SnapshotHeader struct {
	Version int    `json:"version"`
	Slot    string `json:"slot"`
	SavedAt int64  `json:"saved_at"`
}

// WriteSnapshot exports a blob to a zstd file: a JSON header line followed by
// the JSON blob.
func WriteSnapshot(path string, hdr SnapshotHeader, b state.Blob) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(hdr)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(b); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadSnapshot reads a file written by WriteSnapshot. The blob is returned as
// a raw JSON value for the schema layer to shape.
func ReadSnapshot(path string) (SnapshotHeader, any, error) {
	var hdr SnapshotHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("decode snapshot header: %w", err)
	}

	var v any
	if err := json.NewDecoder(br).Decode(&v); err != nil {
		return hdr, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return hdr, v, nil
}
