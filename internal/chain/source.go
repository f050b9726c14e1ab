package chain

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"optionchain-trader/internal/errors"
)

// FileSource serves payloads from a single JSON file on disk. An external
// fetcher refreshes the file; every call re-reads it, so the poll loop sees
// updates without restarting.
type FileSource struct {
	Path string
}

// Snapshot reads and decodes the payload file. The symbol argument is
// ignored; the file is assumed to hold the chain for the requested index.
func (f *FileSource) Snapshot(ctx context.Context, symbol string) (*Payload, error) {
	return readPayload(f.Path, symbol)
}

// DirSource serves payloads from per-symbol files in a directory, looked up
// as <dir>/<symbol>.json.
type DirSource struct {
	Dir string
}

// Snapshot reads and decodes the symbol's payload file.
func (d *DirSource) Snapshot(ctx context.Context, symbol string) (*Payload, error) {
	return readPayload(filepath.Join(d.Dir, symbol+".json"), symbol)
}

func readPayload(path, symbol string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDataError("option-chain", symbol, "read payload file", err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.NewDataError("option-chain", symbol, "invalid JSON", errors.ErrMalformedSnapshot)
	}
	return &payload, nil
}
