package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SerializeIndex encodes an Index to bytes using gob encoding.
// This is useful for disk-based caching to avoid re-parsing GTFS static data.
func SerializeIndex(index *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeIndexToWriter(index, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeIndex decodes an Index from bytes using gob encoding.
func DeserializeIndex(data []byte) (*Index, error) {
	return DeserializeIndexFromReader(bytes.NewReader(data))
}

// SerializeIndexToFile writes an Index to a file using gob encoding.
func SerializeIndexToFile(index *Index, filepath string) error {
	data, err := SerializeIndex(index)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// DeserializeIndexFromFile reads an Index from a file using gob encoding.
//
// Example:
//
//	index, err := gtfs.DeserializeIndexFromFile("/cache/gtfs-index.gob")
//	if err != nil {
//	    // Cache miss or corrupted, parse the zip again
//	    index, _ = gtfs.NewIndexFromZip("/data/gtfs.zip")
//	}
func DeserializeIndexFromFile(filepath string) (*Index, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeIndex(data)
}

// SerializeIndexToWriter writes an Index to an io.Writer using gob encoding.
func SerializeIndexToWriter(index *Index, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(index); err != nil {
		return fmt.Errorf("failed to encode Index: %w", err)
	}
	return nil
}

// DeserializeIndexFromReader reads an Index from an io.Reader using gob encoding.
func DeserializeIndexFromReader(r io.Reader) (*Index, error) {
	var index Index
	if err := gob.NewDecoder(r).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode Index: %w", err)
	}
	return &index, nil
}

// LoadIndex parses zipPath, going through the gob cache at cachePath when it is
// set. A cache file older than the zip is ignored and rewritten.
func LoadIndex(zipPath, cachePath string) (*Index, error) {
	if cachePath != "" && cacheFresh(zipPath, cachePath) {
		idx, err := DeserializeIndexFromFile(cachePath)
		if err == nil {
			slog.Debug("loaded GTFS index from cache", "path", cachePath)
			return idx, nil
		}
		slog.Warn("ignoring unreadable GTFS index cache", "path", cachePath, "error", err)
	}

	idx, err := NewIndexFromZip(zipPath)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		if err := SerializeIndexToFile(idx, cachePath); err != nil {
			slog.Warn("failed to write GTFS index cache", "path", cachePath, "error", err)
		}
	}
	return idx, nil
}

func cacheFresh(zipPath, cachePath string) bool {
	c, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	z, err := os.Stat(zipPath)
	if err != nil {
		// zip gone; the cache is all we have
		return true
	}
	return !c.ModTime().Before(z.ModTime())
}
