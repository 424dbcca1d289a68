// Package manifest parses and persists the tab-separated download
// manifests produced by the portal's manifest endpoint.
package manifest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one downloadable file listed in a manifest.
type Entry struct {
	FileID        string
	ObjectURL     string
	FileName      string
	FileSizeBytes int64
	DataCategory  string
}

// Required manifest columns. Extra columns are ignored so the portal
// can extend the format without breaking older clients.
const (
	colFileID    = "file_id"
	colObjectURL = "object_url"
	colFileName  = "file_name"
	colFileSize  = "file_size_bytes"
	colCategory  = "data_category"
)

// Parse reads a tab-separated manifest blob. The first row is the
// header; column order is not fixed.
func Parse(blob []byte) ([]Entry, error) {
	r := csv.NewReader(bytes.NewReader(blob))
	r.Comma = '\t'
	r.FieldsPerRecord = -1 // header decides; rows are checked below

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("manifest is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{colFileID, colObjectURL, colFileName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("manifest missing required column %q", required)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", line, err)
		}

		entry := Entry{
			FileID:       field(record, cols, colFileID),
			ObjectURL:    field(record, cols, colObjectURL),
			FileName:     field(record, cols, colFileName),
			DataCategory: field(record, cols, colCategory),
		}
		if entry.FileID == "" || entry.ObjectURL == "" {
			return nil, fmt.Errorf("manifest line %d: missing file id or object url", line)
		}
		if raw := field(record, cols, colFileSize); raw != "" {
			size, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("manifest line %d: bad file size %q", line, raw)
			}
			entry.FileSizeBytes = size
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Save writes the raw manifest blob atomically via a temp file rename.
func Save(path string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, blob, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// Load reads and parses a manifest file from disk.
func Load(path string) ([]Entry, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Parse(blob)
}

// TotalSize sums the declared sizes of all entries.
func TotalSize(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.FileSizeBytes
	}
	return total
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
