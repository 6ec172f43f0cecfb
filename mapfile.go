// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MappedFile opens a file and serves bounded byte ranges, preferring a
// memory mapping and falling back to a buffered read when mapping fails.
// Grounded on spec.md §4.3; no library in the example pack maps files, so
// the backend (github.com/edsrzf/mmap-go) is named rather than grounded —
// see DESIGN.md.
type MappedFile struct {
	f       *os.File
	size    int64
	mapping mmap.MMap // nil until the first successful MapRange
}

// OpenMappedFile probes the file size and retains the handle. It succeeds
// even if memory mapping later fails, since mapping is attempted lazily
// per range.
func OpenMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Op: "open", Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &IoError{Op: "stat", Path: path, Err: err}
	}

	return &MappedFile{f: f, size: info.Size()}, nil
}

// Size returns the file's total byte length.
func (m *MappedFile) Size() int64 { return m.size }

// MapRange returns exactly length bytes starting at offset, memory-mapped
// when possible, or read into an owned buffer when mapping the whole file
// fails. The call fails if offset+length exceeds the file size.
func (m *MappedFile) MapRange(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > m.size {
		return nil, &IoError{Op: "map range", Path: m.f.Name(),
			Err: fmt.Errorf("range [%d,%d) exceeds file size %d", offset, offset+length, m.size)}
	}

	if m.mapping == nil {
		mapping, err := mmap.Map(m.f, mmap.RDONLY, 0)
		if err == nil {
			m.mapping = mapping
		}
	}

	if m.mapping != nil && offset+length <= int64(len(m.mapping)) {
		return m.mapping[offset : offset+length], nil
	}

	buf := make([]byte, length)
	if _, err := m.f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, &IoError{Op: "read", Path: m.f.Name(), Err: err}
	}
	return buf, nil
}

// Close releases the mapping (if any) and the underlying file handle.
func (m *MappedFile) Close() error {
	var err error
	if m.mapping != nil {
		err = m.mapping.Unmap()
		m.mapping = nil
	}
	if closeErr := m.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
