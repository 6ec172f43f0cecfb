// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"errors"
	"fmt"
)

// Sentinel errors for dbpf operations. Use errors.Is in callers.
var (
	// ErrClosed means the reader is already closed; returned (wrapped in an
	// IoError) by ReadEntry once Close has run.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrEntryNotFound means no index entry matched the requested key or label.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrLabelNotFound means the catalog has no mask for the requested label.
	ErrLabelNotFound = errors.New("label not found in catalog")
	// ErrDirectoryRecordSize means a directory record is not the fixed 16-byte size.
	ErrDirectoryRecordSize = errors.New("unsupported directory record size")
	// ErrUnsupportedIndexType means indexType in the envelope is not 7.
	ErrUnsupportedIndexType = errors.New("unsupported index type")
	// ErrUnsupportedVersion means the envelope major/minor version is not 1.0.
	ErrUnsupportedVersion = errors.New("unsupported archive version")
)

// BoundsError reports a Byte Reader operation that would cross a buffer end.
// It carries the same triple the original reference implementation's
// SafeSpanReader reports: requested length, current offset, bytes remaining.
type BoundsError struct {
	Op        string
	Requested int
	Offset    int
	Remaining int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("dbpf: %s: need %d bytes at offset %d, but only %d bytes remain",
		e.Op, e.Requested, e.Offset, e.Remaining)
}

// FormatError reports a structural violation: bad magic, unsupported
// version, unknown value type, malformed control opcode.
type FormatError struct {
	Context string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dbpf: format error in %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("dbpf: format error in %s", e.Context)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NewFormatError builds a FormatError wrapping a formatted message.
func NewFormatError(context, format string, args ...any) *FormatError {
	return &FormatError{Context: context, Err: fmt.Errorf(format, args...)}
}

// DomainError reports a value outside its declared range: an enum out of
// range, a hex literal exceeding its signed declared width.
type DomainError struct {
	Context string
	Value   any
	Err     error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("dbpf: domain error in %s: value %v: %v", e.Context, e.Value, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError builds a DomainError wrapping a formatted message.
func NewDomainError(context string, value any, format string, args ...any) *DomainError {
	return &DomainError{Context: context, Value: value, Err: fmt.Errorf(format, args...)}
}

// IoError reports a file open, stat, mmap, or read failure.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("dbpf: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("dbpf: %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup by key or label that produced no match.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dbpf: not found: %s", e.Query)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrEntryNotFound || target == ErrLabelNotFound
}
