// Package mapleio is the boundary spec.md section 1 calls "out of scope"
// made concrete for a runnable CLI: reading the MAPLE diff format and a
// reference sequence, and writing the finished tree and run diagnostics
// back out.
package mapleio

import "errors"

var (
	// ErrInvalidFile marks an I/O failure or structurally malformed input
	// file (wrong number of records, unreadable path).
	ErrInvalidFile = errors.New("invalid file")
	// ErrInvalidFormat marks a line that parses but violates the MAPLE diff
	// grammar (unrecognized mutation code, bad integer field).
	ErrInvalidFormat = errors.New("invalid format")
	// ErrWritingFile marks a failure while serializing output.
	ErrWritingFile = errors.New("error writing file")
)
