package session

import "errors"

// Error taxonomy reported to the interactive surface. Every failing
// operation leaves the session state unchanged; none is fatal.
var (
	// ErrInvalidValue reports a malformed or out-of-range argument.
	ErrInvalidValue = errors.New("invalid value")
	// ErrEmptyDirectory reports a directory import that found no
	// compatible waveform files.
	ErrEmptyDirectory = errors.New("directory is empty or contains incompatible files")
	// ErrNoFileSelected reports an operation that needs a loaded file.
	ErrNoFileSelected = errors.New("no event chosen yet")
	// ErrShapeMismatch reports an imported pick set whose length does not
	// match the current file list.
	ErrShapeMismatch = errors.New("picks do not match imported data")
	// ErrNoDataToExport reports an export with nothing picked.
	ErrNoDataToExport = errors.New("no pick to export")
)
