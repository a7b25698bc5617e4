// Package seisio reads multi-channel seismic waveform files. It lists
// directories by recognized extension and dispatches files to a per-format
// decoder.
package seisio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Trace is one channel of a recorded stream.
type Trace struct {
	StartTime    time.Time
	SamplingRate float64 // Hz
	Data         []float64
}

// Stream is the ordered set of channels read from one file.
type Stream []Trace

// Formats lists the recognized waveform file extensions (lower case, no dot).
var Formats = []string{"miniseed", "mseed", "reftek", "sac", "seg2", "sg2", "segy", "sgy", "su"}

// DecodeFunc turns raw file contents into a Stream.
type DecodeFunc func(data []byte) (Stream, error)

var decoders = map[string]DecodeFunc{
	"sac":  decodeSAC,
	"segy": decodeSEGY,
	"sgy":  decodeSEGY,
	"su":   decodeSU,
}

// Register installs a decoder for a format name from Formats, so callers can
// plug in readers for formats this package does not decode itself (miniseed,
// reftek, seg2).
func Register(format string, fn DecodeFunc) {
	decoders[strings.ToLower(format)] = fn
}

// FormatOK reports whether the file's extension is a recognized waveform
// format, case-insensitive.
func FormatOK(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, f := range Formats {
		if ext == f {
			return true
		}
	}
	return false
}

// ReadDir returns the names of the compatible regular files in dirname in
// lexicographic order. An empty result is not an error here; the caller
// decides what an empty directory means.
func ReadDir(dirname string) ([]string, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dirname, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !FormatOK(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile reads and decodes one waveform file, dispatching on its extension.
func ReadFile(path string) (Stream, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	dec, ok := decoders[ext]
	if !ok {
		if FormatOK(path) {
			return nil, fmt.Errorf("read %s: no decoder registered for format %q", path, ext)
		}
		return nil, fmt.Errorf("read %s: unrecognized format %q", path, ext)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	st, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return st, nil
}
