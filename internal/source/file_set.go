package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"slices"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns every file loaded during one run: units, include files and
// virtual buffers. Parallel workers share it, so all access is locked.
type FileSet struct {
	mu     sync.RWMutex
	files  []*File
	latest map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{files: make([]*File, 0, 16), latest: make(map[string]FileID)}
}

// Add stores already decoded content under a fresh FileID. Adding a path
// again creates a new version; lookups by path see the newest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("%s: file too large: %w", path, err))
	}
	f := &File{
		Path:       NormalizePath(path),
		Content:    content,
		Hash:       sha256.Sum256(content),
		Flags:      flags,
		lineStarts: lineStarts(content),
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	f.ID = FileID(n)
	fs.files = append(fs.files, f)
	fs.latest[f.Path] = f.ID
	return f.ID
}

// Load reads and decodes a file from disk.
func (fs *FileSet) Load(path string) (FileID, error) {
	return fs.LoadWithFlags(path, 0)
}

// LoadWithFlags is Load with extra flags such as FileInclude.
func (fs *FileSet) LoadWithFlags(path string, extra FileFlags) (FileID, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return 0, err
	}
	content, flags, err := decode(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return fs.Add(path, content, flags|extra), nil
}

// AddVirtual adds an in-memory file. Undecodable input is kept as is.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	if decoded, flags, err := decode(content); err == nil {
		return fs.Add(name, decoded, flags|FileVirtual)
	}
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for id.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.files[id]
}

// Len returns the number of stored file versions.
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// GetLatest returns the newest FileID stored under path.
func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.latest[NormalizePath(path)]
	return id, ok
}

// GetByPath returns the newest file stored under path.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if id, ok := fs.latest[NormalizePath(path)]; ok {
		return fs.files[id], true
	}
	return nil, false
}

// Resolve converts both ends of span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	return f.Position(span.Start), f.Position(span.End)
}

// LineCount returns the number of lines; a trailing newline opens an
// empty last line.
func (f *File) LineCount() int { return len(f.lineStarts) }

// Position converts a byte offset into a line and column.
func (f *File) Position(off uint32) LineCol {
	i, found := slices.BinarySearch(f.lineStarts, off)
	if !found {
		i--
	}
	line := uint32(i + 1) // #nosec G115 -- bounded by the content length
	return LineCol{Line: line, Col: off - f.lineStarts[i] + 1}
}

// GetLine returns line n (1-based) without its terminator, or "" when the
// file has no such line.
func (f *File) GetLine(n uint32) string {
	if n == 0 || int(n) > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	if int(n) < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	return string(f.Content[start:end])
}
