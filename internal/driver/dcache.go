package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/token"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores preprocessed token streams keyed by content and
// options. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached stream. Files[0] is the unit itself; tokens
// refer to files by index.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path     string
	Files    []CachedFile
	Tokens   []CachedToken
	Marks    []preprocess.Mark
	Includes []preprocess.Include
	Defines  []string
}

// CachedFile is a file a stream was built from.
type CachedFile struct {
	Path string
	Hash [32]byte
}

// CachedToken is a token.Token with its file replaced by an index into
// DiskPayload.Files.
type CachedToken struct {
	Kind   token.Kind
	Text   string
	File   int
	Start  uint32
	End    uint32
	Line   uint32
	Col    uint32
	Flags  token.Flags
	Origin *token.Insertion `msgpack:",omitempty"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "tokens", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A payload of
// another schema is a miss.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", f.Name(), err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// resultToPayload flattens res. Streams that carry $LIBPREFIX-style
// parameters are not cached.
func resultToPayload(res *preprocess.Result, fs *source.FileSet) (*DiskPayload, bool) {
	if res == nil || len(res.Parameters) > 0 {
		return nil, false
	}
	payload := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		Path:     res.File.Path,
		Files:    []CachedFile{{Path: res.File.Path, Hash: res.File.Hash}},
		Tokens:   make([]CachedToken, len(res.Tokens)),
		Marks:    res.Switches.Marks(),
		Includes: res.Includes,
		Defines:  res.Defines,
	}
	index := map[source.FileID]int{res.File.ID: 0}
	for i, tok := range res.Tokens {
		fi, ok := index[tok.Span.File]
		if !ok {
			f := fs.Get(tok.Span.File)
			fi = len(payload.Files)
			payload.Files = append(payload.Files, CachedFile{Path: f.Path, Hash: f.Hash})
			index[tok.Span.File] = fi
		}
		payload.Tokens[i] = CachedToken{
			Kind:   tok.Kind,
			Text:   tok.Text,
			File:   fi,
			Start:  tok.Span.Start,
			End:    tok.Span.End,
			Line:   tok.Line,
			Col:    tok.Col,
			Flags:  tok.Flags,
			Origin: tok.Origin,
		}
	}
	return payload, true
}

// payloadToResult rebuilds a stream for file. Every other file the stream
// was built from is loaded into fs and must still have its recorded hash.
func payloadToResult(payload *DiskPayload, file *source.File, fs *source.FileSet) (*preprocess.Result, bool) {
	if payload == nil || payload.Schema != diskCacheSchemaVersion || len(payload.Files) == 0 {
		return nil, false
	}
	if payload.Files[0].Hash != file.Hash {
		return nil, false
	}
	ids := make([]source.FileID, len(payload.Files))
	ids[0] = file.ID
	for i := 1; i < len(payload.Files); i++ {
		cf := payload.Files[i]
		f, ok := fs.GetByPath(cf.Path)
		if !ok {
			id, err := fs.LoadWithFlags(cf.Path, source.FileInclude)
			if err != nil {
				return nil, false
			}
			f = fs.Get(id)
		}
		if f.Hash != cf.Hash {
			return nil, false
		}
		ids[i] = f.ID
	}
	for _, inc := range payload.Includes {
		if f, ok := fs.GetByPath(inc.Path); !ok || f.Hash != inc.Hash {
			return nil, false
		}
	}

	origins := map[token.Insertion]*token.Insertion{}
	tokens := make([]token.Token, len(payload.Tokens))
	for i, ct := range payload.Tokens {
		if ct.File < 0 || ct.File >= len(ids) {
			return nil, false
		}
		var origin *token.Insertion
		if ct.Origin != nil {
			origin = origins[*ct.Origin]
			if origin == nil {
				origin = ct.Origin
				origins[*ct.Origin] = origin
			}
		}
		tokens[i] = token.Token{
			Kind:   ct.Kind,
			Text:   ct.Text,
			Span:   source.Span{File: ids[ct.File], Start: ct.Start, End: ct.End},
			Line:   ct.Line,
			Col:    ct.Col,
			Index:  i,
			Flags:  ct.Flags,
			Origin: origin,
		}
	}
	return &preprocess.Result{
		File:     file,
		Tokens:   tokens,
		Switches: preprocess.RestoreSwitches(payload.Marks, len(tokens)-1),
		Includes: payload.Includes,
		Defines:  payload.Defines,
	}, true
}
