package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"pasfront/internal/names"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
)

// Digest is a SHA-256 value.
type Digest [32]byte

// combineDigest: H(content || dep1 || dep2 ...). deps are already in a
// deterministic order.
func combineDigest(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// optionsDigest fingerprints everything besides the file content that
// changes a preprocessed stream.
func optionsDigest(o *Options) Digest {
	h := sha256.New()
	writeString := func(s string) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(s))
	}
	writeString(o.Target.Toolchain.String())
	writeString(o.Target.Version.Symbol())

	defines := make([]string, len(o.Defines))
	for i, d := range o.Defines {
		defines[i] = names.Key(d)
	}
	sort.Strings(defines)
	for _, d := range defines {
		writeString(d)
	}
	writeString("--include")
	for _, p := range o.IncludePath {
		writeString(p)
	}
	writeString("--constants")
	keys := make([]string, 0, len(o.Constants))
	for k := range o.Constants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeString(k)
		v := o.Constants[k]
		writeString(fmt.Sprintf("%d:%s", v.Kind, v))
	}
	depth := o.IncludeDepth
	if depth <= 0 {
		depth = preprocess.DefaultIncludeDepth
	}
	var d [8]byte
	binary.LittleEndian.PutUint64(d[:], uint64(depth))
	_, _ = h.Write(d[:])

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey addresses the stream of file under o.
func cacheKey(file *source.File, o *Options) Digest {
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	path := sha256.Sum256(append(schema[:], file.Path...))
	return combineDigest(Digest(file.Hash), Digest(path), optionsDigest(o))
}
