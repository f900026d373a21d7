package source

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	crlf       = []byte("\r\n")
	lf         = []byte("\n")
)

// decode turns raw file bytes into UTF-8 with LF line ends. Delphi saves
// sources as UTF-8 with or without a BOM, or as UTF-16 with a BOM.
func decode(raw []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		raw = raw[len(bomUTF8):]
		flags |= FileHadBOM
	case bytes.HasPrefix(raw, bomUTF16LE), bytes.HasPrefix(raw, bomUTF16BE):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return nil, 0, err
		}
		raw = out
		flags |= FileHadBOM | FileUTF16
	}
	if bytes.Contains(raw, crlf) {
		raw = bytes.ReplaceAll(raw, crlf, lf)
		flags |= FileNormalizedCRLF
	}
	return raw, flags, nil
}

// lineStarts returns the offset of the first byte of every line.
func lineStarts(content []byte) []uint32 {
	starts := make([]uint32, 1, bytes.Count(content, lf)+1)
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return starts
		}
		off += i + 1
		starts = append(starts, uint32(off)) // #nosec G115 -- Add rejects files over 4 GiB
	}
}

// NormalizePath gives paths one spelling across platforms.
func NormalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// BaseName returns the file name of p without directory and extension.
func BaseName(p string) string {
	base := filepath.Base(filepath.FromSlash(p))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
