package source

type (
	// FileID identifies one file version within a FileSet.
	FileID uint32
	// FileFlags records how a file was obtained and normalized.
	FileFlags uint8
)

const (
	FileVirtual        FileFlags = 1 << iota // added from memory
	FileHadBOM                               // a byte order mark was stripped
	FileNormalizedCRLF                       // CRLF line ends became LF
	FileInclude                              // loaded through {$I}
	FileUTF16                                // decoded from UTF-16
)

// File is one immutable version of a source file. Content is UTF-8 with
// LF line ends.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Hash    [32]byte
	Flags   FileFlags

	lineStarts []uint32
}

// LineCol is a position for humans: both parts are 1-based and the column
// counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}
