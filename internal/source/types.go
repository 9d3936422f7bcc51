package source

type (
	// FileID uniquely identifies a declaration file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a declaration file.
	FileFlags uint8
)

// NoFile marks spans of declarations built in memory (tests, config).
const NoFile FileID = 1<<32 - 1

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single declaration file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
