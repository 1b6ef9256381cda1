package content

import (
	"chatsync/internal/models"

	"github.com/h2non/filetype"
)

// FileInfo is metadata derived from a file payload.
type FileInfo struct {
	Ext      string
	MimeType string
	Kind     models.FileKind
}

const fallbackMime = "application/octet-stream"

// DetectFile sniffs the payload magic numbers. Unknown payloads are reported as
// generic files with an empty extension.
func DetectFile(data []byte) FileInfo {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return FileInfo{MimeType: fallbackMime, Kind: models.FileKindFile}
	}

	info := FileInfo{
		Ext:      kind.Extension,
		MimeType: kind.MIME.Value,
		Kind:     models.FileKindFile,
	}
	switch kind.MIME.Type {
	case "image":
		info.Kind = models.FileKindImage
	case "video":
		info.Kind = models.FileKindVideo
	case "audio":
		info.Kind = models.FileKindAudio
	}
	return info
}

// Describe fills the metadata fields of f from its payload.
func Describe(f models.File) models.File {
	info := DetectFile(f.Data)
	f.Ext = info.Ext
	f.MimeType = info.MimeType
	f.Kind = info.Kind
	return f
}
