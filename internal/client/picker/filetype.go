package picker

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
	FileTypeOther = "other"
)

// FileType maps a media type to the preview label.
func FileType(mediaType string) string {
	mt := strings.ToLower(mediaType)
	switch {
	case strings.Contains(mt, "image"):
		return FileTypeImage
	case strings.Contains(mt, "video"):
		return FileTypeVideo
	default:
		return FileTypeOther
	}
}

// DetectMediaType sniffs the media type of the file at path, without
// parameters such as charset.
func DetectMediaType(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	mt, _, _ := strings.Cut(m.String(), ";")
	return mt, nil
}
