package storage

import (
	"io"
)

// FileInfo carries upload metadata alongside the image bytes.
type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage archives ingested images on disk or elsewhere.
type Storage interface {
	SaveFile(data []byte, info FileInfo) (string, error)
	OpenFile(path string) (io.ReadSeekCloser, error)
	DeleteFile(path string) error
}
