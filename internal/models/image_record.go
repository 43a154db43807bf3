package models

import (
	"time"
)

// ImageRecord is the archive row for an ingested image. Its ID matches
// the in-memory image so events and archive entries can be correlated.
type ImageRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Source      string    `json:"source"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewImageRecord(id, filename, contentType, source string, width, height int, size int64) *ImageRecord {
	return &ImageRecord{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Source:      source,
		Width:       width,
		Height:      height,
		Size:        size,
		CreatedAt:   time.Now(),
	}
}
