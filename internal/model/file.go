package model

import (
	"time"
)

const CollectionFiles = "files"

// File records a blob accepted by the upload endpoint.
type File struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"` // Who uploaded this file
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	StoragePath  string    `json:"storagePath"`
	CreatedAt    time.Time `json:"createdAt"`
}
