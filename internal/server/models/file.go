package models

import "time"

// File is metadata for one stored object. The bytes live in object storage
// under StorageKey; the row only records where they are.
type File struct {
	ID         string
	FolderID   string
	Name       string
	Size       int64
	StorageKey string
	CreatedAt  time.Time
}
