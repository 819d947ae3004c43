package models

import "time"

// Folder is a namespace owned by exactly one user. (OwnerID, Name) is unique.
type Folder struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// FolderListing is the per-user view of an accessible folder.
type FolderListing struct {
	ID            string
	Name          string
	OwnerUsername string
	Capability    Capability
}
