package models

// Capability is the fixed set of rights a user may hold on a folder. A zero
// value means no access. Keeping the three flags as struct fields (rather
// than a dynamic collection) forces callers to state all of them on every
// grant.
type Capability struct {
	Read   bool
	Upload bool
	Delete bool
}

// Empty reports whether the capability set grants nothing.
func (c Capability) Empty() bool {
	return !c.Read && !c.Upload && !c.Delete
}

// FullCapability is the owner self-grant applied at folder creation.
func FullCapability() Capability {
	return Capability{Read: true, Upload: true, Delete: true}
}

// FolderPermission grants a capability set to a (folder, user) pair.
// At most one row exists per pair; absence of a row means no access.
type FolderPermission struct {
	FolderID string
	UserID   string
	Capability
}
