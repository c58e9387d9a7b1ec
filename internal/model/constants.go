package model

// BoardPermission is the access level a user holds on a board.
type BoardPermission string

const (
	PermissionOwner  BoardPermission = "owner"
	PermissionEditor BoardPermission = "editor"
	PermissionViewer BoardPermission = "viewer"
)

func (p BoardPermission) String() string {
	return string(p)
}

// Valid reports whether p is one of the three known levels.
func (p BoardPermission) Valid() bool {
	switch p {
	case PermissionOwner, PermissionEditor, PermissionViewer:
		return true
	}
	return false
}

// CanEdit reports whether the permission allows stroke mutations.
func (p BoardPermission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEditor
}

// CanManageShares reports whether the permission allows adding or
// re-leveling non-owner shares.
func (p BoardPermission) CanManageShares() bool {
	return p == PermissionOwner || p == PermissionEditor
}
