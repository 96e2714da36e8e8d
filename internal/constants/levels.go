package constants

import "time"

// User levels as stored on grid accounts.
const (
	UserLevelPending      = -1
	UserLevelDefault      = 0
	DefaultAdminUserLevel = 200
	DefaultHyperlinkLevel = 0
)

// Inventory folder types used by the grid.
const (
	FolderTypeNone      = -1
	FolderTypeTexture   = 0
	FolderTypeClothing  = 5
	FolderTypeObject    = 6
	FolderTypeBodyPart  = 13
	FolderTypeTrash     = 14
	FolderTypeRoot      = 8
	FolderTypeLostFound = 16
)

// Region flags.
const (
	RegionFlagHyperlink = 1 << 9
)

// RemoteAdminTimeout bounds simulator XML-RPC calls (shutdown, restart, broadcast).
const RemoteAdminTimeout = 10 * time.Second

// RecoveryTokenLifetime is how long a password recovery link stays valid.
const RecoveryTokenLifetime = time.Hour
