package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Region is a registered region or a hyperlink to a region on another grid.
type Region struct {
	RegionID   uuid.UUID `db:"region_id" yaml:"-"`
	RegionName string    `db:"region_name" yaml:"name"`
	LocX       int       `db:"loc_x" yaml:"x"`
	LocY       int       `db:"loc_y" yaml:"y"`
	SizeX      int       `db:"size_x" yaml:"-"`
	SizeY      int       `db:"size_y" yaml:"-"`
	ServerURI  string    `db:"server_uri" yaml:"uri"`
	OwnerID    uuid.UUID `db:"owner_id" yaml:"-"`
	Flags      int       `db:"flags" yaml:"-"`
	LastSeen   int64     `db:"last_seen" yaml:"-"`
}

// GridX returns the grid coordinate of the region in 256m cells.
func (r *Region) GridX() int { return r.LocX / 256 }

// GridY returns the grid coordinate of the region in 256m cells.
func (r *Region) GridY() int { return r.LocY / 256 }

// Location formats the grid coordinates as "x,y".
func (r *Region) Location() string {
	return fmt.Sprintf("%d,%d", r.GridX(), r.GridY())
}

// Group is a grid group.
type Group struct {
	GroupID        uuid.UUID `db:"group_id"`
	Name           string    `db:"name" yaml:"name"`
	Charter        string    `db:"charter" yaml:"charter"`
	FounderID      uuid.UUID `db:"founder_id" yaml:"-"`
	ShowInList     bool      `db:"show_in_list" yaml:"-"`
	OpenEnrollment bool      `db:"open_enrollment" yaml:"open"`
	MemberCount    int       `db:"member_count" yaml:"-"`
}

// GroupMember is a membership row.
type GroupMember struct {
	GroupID     uuid.UUID `db:"group_id"`
	PrincipalID string    `db:"principal_id"`
	Title       string    `db:"title"`
}

// InventoryFolder is a node in a user's inventory tree.
type InventoryFolder struct {
	FolderID uuid.UUID `db:"folder_id"`
	ParentID uuid.UUID `db:"parent_id"`
	OwnerID  uuid.UUID `db:"owner_id"`
	Name     string    `db:"name"`
	Type     int       `db:"type"`
	Version  int       `db:"version"`
}

// InventoryItem is a leaf of a user's inventory.
type InventoryItem struct {
	ItemID      uuid.UUID `db:"item_id"`
	FolderID    uuid.UUID `db:"folder_id"`
	OwnerID     uuid.UUID `db:"owner_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	AssetID     uuid.UUID `db:"asset_id"`
	AssetType   int       `db:"asset_type"`
	InvType     int       `db:"inv_type"`
	Created     int64     `db:"created"`
}

// FolderContent is the direct children of a folder.
type FolderContent struct {
	Folder  *InventoryFolder
	Folders []*InventoryFolder
	Items   []*InventoryItem
}

// Asset is a stored asset blob. Only image assets are consumed here.
type Asset struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Type        int       `db:"asset_type"`
	ContentType string    `db:"content_type"`
	Data        []byte    `db:"data"`
}
