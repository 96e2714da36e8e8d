// Package grid declares the upstream grid data services the panel drives:
// accounts, authentication, regions, inventory, groups, presence, grid users
// and assets. The repository package provides SQL implementations.
package grid

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAuthFailed is returned by Authenticate for an unknown principal or a
// wrong password. The two cases are not distinguished.
var ErrAuthFailed = errors.New("authentication failed")

// ErrConflict is returned when a create would duplicate a unique record.
var ErrConflict = errors.New("already exists")

// UserAccountService manages grid user accounts.
type UserAccountService interface {
	GetUserAccount(ctx context.Context, id uuid.UUID) (*models.UserAccount, error)
	GetUserAccountByName(ctx context.Context, first, last string) (*models.UserAccount, error)
	GetUserAccountByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	// SearchUserAccounts matches query against first name, last name and
	// email. An empty query lists every account.
	SearchUserAccounts(ctx context.Context, query string) ([]*models.UserAccount, error)
	StoreUserAccount(ctx context.Context, acc *models.UserAccount) error
	DeleteUserAccount(ctx context.Context, id uuid.UUID) error
	CountUserAccounts(ctx context.Context) (int, error)
}

// AuthenticationService verifies and sets passwords.
type AuthenticationService interface {
	// Authenticate returns an opaque token valid for lifetime.
	Authenticate(ctx context.Context, principalID uuid.UUID, password string, lifetime time.Duration) (string, error)
	SetPassword(ctx context.Context, principalID uuid.UUID, password string) error
	GetAuthInfo(ctx context.Context, principalID uuid.UUID) (*models.Auth, error)
	DeleteAuth(ctx context.Context, principalID uuid.UUID) error
}

// GridService manages regions and hyperlinks.
type GridService interface {
	GetRegions(ctx context.Context) ([]*models.Region, error)
	GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error)
	GetRegionByName(ctx context.Context, name string) (*models.Region, error)
	GetHyperlinks(ctx context.Context) ([]*models.Region, error)
	RegisterRegion(ctx context.Context, r *models.Region) error
	DeregisterRegion(ctx context.Context, id uuid.UUID) error
}

// InventoryService manages user inventories.
type InventoryService interface {
	CreateUserInventory(ctx context.Context, owner uuid.UUID) error
	GetRootFolder(ctx context.Context, owner uuid.UUID) (*models.InventoryFolder, error)
	GetFolderForType(ctx context.Context, owner uuid.UUID, folderType int) (*models.InventoryFolder, error)
	GetFolder(ctx context.Context, id uuid.UUID) (*models.InventoryFolder, error)
	GetFolderContent(ctx context.Context, owner, folderID uuid.UUID) (*models.FolderContent, error)
	GetInventorySkeleton(ctx context.Context, owner uuid.UUID) ([]*models.InventoryFolder, error)
	AddFolder(ctx context.Context, f *models.InventoryFolder) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	AddItem(ctx context.Context, item *models.InventoryItem) error
	MoveItems(ctx context.Context, owner uuid.UUID, itemIDs []uuid.UUID, folderID uuid.UUID) error
	DeleteInventory(ctx context.Context, owner uuid.UUID) error
}

// GroupsService manages groups and memberships.
type GroupsService interface {
	ListGroups(ctx context.Context, query string) ([]*models.Group, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	CreateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]*models.GroupMember, error)
	AddMember(ctx context.Context, groupID uuid.UUID, principalID string) error
	RemoveMember(ctx context.Context, groupID uuid.UUID, principalID string) error
	RemoveMemberships(ctx context.Context, principalID string) error
}

// PresenceService tracks viewer sessions.
type PresenceService interface {
	GetAgentBySession(ctx context.Context, sessionID uuid.UUID) (*models.PresenceInfo, error)
	GetAgents(ctx context.Context, userIDs []string) ([]*models.PresenceInfo, error)
	CountOnline(ctx context.Context) (int, error)
}

// GridUserService tracks per-user grid state.
type GridUserService interface {
	GetGridUserInfo(ctx context.Context, userID string) (*models.GridUserInfo, error)
	GetGridUserInfos(ctx context.Context, userIDs []string) ([]*models.GridUserInfo, error)
	SetTOSAccepted(ctx context.Context, userID string, accepted bool) error
	DeleteGridUser(ctx context.Context, userID string) error
}

// AssetService reads assets.
type AssetService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Asset, error)
}

// Services bundles the upstream collaborators.
type Services struct {
	Accounts  UserAccountService
	Auth      AuthenticationService
	Grid      GridService
	Inventory InventoryService
	Groups    GroupsService
	Presence  PresenceService
	GridUsers GridUserService
	Assets    AssetService
}
