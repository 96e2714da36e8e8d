package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

const (
	folderColumns = `folder_id, parent_id, owner_id, name, type, version`
	itemColumns   = `item_id, folder_id, owner_id, name, description, asset_id, asset_type, inv_type, created`
)

// standardFolders are created under the root of every new inventory.
var standardFolders = []struct {
	name string
	kind int
}{
	{"Textures", constants.FolderTypeTexture},
	{"Clothing", constants.FolderTypeClothing},
	{"Objects", constants.FolderTypeObject},
	{"Body Parts", constants.FolderTypeBodyPart},
	{"Lost And Found", constants.FolderTypeLostFound},
	{"Trash", constants.FolderTypeTrash},
}

// InventoryRepository stores inventories in inventoryfolders and
// inventoryitems.
type InventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates an inventory repository.
func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

var _ grid.InventoryService = (*InventoryRepository)(nil)

// CreateUserInventory creates the root and standard folders. It does nothing
// when owner already has a root folder.
func (r *InventoryRepository) CreateUserInventory(ctx context.Context, owner uuid.UUID) error {
	if _, err := r.GetRootFolder(ctx, owner); err == nil {
		return nil
	} else if !errors.Is(err, grid.ErrNotFound) {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	root := &models.InventoryFolder{
		FolderID: uuid.New(),
		ParentID: uuid.Nil,
		OwnerID:  owner,
		Name:     "My Inventory",
		Type:     constants.FolderTypeRoot,
		Version:  1,
	}
	if err := insertFolder(ctx, tx, root); err != nil {
		return err
	}
	for _, sf := range standardFolders {
		f := &models.InventoryFolder{
			FolderID: uuid.New(),
			ParentID: root.FolderID,
			OwnerID:  owner,
			Name:     sf.name,
			Type:     sf.kind,
			Version:  1,
		}
		if err := insertFolder(ctx, tx, f); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertFolder(ctx context.Context, ext sqlx.ExtContext, f *models.InventoryFolder) error {
	_, err := ext.ExecContext(ctx, ext.Rebind(`INSERT INTO inventoryfolders (`+folderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`),
		f.FolderID.String(), f.ParentID.String(), f.OwnerID.String(), f.Name, f.Type, f.Version)
	if err != nil {
		return fmt.Errorf("insert folder %q: %w", f.Name, err)
	}
	return nil
}

// GetRootFolder returns owner's root folder.
func (r *InventoryRepository) GetRootFolder(ctx context.Context, owner uuid.UUID) (*models.InventoryFolder, error) {
	return r.GetFolderForType(ctx, owner, constants.FolderTypeRoot)
}

// GetFolderForType returns owner's system folder of the given type.
func (r *InventoryRepository) GetFolderForType(ctx context.Context, owner uuid.UUID, folderType int) (*models.InventoryFolder, error) {
	var f models.InventoryFolder
	err := r.db.GetContext(ctx, &f, r.db.Rebind(`SELECT `+folderColumns+` FROM inventoryfolders
		WHERE owner_id = ? AND type = ? LIMIT 1`), owner.String(), folderType)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// GetFolder returns a folder by ID.
func (r *InventoryRepository) GetFolder(ctx context.Context, id uuid.UUID) (*models.InventoryFolder, error) {
	var f models.InventoryFolder
	err := r.db.GetContext(ctx, &f, r.db.Rebind(`SELECT `+folderColumns+` FROM inventoryfolders WHERE folder_id = ?`), id.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// GetFolderContent returns the direct children of folderID. A folder owned by
// someone else is reported as not found.
func (r *InventoryRepository) GetFolderContent(ctx context.Context, owner, folderID uuid.UUID) (*models.FolderContent, error) {
	folder, err := r.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != owner {
		return nil, grid.ErrNotFound
	}

	content := &models.FolderContent{Folder: folder}
	if err := r.db.SelectContext(ctx, &content.Folders, r.db.Rebind(`SELECT `+folderColumns+` FROM inventoryfolders
		WHERE parent_id = ? AND owner_id = ? ORDER BY name`), folderID.String(), owner.String()); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	if err := r.db.SelectContext(ctx, &content.Items, r.db.Rebind(`SELECT `+itemColumns+` FROM inventoryitems
		WHERE folder_id = ? AND owner_id = ? ORDER BY name`), folderID.String(), owner.String()); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return content, nil
}

// GetInventorySkeleton lists every folder owner has.
func (r *InventoryRepository) GetInventorySkeleton(ctx context.Context, owner uuid.UUID) ([]*models.InventoryFolder, error) {
	var folders []*models.InventoryFolder
	err := r.db.SelectContext(ctx, &folders, r.db.Rebind(`SELECT `+folderColumns+` FROM inventoryfolders
		WHERE owner_id = ? ORDER BY name`), owner.String())
	if err != nil {
		return nil, fmt.Errorf("get inventory skeleton: %w", err)
	}
	return folders, nil
}

// AddFolder inserts a folder, assigning an ID when none is set.
func (r *InventoryRepository) AddFolder(ctx context.Context, f *models.InventoryFolder) error {
	if f.FolderID == uuid.Nil {
		f.FolderID = uuid.New()
	}
	if f.Version == 0 {
		f.Version = 1
	}
	return insertFolder(ctx, r.db, f)
}

// GetItem returns an item by ID.
func (r *InventoryRepository) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.GetContext(ctx, &item, r.db.Rebind(`SELECT `+itemColumns+` FROM inventoryitems WHERE item_id = ?`), id.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// AddItem inserts an item, assigning an ID and creation time when unset.
func (r *InventoryRepository) AddItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ItemID == uuid.Nil {
		item.ItemID = uuid.New()
	}
	if item.Created == 0 {
		item.Created = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO inventoryitems (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		item.ItemID.String(), item.FolderID.String(), item.OwnerID.String(), item.Name, item.Description,
		item.AssetID.String(), item.AssetType, item.InvType, item.Created)
	if err != nil {
		return fmt.Errorf("insert item %q: %w", item.Name, err)
	}
	return nil
}

// MoveItems reparents owner's items into folderID, which must also belong to
// owner. Items owned by others are left untouched.
func (r *InventoryRepository) MoveItems(ctx context.Context, owner uuid.UUID, itemIDs []uuid.UUID, folderID uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	folder, err := r.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if folder.OwnerID != owner {
		return grid.ErrNotFound
	}

	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = id.String()
	}
	query, args, err := sqlx.In(`UPDATE inventoryitems SET folder_id = ? WHERE owner_id = ? AND item_id IN (?)`,
		folderID.String(), owner.String(), ids)
	if err != nil {
		return fmt.Errorf("build move query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("move items: %w", err)
	}
	return nil
}

// DeleteInventory removes every folder and item owner has.
func (r *InventoryRepository) DeleteInventory(ctx context.Context, owner uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM inventoryitems WHERE owner_id = ?`), owner.String()); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM inventoryfolders WHERE owner_id = ?`), owner.String()); err != nil {
		return fmt.Errorf("delete folders: %w", err)
	}
	return tx.Commit()
}
