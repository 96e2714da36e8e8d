package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// Inventory renders one folder of the user's inventory: the folder itself,
// then its subfolders, then its items. uuid.Nil selects the root folder.
func (s *Services) Inventory(ctx context.Context, env *wifiscript.Environment, folderID uuid.UUID) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	owner := s.principal(env)
	if folderID == uuid.Nil {
		root, err := s.grid.Inventory.GetRootFolder(ctx, owner)
		if errors.Is(err, grid.ErrNotFound) {
			if err := s.grid.Inventory.CreateUserInventory(ctx, owner); err != nil {
				return s.failed(env, "create inventory", err)
			}
			root, err = s.grid.Inventory.GetRootFolder(ctx, owner)
		}
		if err != nil {
			return s.failed(env, "load root folder", err)
		}
		folderID = root.FolderID
	}
	content, err := s.grid.Inventory.GetFolderContent(ctx, owner, folderID)
	if err != nil {
		if errors.Is(err, grid.ErrNotFound) {
			return s.message(env, "You are not allowed to do that.")
		}
		return s.failed(env, "load folder", err)
	}

	data := make([]any, 0, 1+len(content.Folders)+len(content.Items))
	data = append(data, &webapp.FolderItem{Folder: content.Folder})
	for _, f := range content.Folders {
		data = append(data, &webapp.FolderItem{Folder: f})
	}
	for _, it := range content.Items {
		data = append(data, &webapp.ItemItem{Item: it})
	}
	env.Data = data
	return s.render(env, webapp.StateInventory)
}

// MoveItems moves the user's items into folderID.
func (s *Services) MoveItems(ctx context.Context, env *wifiscript.Environment, itemIDs []uuid.UUID, folderID uuid.UUID) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	if len(itemIDs) == 0 || folderID == uuid.Nil {
		return s.message(env, "The action could not be performed.")
	}
	if err := s.grid.Inventory.MoveItems(ctx, s.principal(env), itemIDs, folderID); err != nil {
		if errors.Is(err, grid.ErrNotFound) {
			return s.message(env, "You are not allowed to do that.")
		}
		return s.failed(env, "move items", err)
	}
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/user/inventory/"+folderID.String())
}

// DeleteItems moves the user's items to the Trash folder.
func (s *Services) DeleteItems(ctx context.Context, env *wifiscript.Environment, itemIDs []uuid.UUID) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	if len(itemIDs) == 0 {
		return s.message(env, "The action could not be performed.")
	}
	owner := s.principal(env)
	trash, err := s.grid.Inventory.GetFolderForType(ctx, owner, constants.FolderTypeTrash)
	if err != nil {
		return s.failed(env, "load trash folder", err)
	}
	if err := s.grid.Inventory.MoveItems(ctx, owner, itemIDs, trash.FolderID); err != nil {
		return s.failed(env, "trash items", err)
	}
	s.logger.Info("items trashed", "principal", owner, "count", len(itemIDs))
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/user/inventory")
}
