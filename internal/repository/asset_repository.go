package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

// AssetRepository reads assets from the assets table.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates an asset repository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

var _ grid.AssetService = (*AssetRepository)(nil)

// Get returns the asset with its data.
func (r *AssetRepository) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var a models.Asset
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT id, name, asset_type, content_type, data FROM assets WHERE id = ?`), id.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Store inserts or replaces an asset.
func (r *AssetRepository) Store(ctx context.Context, a *models.Asset) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM assets WHERE id = ?`), a.ID.String()); err != nil {
		return fmt.Errorf("replace asset: %w", err)
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO assets (id, name, asset_type, content_type, data)
		VALUES (?, ?, ?, ?, ?)`), a.ID.String(), a.Name, a.Type, a.ContentType, a.Data)
	if err != nil {
		return fmt.Errorf("store asset: %w", err)
	}
	return nil
}
