package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

const regionColumns = `region_id, region_name, loc_x, loc_y, size_x, size_y,
	server_uri, owner_id, flags, last_seen`

// RegionRepository stores regions and hyperlinks in the regions table.
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository creates a region repository.
func NewRegionRepository(db *sqlx.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

var _ grid.GridService = (*RegionRepository)(nil)

// GetRegions lists local regions, excluding hyperlinks.
func (r *RegionRepository) GetRegions(ctx context.Context) ([]*models.Region, error) {
	var regions []*models.Region
	err := r.db.SelectContext(ctx, &regions, r.db.Rebind(`SELECT `+regionColumns+` FROM regions
		WHERE (flags & ?) = 0 ORDER BY region_name`), constants.RegionFlagHyperlink)
	if err != nil {
		return nil, fmt.Errorf("get regions: %w", err)
	}
	return regions, nil
}

// GetRegionByID returns one region or hyperlink.
func (r *RegionRepository) GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	err := r.db.GetContext(ctx, &region, r.db.Rebind(`SELECT `+regionColumns+` FROM regions WHERE region_id = ?`), id.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &region, nil
}

// GetRegionByName matches the region name ignoring case.
func (r *RegionRepository) GetRegionByName(ctx context.Context, name string) (*models.Region, error) {
	var region models.Region
	err := r.db.GetContext(ctx, &region, r.db.Rebind(`SELECT `+regionColumns+` FROM regions
		WHERE LOWER(region_name) = ? ORDER BY last_seen DESC LIMIT 1`), strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, notFound(err)
	}
	return &region, nil
}

// GetHyperlinks lists regions flagged as hyperlinks to other grids.
func (r *RegionRepository) GetHyperlinks(ctx context.Context) ([]*models.Region, error) {
	var links []*models.Region
	err := r.db.SelectContext(ctx, &links, r.db.Rebind(`SELECT `+regionColumns+` FROM regions
		WHERE (flags & ?) <> 0 ORDER BY region_name`), constants.RegionFlagHyperlink)
	if err != nil {
		return nil, fmt.Errorf("get hyperlinks: %w", err)
	}
	return links, nil
}

// RegisterRegion inserts or replaces a region. A region whose cell is taken
// by another region returns grid.ErrConflict.
func (r *RegionRepository) RegisterRegion(ctx context.Context, region *models.Region) error {
	if region.RegionID == uuid.Nil {
		region.RegionID = uuid.New()
	}
	if region.SizeX == 0 {
		region.SizeX = 256
	}
	if region.SizeY == 0 {
		region.SizeY = 256
	}
	region.LastSeen = time.Now().Unix()

	var occupant string
	err := r.db.GetContext(ctx, &occupant, r.db.Rebind(`SELECT region_id FROM regions
		WHERE loc_x = ? AND loc_y = ? AND region_id <> ?`), region.LocX, region.LocY, region.RegionID.String())
	if err == nil {
		return grid.ErrConflict
	}
	if !errors.Is(notFound(err), grid.ErrNotFound) {
		return fmt.Errorf("check region cell: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM regions WHERE region_id = ?`), region.RegionID.String()); err != nil {
		return fmt.Errorf("replace region: %w", err)
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO regions (`+regionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		region.RegionID.String(), region.RegionName, region.LocX, region.LocY, region.SizeX, region.SizeY,
		region.ServerURI, region.OwnerID.String(), region.Flags, region.LastSeen)
	if err != nil {
		return fmt.Errorf("insert region: %w", err)
	}
	return tx.Commit()
}

// DeregisterRegion removes a region or hyperlink.
func (r *RegionRepository) DeregisterRegion(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM regions WHERE region_id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("deregister region: %w", err)
	}
	if rowsAffected(res) == 0 {
		return grid.ErrNotFound
	}
	return nil
}
