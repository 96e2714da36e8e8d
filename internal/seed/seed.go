// Package seed loads grid fixtures (accounts, regions, groups) from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

// Account is one fixture account. Password defaults to "password".
type Account struct {
	models.UserAccount `yaml:",inline"`
	Password           string `yaml:"password"`
}

// Group is one fixture group. Founder and members are "First Last" names.
type Group struct {
	models.Group `yaml:",inline"`
	Founder      string   `yaml:"founder"`
	Members      []string `yaml:"members"`
}

// Fixture is the seed file layout.
type Fixture struct {
	Accounts []Account       `yaml:"accounts"`
	Regions  []models.Region `yaml:"regions"`
	Groups   []Group         `yaml:"groups"`
}

// Result counts what Apply did. Existing records are skipped, not updated.
type Result struct {
	Created []string
	Skipped []string
}

// Parse decodes a fixture.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Accounts)+len(f.Regions)+len(f.Groups) == 0 {
		return nil, errors.New("invalid file: no accounts, regions or groups")
	}
	return &f, nil
}

// Load reads and parses the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Apply stores the fixture. Accounts come first so groups can name them.
func Apply(ctx context.Context, svc grid.Services, f *Fixture) (*Result, error) {
	res := &Result{}
	for i := range f.Accounts {
		if err := applyAccount(ctx, svc, &f.Accounts[i], res); err != nil {
			return res, err
		}
	}
	for i := range f.Regions {
		if err := applyRegion(ctx, svc, &f.Regions[i], res); err != nil {
			return res, err
		}
	}
	for i := range f.Groups {
		if err := applyGroup(ctx, svc, &f.Groups[i], res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func applyAccount(ctx context.Context, svc grid.Services, a *Account, res *Result) error {
	label := "account " + a.Name()
	if a.FirstName == "" || a.LastName == "" {
		return fmt.Errorf("%s: first and last name are required", label)
	}
	if _, err := svc.Accounts.GetUserAccountByName(ctx, a.FirstName, a.LastName); err == nil {
		res.Skipped = append(res.Skipped, label)
		return nil
	}

	acc := a.UserAccount
	acc.PrincipalID = uuid.New()
	acc.Created = time.Now().Unix()
	if err := svc.Accounts.StoreUserAccount(ctx, &acc); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	password := a.Password
	if password == "" {
		password = "password"
	}
	if err := svc.Auth.SetPassword(ctx, acc.PrincipalID, password); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if err := svc.Inventory.CreateUserInventory(ctx, acc.PrincipalID); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	res.Created = append(res.Created, label)
	return nil
}

// applyRegion takes x and y as grid cells.
func applyRegion(ctx context.Context, svc grid.Services, r *models.Region, res *Result) error {
	label := "region " + r.RegionName
	if r.RegionName == "" {
		return errors.New("region: name is required")
	}
	if _, err := svc.Grid.GetRegionByName(ctx, r.RegionName); err == nil {
		res.Skipped = append(res.Skipped, label)
		return nil
	}
	region := *r
	region.RegionID = uuid.New()
	region.LocX *= 256
	region.LocY *= 256
	region.SizeX, region.SizeY = 256, 256
	err := svc.Grid.RegisterRegion(ctx, &region)
	if errors.Is(err, grid.ErrConflict) {
		res.Skipped = append(res.Skipped, label+" (cell taken)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	res.Created = append(res.Created, label)
	return nil
}

func applyGroup(ctx context.Context, svc grid.Services, g *Group, res *Result) error {
	label := "group " + g.Name
	if g.Name == "" {
		return errors.New("group: name is required")
	}
	if _, err := svc.Groups.GetGroupByName(ctx, g.Name); err == nil {
		res.Skipped = append(res.Skipped, label)
		return nil
	}

	group := g.Group
	group.GroupID = uuid.New()
	group.ShowInList = true
	var members []uuid.UUID
	for i, name := range append([]string{g.Founder}, g.Members...) {
		if name == "" {
			continue
		}
		first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
		acc, err := svc.Accounts.GetUserAccountByName(ctx, first, last)
		if err != nil {
			return fmt.Errorf("%s: member %q: %w", label, name, err)
		}
		if i == 0 {
			group.FounderID = acc.PrincipalID
		}
		members = append(members, acc.PrincipalID)
	}

	if err := svc.Groups.CreateGroup(ctx, &group); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	for _, id := range members {
		if err := svc.Groups.AddMember(ctx, group.GroupID, id.String()); err != nil && !errors.Is(err, grid.ErrConflict) {
			return fmt.Errorf("%s: add member %s: %w", label, id, err)
		}
	}
	res.Created = append(res.Created, label)
	return nil
}
