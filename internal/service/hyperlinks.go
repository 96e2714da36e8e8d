package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// HyperlinkForm is the POST body of /wifi/linkregion.
type HyperlinkForm struct {
	Address string // host:port[:region]
	X       string
	Y       string
}

// ParseHyperlink splits "host:port[:region]" into the server URI and the
// remote region name. The region name may itself contain colons.
func ParseHyperlink(address string) (uri, region string, err error) {
	parts := strings.SplitN(strings.TrimSpace(address), ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return "", "", fmt.Errorf("hyperlink %q: want host:port[:region]", address)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return "", "", fmt.Errorf("hyperlink %q: bad port", address)
	}
	uri = fmt.Sprintf("http://%s:%d/", parts[0], port)
	if len(parts) == 3 {
		region = strings.TrimSpace(parts[2])
	}
	return uri, region, nil
}

func (s *Services) canLink(env *wifiscript.Environment) (string, bool) {
	if page, ok := s.requireUser(env); !ok {
		return page, false
	}
	if level, _ := Level(env); level < s.cfg.Hyperlinks.UserLevel {
		return s.message(env, "You are not allowed to do that."), false
	}
	return "", true
}

// Hyperlinks lists the user's hyperlinks. Administrators, or everyone when
// HyperlinksShowAll is set, see every hyperlink.
func (s *Services) Hyperlinks(ctx context.Context, env *wifiscript.Environment) string {
	if page, ok := s.canLink(env); !ok {
		return page
	}
	links, err := s.grid.Grid.GetHyperlinks(ctx)
	if err != nil {
		return s.failed(env, "list hyperlinks", err)
	}
	all := s.cfg.Hyperlinks.ShowAll || s.IsAdmin(env)
	owner := s.principal(env)
	data := make([]any, 0, len(links))
	for _, l := range links {
		if all || l.OwnerID == owner {
			data = append(data, &webapp.RegionItem{Region: l})
		}
	}
	env.Data = data
	return s.render(env, webapp.StateHyperlinks)
}

// AddHyperlink registers a hyperlink owned by the user at grid cell x,y.
func (s *Services) AddHyperlink(ctx context.Context, env *wifiscript.Environment, form HyperlinkForm) string {
	if page, ok := s.canLink(env); !ok {
		return page
	}
	uri, remote, err := ParseHyperlink(form.Address)
	if err != nil {
		s.logger.Info("bad hyperlink", "address", form.Address, "error", err)
		return s.message(env, "The action could not be performed.")
	}
	x, errX := strconv.Atoi(strings.TrimSpace(form.X))
	y, errY := strconv.Atoi(strings.TrimSpace(form.Y))
	if errX != nil || errY != nil || x < 0 || y < 0 {
		return s.message(env, "The action could not be performed.")
	}
	name := remote
	if name == "" {
		name = strings.TrimSuffix(strings.TrimPrefix(uri, "http://"), "/")
	}
	link := &models.Region{
		RegionID:   uuid.New(),
		RegionName: name,
		LocX:       x * 256,
		LocY:       y * 256,
		ServerURI:  uri,
		OwnerID:    s.principal(env),
		Flags:      constants.RegionFlagHyperlink,
	}
	if err := s.grid.Grid.RegisterRegion(ctx, link); err != nil {
		if errors.Is(err, grid.ErrConflict) {
			env.Message = s.app.T(env, "The action could not be performed.") + " (" + link.Location() + ")"
			return s.render(env, webapp.StateMessage)
		}
		return s.failed(env, "register hyperlink", err)
	}
	s.logger.Info("hyperlink added", "principal", link.OwnerID, "uri", uri, "region", remote, "location", link.Location())
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/linkregion")
}

// DeleteHyperlink removes a hyperlink. Only its owner or an administrator
// may do so.
func (s *Services) DeleteHyperlink(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.canLink(env); !ok {
		return page
	}
	link, err := s.grid.Grid.GetRegionByID(ctx, id)
	if err != nil || link.Flags&constants.RegionFlagHyperlink == 0 {
		return s.message(env, "The action could not be performed.")
	}
	if link.OwnerID != s.principal(env) && !s.IsAdmin(env) {
		return s.message(env, "You are not allowed to do that.")
	}
	if err := s.grid.Grid.DeregisterRegion(ctx, id); err != nil {
		return s.failed(env, "deregister hyperlink", err)
	}
	s.logger.Info("hyperlink deleted", "principal", s.principal(env), "region", id)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/linkregion")
}
