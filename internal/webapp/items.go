package webapp

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeonx/timeago"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// Data elements placed in Environment.Data. Every field is HTML escaped.

// AccountItem is one row of the user list or the account being edited.
type AccountItem struct {
	Account    *models.UserAccount
	Info       *models.GridUserInfo
	AdminLevel int
}

func (a *AccountItem) Field(name string) (string, bool) {
	acc := a.Account
	var v string
	switch name {
	case "ID", "PrincipalID":
		v = acc.PrincipalID.String()
	case "FirstName":
		v = acc.FirstName
	case "LastName":
		v = acc.LastName
	case "Name":
		v = acc.Name()
	case "Email":
		v = acc.Email
	case "Level", "UserLevel":
		v = strconv.Itoa(acc.UserLevel)
	case "Title", "UserTitle":
		v = acc.UserTitle
	case "Created":
		v = acc.CreatedTime().UTC().Format("2006-01-02")
	case "Status":
		switch {
		case acc.IsPending():
			v = "pending"
		case a.Info != nil && a.Info.Online:
			v = "online"
		default:
			v = "offline"
		}
	default:
		return "", false
	}
	return html.EscapeString(v), true
}

// UserLevel implements the leveled interface used by the LevelName
// extension.
func (a *AccountItem) UserLevel() int { return a.Account.UserLevel }

// LastSeen implements the seen interface used by the LastSeen extension.
func (a *AccountItem) LastSeen() time.Time { return a.Info.LastLogin() }

// Invoke renders the per-row controls.
func (a *AccountItem) Invoke(name string, env *wifiscript.Environment) (string, bool) {
	switch name {
	case "LevelOptions":
		levels := []int{constants.UserLevelPending, constants.UserLevelDefault, a.AdminLevel}
		var b strings.Builder
		for _, l := range levels {
			sel := ""
			if l == a.Account.UserLevel {
				sel = ` selected="selected"`
			}
			fmt.Fprintf(&b, `<option value="%d"%s>%d</option>`, l, sel, l)
		}
		return b.String(), true
	case "ActivateButton":
		if !a.Account.IsPending() {
			return "", true
		}
		return fmt.Sprintf(`<form method="post" action="%s"><input type="hidden" name="action" value="activate"/><input type="submit" value="activate"/></form>`,
			html.EscapeString(Link(env, "/wifi/admin/users/"+a.Account.PrincipalID.String()))), true
	}
	return "", false
}

// RegionItem is a region or hyperlink row.
type RegionItem struct {
	Region *models.Region
	Online bool
}

func (r *RegionItem) Field(name string) (string, bool) {
	reg := r.Region
	var v string
	switch name {
	case "ID", "RegionID":
		v = reg.RegionID.String()
	case "Name", "RegionName":
		v = reg.RegionName
	case "X":
		v = strconv.Itoa(reg.GridX())
	case "Y":
		v = strconv.Itoa(reg.GridY())
	case "Location":
		v = reg.Location()
	case "URI", "ServerURI":
		v = reg.ServerURI
	case "Owner", "OwnerID":
		v = reg.OwnerID.String()
	case "Size":
		v = fmt.Sprintf("%dx%d", reg.SizeX, reg.SizeY)
	case "Status":
		v = "offline"
		if r.Online {
			v = "online"
		}
	default:
		return "", false
	}
	return html.EscapeString(v), true
}

// LastSeen implements the seen interface used by the LastSeen extension.
func (r *RegionItem) LastSeen() time.Time {
	if r.Region.LastSeen == 0 {
		return time.Time{}
	}
	return time.Unix(r.Region.LastSeen, 0)
}

var charterPolicy = bluemonday.UGCPolicy()

// GroupItem is a group row.
type GroupItem struct {
	Group *models.Group
}

func (g *GroupItem) Field(name string) (string, bool) {
	grp := g.Group
	switch name {
	case "ID", "GroupID":
		return grp.GroupID.String(), true
	case "Name":
		return html.EscapeString(grp.Name), true
	case "Charter":
		return charterPolicy.Sanitize(grp.Charter), true
	case "Members", "MemberCount":
		return strconv.Itoa(grp.MemberCount), true
	case "Founder", "FounderID":
		return grp.FounderID.String(), true
	case "Open":
		if grp.OpenEnrollment {
			return "yes", true
		}
		return "no", true
	}
	return "", false
}

// MemberItem is a group membership row with the member's display name.
type MemberItem struct {
	Member *models.GroupMember
	Name   string
}

func (m *MemberItem) Field(name string) (string, bool) {
	var v string
	switch name {
	case "GroupID":
		v = m.Member.GroupID.String()
	case "PrincipalID", "ID":
		v = m.Member.PrincipalID
	case "Name":
		v = m.Name
		if v == "" {
			v = m.Member.PrincipalID
		}
	case "Title":
		v = m.Member.Title
	default:
		return "", false
	}
	return html.EscapeString(v), true
}

// FolderItem is an inventory folder.
type FolderItem struct {
	Folder *models.InventoryFolder
}

func (f *FolderItem) Field(name string) (string, bool) {
	var v string
	switch name {
	case "ID", "FolderID":
		v = f.Folder.FolderID.String()
	case "ParentID":
		v = f.Folder.ParentID.String()
	case "Name":
		v = f.Folder.Name
	case "Type":
		v = strconv.Itoa(f.Folder.Type)
	case "Kind":
		v = "folder"
	default:
		return "", false
	}
	return html.EscapeString(v), true
}

// ItemItem is an inventory item.
type ItemItem struct {
	Item *models.InventoryItem
}

func (i *ItemItem) Field(name string) (string, bool) {
	it := i.Item
	var v string
	switch name {
	case "ID", "ItemID":
		v = it.ItemID.String()
	case "FolderID":
		v = it.FolderID.String()
	case "Name":
		v = it.Name
	case "Description":
		v = it.Description
	case "AssetID":
		v = it.AssetID.String()
	case "AssetType":
		v = strconv.Itoa(it.AssetType)
	case "Kind":
		v = "item"
	case "Created":
		v = time.Unix(it.Created, 0).UTC().Format("2006-01-02")
	default:
		return "", false
	}
	return html.EscapeString(v), true
}

type leveled interface{ UserLevel() int }

type seen interface{ LastSeen() time.Time }

var timeagoConfigs = map[string]timeago.Config{
	"en": timeago.English,
	"fr": timeago.French,
	"pt": timeago.Portuguese,
}

func (w *WebApp) builtinExtensions() map[string]wifiscript.Extension {
	return map[string]wifiscript.Extension{
		"LevelName": func(item any, env *wifiscript.Environment) (string, bool) {
			l, ok := item.(leveled)
			if !ok {
				return "", false
			}
			level := l.UserLevel()
			switch {
			case level < 0:
				return html.EscapeString(w.T(env, "Pending")), true
			case w.cfg.IsAdminLevel(level):
				return html.EscapeString(w.T(env, "Administrator")), true
			}
			return html.EscapeString(w.T(env, "User")), true
		},
		"LastSeen": func(item any, env *wifiscript.Environment) (string, bool) {
			s, ok := item.(seen)
			if !ok {
				return "", false
			}
			t := s.LastSeen()
			if t.IsZero() {
				return html.EscapeString(w.T(env, "Never")), true
			}
			cfg, ok := timeagoConfigs[env.Language]
			if !ok {
				cfg = timeago.English
			}
			return html.EscapeString(cfg.FormatReference(t, w.now())), true
		},
	}
}
