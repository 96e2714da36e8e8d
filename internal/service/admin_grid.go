package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/console"
	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// regionOnlineWindow is how recently a region must have reported to the
// grid to count as online.
const regionOnlineWindow = 5 * time.Minute

// RegionList lists the registered regions with their online status.
// Hyperlinks are not regions of this grid and are left out.
func (s *Services) RegionList(ctx context.Context, env *wifiscript.Environment) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	regions, err := s.grid.Grid.GetRegions(ctx)
	if err != nil {
		return s.failed(env, "list regions", err)
	}
	now := s.now()
	data := make([]any, 0, len(regions))
	for _, r := range regions {
		if r.Flags&constants.RegionFlagHyperlink != 0 {
			continue
		}
		online := r.LastSeen > 0 && now.Sub(time.Unix(r.LastSeen, 0)) < regionOnlineWindow
		data = append(data, &webapp.RegionItem{Region: r, Online: online})
	}
	env.Data = data
	return s.render(env, webapp.StateRegionList)
}

// ServerForm is the POST body of /wifi/admin/server.
type ServerForm struct {
	Action   string // shutdown, restart or broadcast
	Delay    string // seconds, shutdown only
	RegionID string // restart only
	Message  string // broadcast only
}

// ServerPage renders the simulator control page.
func (s *Services) ServerPage(_ context.Context, env *wifiscript.Environment) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	return s.render(env, webapp.StateServerAdmin)
}

// ServerAction forwards a shutdown, restart or broadcast to the simulator.
func (s *Services) ServerAction(ctx context.Context, env *wifiscript.Environment, form ServerForm) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	if s.remote == nil {
		return s.message(env, "The action could not be performed.")
	}
	ctx, cancel := context.WithTimeout(ctx, constants.RemoteAdminTimeout)
	defer cancel()

	var err error
	switch strings.ToLower(form.Action) {
	case "shutdown":
		secs, _ := strconv.Atoi(strings.TrimSpace(form.Delay))
		err = s.remote.Shutdown(ctx, time.Duration(max(secs, 0))*time.Second)
	case "restart":
		id, perr := uuid.Parse(strings.TrimSpace(form.RegionID))
		if perr != nil {
			return s.message(env, "The action could not be performed.")
		}
		err = s.remote.Restart(ctx, id)
	case "broadcast":
		msg := strings.TrimSpace(form.Message)
		if msg == "" {
			return s.message(env, "The action could not be performed.")
		}
		err = s.remote.Broadcast(ctx, msg)
	default:
		return s.message(env, "The action could not be performed.")
	}
	if err != nil {
		return s.failed(env, "remote admin "+form.Action, err)
	}
	s.logger.Info("remote admin", "admin", s.principal(env), "action", form.Action)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/server")
}

// ConsolePage renders the console page.
func (s *Services) ConsolePage(_ context.Context, env *wifiscript.Environment) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	if s.console == nil || !s.console.Configured() {
		return s.message(env, "The action could not be performed.")
	}
	return s.render(env, webapp.StateConsole)
}

// ConsoleOp proxies one console call and returns the simulator's XML reply.
// op is start, command, read or close.
func (s *Services) ConsoleOp(ctx context.Context, env *wifiscript.Environment, op, sessionID, command string) ([]byte, error) {
	if !s.IsAdmin(env) {
		return nil, ErrForbidden
	}
	if s.console == nil || !s.console.Configured() {
		return nil, console.ErrNotConfigured
	}
	switch op {
	case "start":
		sess, raw, err := s.console.Start(ctx)
		if err == nil {
			s.logger.Info("console session started", "admin", s.principal(env), "console", sess.SessionID)
		}
		return raw, err
	case "command":
		s.logger.Info("console command", "admin", s.principal(env), "console", sessionID, "command", command)
		return s.console.Command(ctx, sessionID, command)
	case "read":
		return s.console.Read(ctx, sessionID)
	case "close":
		return s.console.Close(ctx, sessionID)
	}
	return nil, fmt.Errorf("unknown console operation %q", op)
}
