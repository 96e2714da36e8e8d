package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/events"
	"github.com/divawifi/wifi/internal/middleware"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = 54 * time.Second
	eventBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// publishRequest is the body of POST /wifi/scriptevent, as JSON or form.
type publishRequest struct {
	Channel  string `json:"channel" form:"channel"`
	ObjectID string `json:"object_id" form:"object_id"`
	Body     string `json:"body" form:"body"`
}

// handlePublishEvent lets in-world objects publish on a channel.
func (s *Server) handlePublishEvent(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	if !events.ValidChannel(req.Channel) {
		apierrors.Error(c, apierrors.CodeInvalidChannel)
		return
	}
	ev := events.NewEvent(req.Channel, req.ObjectID, req.Body)
	if err := s.bus.Publish(c.Request.Context(), ev); err != nil {
		s.logger.Error("publish event failed", "channel", req.Channel, "error", err)
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "id": ev.ID})
}

// streamAllowed admits in-world clients holding the script token and
// browsers with a live panel session.
func (s *Server) streamAllowed(c *gin.Context) bool {
	if middleware.HasScriptToken(c, s.token) {
		return true
	}
	sid := sessionID(c)
	if sid == "" {
		return false
	}
	_, ok := s.svc.Sessions().TryGet(c.Request.Context(), sid, c.ClientIP())
	return ok
}

// handleEventStream upgrades to a websocket and streams events of
// ?channel= (every channel when absent) as JSON messages.
func (s *Server) handleEventStream(c *gin.Context) {
	if !s.streamAllowed(c) {
		apierrors.Error(c, apierrors.CodeUnauthorized)
		return
	}
	channel := c.DefaultQuery("channel", events.AllChannels)
	if channel != events.AllChannels && !events.ValidChannel(channel) {
		apierrors.Error(c, apierrors.CodeInvalidChannel)
		return
	}

	// The request context ends with the handler, which blocks until the
	// client goes away. Subscribing before the upgrade means a connected
	// client sees every later event.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan *events.Event, eventBuffer)
	sub, err := s.bus.Subscribe(ctx, channel, func(ev *events.Event) {
		select {
		case send <- ev:
		default:
			s.logger.Warn("event stream lagging, event dropped", "channel", ev.Channel, "id", ev.ID)
		}
	})
	if err != nil {
		s.logger.Error("subscribe failed", "channel", channel, "error", err)
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	defer func() { _ = sub.Unsubscribe() }()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("event stream opened", "channel", channel, "remote", c.ClientIP())
	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are seen,
// and cancels the stream when the connection ends.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
