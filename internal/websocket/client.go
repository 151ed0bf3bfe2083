package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chitchat/internal/live"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Inbound frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
)

// Outbound frame types.
const (
	FrameEvent        = "event"
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameError        = "error"
	FramePong         = "pong"
)

// ClientFrame is a request sent by the client.
type ClientFrame struct {
	Type     string    `json:"type"`
	Ref      string    `json:"ref,omitempty"`
	Channel  live.Kind `json:"channel,omitempty"`
	TargetID uuid.UUID `json:"target_id,omitempty"`
}

// ServerFrame is everything the server writes to the socket.
type ServerFrame struct {
	Type    string     `json:"type"`
	Ref     string     `json:"ref,omitempty"`
	Event   *live.View `json:"event,omitempty"`
	Message string     `json:"message,omitempty"`
	Code    string     `json:"code,omitempty"`
}

// Client is one authenticated socket. Each live channel the client opens
// runs its own stream goroutine; all of them write through Send.
type Client struct {
	ID     string
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte

	hub    *Hub
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	streams map[string]*live.Stream
	closed  bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	return &Client{
		ID:      id,
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		hub:     hub,
		log:     hub.log.With(zap.String("client_id", id), zap.String("user_id", userID.String())),
		ctx:     ctx,
		cancel:  cancel,
		streams: make(map[string]*live.Stream),
	}
}

// ReadLoop handles inbound frames until the socket closes. It releases every
// stream the client opened before returning.
func (c *Client) ReadLoop() {
	defer c.hub.Unregister(c)

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(ServerFrame{Type: FrameError, Message: "malformed frame", Code: "INVALID_REQUEST"})
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame ClientFrame) {
	switch frame.Type {
	case FrameSubscribe:
		c.subscribe(frame)
	case FrameUnsubscribe:
		c.unsubscribe(frame)
	case FramePing:
		c.reply(ServerFrame{Type: FramePong, Ref: frame.Ref})
	default:
		c.reply(ServerFrame{Type: FrameError, Ref: frame.Ref, Message: "unknown frame type", Code: "INVALID_REQUEST"})
	}
}

func streamKey(kind live.Kind, targetID uuid.UUID) string {
	return string(kind) + ":" + targetID.String()
}

func (c *Client) subscribe(frame ClientFrame) {
	channel, err := c.hub.authorizer.Authorize(c.ctx, c.UserID, frame.Channel, frame.TargetID)
	if err != nil {
		c.replyError(frame.Ref, err)
		return
	}

	key := streamKey(frame.Channel, frame.TargetID)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.streams[key]; ok {
		c.mu.Unlock()
		c.reply(ServerFrame{Type: FrameSubscribed, Ref: frame.Ref})
		return
	}
	stream, err := live.Open(c.ctx, c.hub.bus, channel, live.SubscriberContext{UserID: c.UserID}, c.hub.log.With(zap.String("client_id", c.ID)))
	if err != nil {
		c.mu.Unlock()
		c.replyError(frame.Ref, err)
		return
	}
	c.streams[key] = stream
	c.mu.Unlock()

	c.reply(ServerFrame{Type: FrameSubscribed, Ref: frame.Ref})
	go c.pump(key, stream)
}

func (c *Client) unsubscribe(frame ClientFrame) {
	key := streamKey(frame.Channel, frame.TargetID)
	c.mu.Lock()
	stream, ok := c.streams[key]
	delete(c.streams, key)
	c.mu.Unlock()

	if ok {
		stream.Close()
	}
	c.reply(ServerFrame{Type: FrameUnsubscribed, Ref: frame.Ref})
}

// pump forwards a stream's views to the socket until the stream ends.
func (c *Client) pump(key string, stream *live.Stream) {
	for {
		view, err := stream.Next(c.ctx)
		if err != nil {
			c.mu.Lock()
			if c.streams[key] == stream {
				delete(c.streams, key)
			}
			c.mu.Unlock()
			if errors.Is(err, chitchat_errors.ErrSlowConsumer) {
				c.reply(ServerFrame{Type: FrameError, Message: err.Error(), Code: "SLOW_CONSUMER"})
			}
			return
		}
		c.reply(ServerFrame{Type: FrameEvent, Event: &view})
	}
}

func (c *Client) replyError(ref string, err error) {
	c.reply(ServerFrame{
		Type:    FrameError,
		Ref:     ref,
		Message: err.Error(),
		Code:    chitchat_errors.CodeFromError(err),
	})
}

func (c *Client) reply(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("failed to encode frame", zap.String("type", frame.Type), zap.Error(err))
		return
	}
	c.SendMessage(data)
}

// SendMessage queues data for the write loop. It never blocks; when the
// buffer is full the frame is dropped.
func (c *Client) SendMessage(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.log.Warn("send buffer full, dropping frame")
	}
}

// WriteLoop writes queued frames and keeps the connection alive with pings.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close ends every stream and the write loop. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	streams := c.streams
	c.streams = nil
	close(c.Send)
	c.mu.Unlock()

	c.cancel()
	for _, s := range streams {
		s.Close()
	}
}

// StreamCount reports how many live channels the client has open.
func (c *Client) StreamCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}
