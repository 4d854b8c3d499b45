// Package realtime is the chat socket to the marketplace backend. Frames are
// JSON objects {"event": name, "data": payload}.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"rentalhub/internal/domain"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
)

const (
	EventJoin       = "join_conversation"
	EventLeave      = "leave_conversation"
	EventSend       = "send_message"
	EventTyping     = "typing"
	EventNewMessage = "new_message"
)

var ErrClosed = errors.New("realtime: connection closed")

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Typing is a peer's typing signal for a conversation.
type Typing struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

type Client struct {
	url string

	mu        sync.RWMutex // guards handlers
	onMessage []func(domain.Message)
	onTyping  []func(Typing)
	onClose   []func(error)

	wmu  sync.Mutex // one writer at a time
	conn *websocket.Conn
	done chan struct{}
}

func New(socketURL string) *Client {
	return &Client{url: socketURL}
}

// Connect dials the backend with the bearer token and starts reading.
func (c *Client) Connect(ctx context.Context, token string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn != nil {
		return nil
	}
	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("socket url: %w", err)
	}
	h := http.Header{}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		h.Set("Authorization", "Bearer "+token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), h)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	c.done = make(chan struct{})
	go c.read(conn, c.done)
	return nil
}

// Close ends the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Done is closed when the read loop exits.
func (c *Client) Done() <-chan struct{} {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.done
}

func (c *Client) OnMessage(fn func(domain.Message)) {
	c.mu.Lock()
	c.onMessage = append(c.onMessage, fn)
	c.mu.Unlock()
}

func (c *Client) OnTyping(fn func(Typing)) {
	c.mu.Lock()
	c.onTyping = append(c.onTyping, fn)
	c.mu.Unlock()
}

func (c *Client) OnClose(fn func(error)) {
	c.mu.Lock()
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

func (c *Client) Join(conversationID string) error {
	return c.emit(EventJoin, map[string]string{"conversationId": conversationID})
}

func (c *Client) Leave(conversationID string) error {
	return c.emit(EventLeave, map[string]string{"conversationId": conversationID})
}

func (c *Client) SendMessage(conversationID, content string) error {
	return c.emit(EventSend, map[string]string{"conversationId": conversationID, "content": content})
}

func (c *Client) Typing(conversationID string, typing bool) error {
	return c.emit(EventTyping, map[string]any{"conversationId": conversationID, "isTyping": typing})
}

func (c *Client) emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil {
		return ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) read(conn *websocket.Conn, done chan struct{}) {
	var err error
	defer func() {
		c.wmu.Lock()
		if c.conn == conn {
			_ = conn.Close()
			c.conn = nil
		}
		c.wmu.Unlock()
		close(done)
		c.mu.RLock()
		hs := append([]func(error){}, c.onClose...)
		c.mu.RUnlock()
		for _, h := range hs {
			h(err)
		}
	}()
	for {
		var data []byte
		if _, data, err = conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				err = nil
			}
			return
		}
		var f Frame
		if jerr := json.Unmarshal(data, &f); jerr != nil {
			applog.Debug(nil, "realtime.frame.bad", map[string]any{"err": jerr.Error()})
			continue
		}
		c.dispatch(f)
	}
}

func (c *Client) dispatch(f Frame) {
	c.mu.RLock()
	onMessage := append([]func(domain.Message){}, c.onMessage...)
	onTyping := append([]func(Typing){}, c.onTyping...)
	c.mu.RUnlock()

	switch f.Event {
	case EventNewMessage:
		m := repos.DecodeMessage(f.Data)
		for _, h := range onMessage {
			h(m)
		}
	case EventTyping:
		var t Typing
		if err := json.Unmarshal(f.Data, &t); err != nil {
			return
		}
		for _, h := range onTyping {
			h(t)
		}
	}
}
