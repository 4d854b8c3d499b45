package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"rentalhub/internal/domain"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/validate"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type MessageHandler struct {
	Chat *services.ChatService
}

func (h *MessageHandler) open(c *fiber.Ctx) (*services.Room, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return nil, validate.Errors{"conversation": "is invalid"}
	}
	return h.Chat.Open(c.UserContext(), sidOf(c), snapshot(c).Identity.ID, id)
}

// current reuses the session's room for conversationID when it is open.
func (h *MessageHandler) current(ctx context.Context, sid, selfID, conversationID string) (*services.Room, error) {
	if r := h.Chat.Room(sid, conversationID); r != nil {
		return r, nil
	}
	if _, ok := validate.ID(conversationID); !ok {
		return nil, validate.Errors{"conversation": "is invalid"}
	}
	return h.Chat.Open(ctx, sid, selfID, conversationID)
}

// GET /messages and /messages/:id
func (h *MessageHandler) Page(c *fiber.Ctx) error {
	convs, err := h.Chat.Conversations(c.UserContext())
	if err != nil {
		return fail(c, "chat.list", err)
	}
	data := fiber.Map{"Conversations": convs}
	if c.Params("id") != "" {
		room, err := h.open(c)
		if err != nil {
			return fail(c, "chat.open", err)
		}
		data["Room"] = room.View()
		data["SelfID"] = room.SelfID
	}
	return render(c, "messages", data)
}

// GET /api/v1/conversations
func (h *MessageHandler) List(c *fiber.Ctx) error {
	convs, err := h.Chat.Conversations(c.UserContext())
	if err != nil {
		return fail(c, "chat.list", err)
	}
	return c.JSON(convs)
}

// POST /api/v1/conversations
func (h *MessageHandler) Start(c *fiber.Ctx) error {
	var in struct {
		PeerID string `json:"peerId" form:"peerId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	peer, ok := validate.ID(in.PeerID)
	if !ok {
		return fail(c, "chat.start", validate.Errors{"peerId": "is invalid"})
	}
	conv, err := h.Chat.Start(c.UserContext(), peer)
	if err != nil {
		return fail(c, "chat.start", err)
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// GET /api/v1/conversations/:id
func (h *MessageHandler) Room(c *fiber.Ctx) error {
	room, err := h.open(c)
	if err != nil {
		return fail(c, "chat.open", err)
	}
	return c.JSON(room.View())
}

// POST /api/v1/conversations/:id/messages
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var in struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	room, err := h.current(c.UserContext(), sidOf(c), snapshot(c).Identity.ID, c.Params("id"))
	if err != nil {
		return fail(c, "chat.open", err)
	}
	v, err := h.Chat.Send(c.UserContext(), sidOf(c), room.ConversationID, in.Content)
	if err != nil {
		return fail(c, "chat.send", err)
	}
	return c.JSON(v)
}

// POST /api/v1/conversations/:id/typing
func (h *MessageHandler) Typing(c *fiber.Ctx) error {
	var in struct {
		Typing bool `json:"isTyping" form:"isTyping"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c)
	}
	h.Chat.Typing(sidOf(c), c.Params("id"), in.Typing)
	return c.SendStatus(fiber.StatusNoContent)
}

// Upgrade lets only websocket handshakes through.
func (h *MessageHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// inbound is a frame sent by the browser.
type inbound struct {
	Event    string `json:"event"` // send | typing | draft
	Content  string `json:"content,omitempty"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

type outbound struct {
	Event   string             `json:"event"` // room | error
	Room    *services.RoomView `json:"room,omitempty"`
	Message string             `json:"message,omitempty"`
}

// Stream bridges the browser to conversation :id: every change of that room
// is pushed as a "room" frame, and frames from the browser act on it alone.
func (h *MessageHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sid, _ := conn.Locals("sid").(string)
		tok, _ := conn.Locals("token").(string)
		if sid == "" || tok == "" {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "sign in first"))
			_ = conn.Close()
			return
		}
		ctx, cancel := context.WithCancel(repos.WithToken(context.Background(), tok))
		defer cancel()

		var selfID string
		if u, ok := conn.Locals("user").(domain.Identity); ok {
			selfID = u.ID
		}
		room, err := h.current(ctx, sid, selfID, conn.Params("id"))
		if err != nil {
			applog.Error(nil, "chat.stream.open", err, map[string]any{"sid": sid})
			_ = conn.Close()
			return
		}

		var wmu sync.Mutex
		write := func(f outbound) error {
			raw, err := json.Marshal(f)
			if err != nil {
				return err
			}
			wmu.Lock()
			defer wmu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.TextMessage, raw)
		}

		views := make(chan services.RoomView, 16)
		stop := room.Subscribe(func(v services.RoomView) {
			select {
			case views <- v:
			default:
				// Slow reader; the next change carries the full view anyway.
			}
		})
		defer func() {
			stop()
			h.Chat.Release(sid, room.ConversationID)
		}()

		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			first := room.View()
			_ = write(outbound{Event: "room", Room: &first})
			for {
				select {
				case <-ctx.Done():
					return
				case v := <-views:
					if err := write(outbound{Event: "room", Room: &v}); err != nil {
						cancel()
						return
					}
				case <-ticker.C:
					wmu.Lock()
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					err := conn.WriteMessage(websocket.PingMessage, nil)
					wmu.Unlock()
					if err != nil {
						cancel()
						return
					}
				}
			}
		}()

		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					applog.Error(nil, "chat.stream.read", err, map[string]any{"sid": sid})
				}
				return
			}
			var in inbound
			if err := json.Unmarshal(raw, &in); err != nil {
				continue
			}
			switch in.Event {
			case "send":
				go func(text string) {
					if _, err := h.Chat.Send(ctx, sid, room.ConversationID, text); err != nil && !errors.Is(err, context.Canceled) {
						_ = write(outbound{Event: "error", Message: messageOf(err, statusOf(err))})
					}
				}(in.Content)
			case "typing":
				h.Chat.Typing(sid, room.ConversationID, in.IsTyping)
			case "draft":
				room.SetDraft(in.Content)
			}
		}
	})
}
