package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentalhub/internal/domain"
	applog "rentalhub/internal/log"
	"rentalhub/internal/realtime"
	"rentalhub/internal/repos"
)

const TypingTTL = 3 * time.Second

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoRoom       = errors.New("no conversation is open")
)

// Channel is the live chat connection of one session.
type Channel interface {
	Join(conversationID string) error
	Leave(conversationID string) error
	SendMessage(conversationID, content string) error
	Typing(conversationID string, typing bool) error
	OnMessage(func(domain.Message))
	OnTyping(func(realtime.Typing))
	// OnClose runs once the connection has dropped, for whatever reason.
	OnClose(func(error))
	Close() error
}

// Dialer opens a Channel authenticated with token.
type Dialer func(ctx context.Context, token string) (Channel, error)

// SocketDialer dials the backend chat socket at url.
func SocketDialer(url string) Dialer {
	return func(ctx context.Context, token string) (Channel, error) {
		c := realtime.New(url)
		if err := c.Connect(ctx, token); err != nil {
			return nil, err
		}
		return c, nil
	}
}

type EntryState string

const (
	EntryPending   EntryState = "pending"
	EntryConfirmed EntryState = "confirmed"
)

// Entry is a message as shown in the open conversation. Pending entries carry
// a temporary id until the backend confirms them.
type Entry struct {
	ID      string         `json:"id"`
	State   EntryState     `json:"state"`
	Message domain.Message `json:"message"`
}

type RoomView struct {
	ConversationID string   `json:"conversationId"`
	Entries        []Entry  `json:"entries"`
	Draft          string   `json:"draft"`
	Typing         []string `json:"typing,omitempty"`
}

// Room is the view state of one open conversation.
type Room struct {
	ConversationID string
	SelfID         string

	mu      sync.Mutex
	entries []Entry
	draft   string
	typing  map[string]time.Time
	now     func() time.Time
	nextSub int
	subs    map[int]func(RoomView)
}

func NewRoom(conversationID, selfID string, history []domain.Message) *Room {
	r := &Room{
		ConversationID: conversationID,
		SelfID:         selfID,
		typing:         map[string]time.Time{},
		now:            time.Now,
		subs:           map[int]func(RoomView){},
	}
	for _, m := range history {
		r.entries = append(r.entries, Entry{ID: m.ID, State: EntryConfirmed, Message: m})
	}
	return r
}

func (r *Room) view() RoomView {
	v := RoomView{
		ConversationID: r.ConversationID,
		Entries:        append([]Entry(nil), r.entries...),
		Draft:          r.draft,
	}
	now := r.now()
	for uid, until := range r.typing {
		if now.Before(until) {
			v.Typing = append(v.Typing, uid)
		} else {
			delete(r.typing, uid)
		}
	}
	return v
}

func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

// Subscribe calls fn with a fresh view after every change.
func (r *Room) Subscribe(fn func(RoomView)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// change runs fn under the lock and notifies subscribers afterwards.
func (r *Room) change(fn func()) {
	r.mu.Lock()
	fn()
	v := r.view()
	subs := make([]func(RoomView), 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()
	for _, s := range subs {
		s(v)
	}
}

// watched reports whether any stream is subscribed.
func (r *Room) watched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs) > 0
}

// reload replaces confirmed entries with a fresh history; pending sends stay.
func (r *Room) reload(history []domain.Message) {
	r.change(func() {
		entries := make([]Entry, 0, len(history)+len(r.entries))
		for _, m := range history {
			entries = append(entries, Entry{ID: m.ID, State: EntryConfirmed, Message: m})
		}
		for _, e := range r.entries {
			if e.State == EntryPending {
				entries = append(entries, e)
			}
		}
		r.entries = entries
	})
}

func (r *Room) SetDraft(text string) {
	r.change(func() { r.draft = text })
}

func (r *Room) has(id string) bool {
	for _, e := range r.entries {
		if e.State == EntryConfirmed && e.ID == id {
			return true
		}
	}
	return false
}

// Receive appends a pushed message unless it belongs elsewhere or is
// already shown.
func (r *Room) Receive(m domain.Message) bool {
	if m.ConversationID != r.ConversationID {
		return false
	}
	added := false
	r.change(func() {
		if m.ID != "" && r.has(m.ID) {
			return
		}
		r.entries = append(r.entries, Entry{ID: m.ID, State: EntryConfirmed, Message: m})
		delete(r.typing, m.SenderID)
		added = true
	})
	return added
}

func (r *Room) PeerTyping(t realtime.Typing) {
	if t.ConversationID != r.ConversationID || t.UserID == r.SelfID {
		return
	}
	r.change(func() {
		if t.IsTyping {
			r.typing[t.UserID] = r.now().Add(TypingTTL)
		} else {
			delete(r.typing, t.UserID)
		}
	})
}

// begin clears the draft and inserts a pending entry.
func (r *Room) begin(content string) string {
	temp := "temp-" + uuid.NewString()
	r.change(func() {
		r.draft = ""
		r.entries = append(r.entries, Entry{
			ID:    temp,
			State: EntryPending,
			Message: domain.Message{
				ID:             temp,
				ConversationID: r.ConversationID,
				SenderID:       r.SelfID,
				Content:        content,
				CreatedAt:      r.now(),
			},
		})
	})
	return temp
}

// confirm swaps the pending entry for the server's message. If the socket
// delivered that message first, the pending entry is just dropped.
func (r *Room) confirm(temp string, m domain.Message) {
	r.change(func() {
		dup := m.ID != "" && r.has(m.ID)
		for i, e := range r.entries {
			if e.ID != temp {
				continue
			}
			if dup {
				r.entries = append(r.entries[:i], r.entries[i+1:]...)
			} else {
				r.entries[i] = Entry{ID: m.ID, State: EntryConfirmed, Message: m}
			}
			return
		}
	})
}

// fail removes the pending entry and gives the text back to the input.
func (r *Room) fail(temp, content string) {
	r.change(func() {
		for i, e := range r.entries {
			if e.ID == temp {
				r.entries = append(r.entries[:i], r.entries[i+1:]...)
				break
			}
		}
		r.draft = content
	})
}

// chatSession is one browser session's live channel and the rooms open on
// it. focus is the room last opened by a page or REST call.
type chatSession struct {
	ch    Channel
	rooms map[string]*Room
	focus string
}

type ChatService struct {
	Msgs *repos.MessageRepo
	Dial Dialer

	mu       sync.Mutex
	sessions map[string]*chatSession
}

func NewChatService(msgs *repos.MessageRepo, dial Dialer) *ChatService {
	return &ChatService{Msgs: msgs, Dial: dial, sessions: map[string]*chatSession{}}
}

func (s *ChatService) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.Msgs.Conversations(ctx)
}

// Start opens (or creates) the conversation with peerID.
func (s *ChatService) Start(ctx context.Context, peerID string) (domain.Conversation, error) {
	return s.Msgs.Start(ctx, peerID)
}

// Open loads history for conversationID and joins it on the session's live
// channel, dialing the channel if there is none. An already open room is
// refreshed in place so streams watching it keep working. The previously
// focused room is left unless a stream still watches it. A channel failure
// leaves the room usable over REST.
func (s *ChatService) Open(ctx context.Context, sid, selfID, conversationID string) (*Room, error) {
	history, err := s.Msgs.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	cs := s.sessions[sid]
	if cs == nil {
		cs = &chatSession{rooms: map[string]*Room{}}
		s.sessions[sid] = cs
	}
	room, existing := cs.rooms[conversationID]
	if !existing {
		room = NewRoom(conversationID, selfID, history)
		cs.rooms[conversationID] = room
	}
	prev := cs.focus
	cs.focus = conversationID

	switch {
	case cs.ch == nil && s.Dial != nil:
		if ch := s.connect(ctx, sid); ch != nil {
			cs.ch = ch
			for id := range cs.rooms {
				s.join(ch, sid, id)
			}
		}
	case cs.ch != nil && !existing:
		s.join(cs.ch, sid, conversationID)
	}
	if prev != "" && prev != conversationID {
		if old := cs.rooms[prev]; old != nil && !old.watched() {
			s.leave(cs, prev)
		}
	}
	s.mu.Unlock()

	if existing {
		room.reload(history)
	}
	return room, nil
}

// connect dials a channel whose events go to the session's rooms by
// conversation id. Caller holds mu.
func (s *ChatService) connect(ctx context.Context, sid string) Channel {
	ch, err := s.Dial(ctx, repos.TokenFrom(ctx))
	if err != nil {
		applog.Error(nil, "chat.connect.fail", err, map[string]any{"sid": sid})
		return nil
	}
	ch.OnMessage(func(m domain.Message) {
		if r := s.Room(sid, m.ConversationID); r != nil {
			r.Receive(m)
		}
	})
	ch.OnTyping(func(t realtime.Typing) {
		if r := s.Room(sid, t.ConversationID); r != nil {
			r.PeerTyping(t)
		}
	})
	ch.OnClose(func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cs := s.sessions[sid]; cs != nil && cs.ch == ch {
			cs.ch = nil
			applog.Warn(nil, "chat.channel.dropped", map[string]any{"sid": sid})
		}
	})
	return ch
}

func (s *ChatService) join(ch Channel, sid, conversationID string) {
	if err := ch.Join(conversationID); err != nil {
		applog.Error(nil, "chat.join.fail", err, map[string]any{"sid": sid, "conversation": conversationID})
	}
}

// leave drops a room from the session. Caller holds mu.
func (s *ChatService) leave(cs *chatSession, conversationID string) {
	delete(cs.rooms, conversationID)
	if cs.focus == conversationID {
		cs.focus = ""
	}
	if cs.ch != nil {
		_ = cs.ch.Leave(conversationID)
	}
}

// Room returns the session's open room for conversationID, or nil.
func (s *ChatService) Room(sid, conversationID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs := s.sessions[sid]; cs != nil {
		return cs.rooms[conversationID]
	}
	return nil
}

func (s *ChatService) channel(sid string) Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs := s.sessions[sid]; cs != nil {
		return cs.ch
	}
	return nil
}

// Send posts text to the open room optimistically: a pending entry appears
// at once and is confirmed or removed when the backend answers. No retry.
func (s *ChatService) Send(ctx context.Context, sid, conversationID, text string) (RoomView, error) {
	room := s.Room(sid, conversationID)
	if room == nil {
		return RoomView{}, ErrNoRoom
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return room.View(), ErrEmptyMessage
	}
	temp := room.begin(content)

	if ch := s.channel(sid); ch != nil {
		if err := ch.SendMessage(room.ConversationID, content); err != nil {
			applog.Debug(nil, "chat.socket.send.fail", map[string]any{"sid": sid, "err": err.Error()})
		}
	}
	m, err := s.Msgs.Send(ctx, room.ConversationID, content)
	if err != nil {
		room.fail(temp, text)
		return room.View(), err
	}
	if m.SenderID == "" {
		m.SenderID = room.SelfID
	}
	room.confirm(temp, m)
	return room.View(), nil
}

func (s *ChatService) Typing(sid, conversationID string, typing bool) {
	room, ch := s.Room(sid, conversationID), s.channel(sid)
	if room == nil || ch == nil {
		return
	}
	_ = ch.Typing(room.ConversationID, typing)
}

// Release is called when a stream on conversationID ends. The room is left
// once nothing watches it, and the whole session closes with its last stream.
func (s *ChatService) Release(sid, conversationID string) {
	s.mu.Lock()
	cs := s.sessions[sid]
	if cs == nil {
		s.mu.Unlock()
		return
	}
	if r := cs.rooms[conversationID]; r != nil && r.watched() {
		s.mu.Unlock()
		return
	}
	for _, r := range cs.rooms {
		if r.watched() {
			if conversationID != cs.focus {
				s.leave(cs, conversationID)
			}
			s.mu.Unlock()
			return
		}
	}
	delete(s.sessions, sid)
	s.mu.Unlock()
	shut(cs)
}

// Close leaves every open room and drops the session's channel.
func (s *ChatService) Close(sid string) {
	s.mu.Lock()
	cs := s.sessions[sid]
	delete(s.sessions, sid)
	s.mu.Unlock()
	if cs != nil {
		shut(cs)
	}
}

func shut(cs *chatSession) {
	if cs.ch == nil {
		return
	}
	for id := range cs.rooms {
		_ = cs.ch.Leave(id)
	}
	_ = cs.ch.Close()
}
