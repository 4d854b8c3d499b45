package services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain"
	"rentalhub/internal/realtime"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
)

type fakeChannel struct {
	mu        sync.Mutex
	joined    []string
	sent      []string
	onMessage func(domain.Message)
	onTyping  func(realtime.Typing)
	onClose   func(error)
	left      []string
	closed    bool
}

func (f *fakeChannel) Join(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, id)
	return nil
}
func (f *fakeChannel) Leave(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, id)
	return nil
}
func (f *fakeChannel) SendMessage(_, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	return nil
}
func (f *fakeChannel) Typing(string, bool) error { return nil }
func (f *fakeChannel) OnMessage(fn func(domain.Message)) { f.onMessage = fn }
func (f *fakeChannel) OnTyping(fn func(realtime.Typing)) { f.onTyping = fn }
func (f *fakeChannel) OnClose(fn func(error)) { f.onClose = fn }
func (f *fakeChannel) Close() error { f.closed = true; return nil }

// drop simulates the backend hanging up.
func (f *fakeChannel) drop() { f.onClose(errors.New("connection reset")) }

func (f *fakeChannel) joins() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.joined...)
}

// gatedSend holds POST /messages until release is closed, then answers with
// code and body.
func gatedSend(release <-chan struct{}, code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}
}

func openRoom(t *testing.T, send http.HandlerFunc, dial services.Dialer) (*services.ChatService, *services.Room) {
	t.Helper()
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/conversations/c1/messages":  jsonBody(`{"data":{"messages":[]}}`),
		"POST /api/conversations/c1/messages": send,
	})
	svc := services.NewChatService(repos.NewMessageRepo(api), dial)
	room, err := svc.Open(context.Background(), "s", "me", "c1")
	require.NoError(t, err)
	return svc, room
}

// sendAsync starts Send and waits until the pending entry is visible.
func sendAsync(t *testing.T, svc *services.ChatService, room *services.Room, text string) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "s", room.ConversationID, text)
		done <- err
	}()
	require.Eventually(t, func() bool { return len(room.View().Entries) == 1 }, 2*time.Second, time.Millisecond)
	return done
}

func TestSendConfirmsPendingEntry(t *testing.T) {
	release := make(chan struct{})
	svc, room := openRoom(t, gatedSend(release, 201,
		`{"data":{"_id":"m-42","conversationId":"c1","senderId":"me","content":"Còn hàng không?"}}`), nil)
	room.SetDraft("Còn hàng không?")

	done := sendAsync(t, svc, room, "Còn hàng không?")
	v := room.View()
	require.Len(t, v.Entries, 1)
	assert.Equal(t, services.EntryPending, v.Entries[0].State)
	assert.True(t, strings.HasPrefix(v.Entries[0].ID, "temp-"))
	assert.Empty(t, v.Draft, "input cleared at once")

	close(release)
	require.NoError(t, <-done)
	v = room.View()
	require.Len(t, v.Entries, 1)
	assert.Equal(t, "m-42", v.Entries[0].ID)
	assert.Equal(t, services.EntryConfirmed, v.Entries[0].State)
}

func TestSendFailureRemovesEntryAndRestoresInput(t *testing.T) {
	release := make(chan struct{})
	svc, room := openRoom(t, gatedSend(release, 500, `{"message":"db down"}`), nil)

	done := sendAsync(t, svc, room, "Cho mình thuê 2 ngày")
	close(release)
	require.Error(t, <-done)

	v := room.View()
	assert.Empty(t, v.Entries)
	assert.Equal(t, "Cho mình thuê 2 ngày", v.Draft)
}

func TestSocketEchoIsNotDuplicated(t *testing.T) {
	ch := &fakeChannel{}
	dial := func(ctx context.Context, token string) (services.Channel, error) { return ch, nil }
	release := make(chan struct{})
	svc, room := openRoom(t, gatedSend(release, 201, `{"_id":"m-7","content":"hi"}`), dial)
	assert.Equal(t, []string{"c1"}, ch.joined)

	done := sendAsync(t, svc, room, "hi")
	// The socket delivers the confirmed message before the REST answer.
	ch.onMessage(domain.Message{ID: "m-7", ConversationID: "c1", SenderID: "me", Content: "hi"})
	close(release)
	require.NoError(t, <-done)

	v := room.View()
	require.Len(t, v.Entries, 1)
	assert.Equal(t, "m-7", v.Entries[0].ID)
	assert.Equal(t, []string{"hi"}, ch.sent)

	ch.onMessage(domain.Message{ID: "m-7", ConversationID: "c1", Content: "hi"})
	ch.onMessage(domain.Message{ID: "x-1", ConversationID: "other", Content: "elsewhere"})
	assert.Len(t, room.View().Entries, 1)

	svc.Close("s")
	assert.True(t, ch.closed)
	assert.Nil(t, svc.Room("s", "c1"))
}

func TestSendRejectsEmptyText(t *testing.T) {
	svc, _ := openRoom(t, jsonBody(`{}`), nil)
	_, err := svc.Send(context.Background(), "s", "c1", "   ")
	assert.ErrorIs(t, err, services.ErrEmptyMessage)

	_, err = services.NewChatService(nil, nil).Send(context.Background(), "nobody", "c1", "hi")
	assert.ErrorIs(t, err, services.ErrNoRoom)

	_, err = svc.Send(context.Background(), "s", "c2", "hi")
	assert.ErrorIs(t, err, services.ErrNoRoom)
}

func twoRooms(t *testing.T, dial services.Dialer, posted *[]string, mu *sync.Mutex) *services.ChatService {
	t.Helper()
	post := func(id string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			*posted = append(*posted, id)
			mu.Unlock()
			jsonBody(`{"data":{"_id":"m-` + id + `","conversationId":"` + id + `","content":"x"}}`)(w, r)
		}
	}
	api := fakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/conversations/c1/messages":  jsonBody(`{"data":{"messages":[]}}`),
		"GET /api/conversations/c2/messages":  jsonBody(`{"data":{"messages":[]}}`),
		"POST /api/conversations/c1/messages": post("c1"),
		"POST /api/conversations/c2/messages": post("c2"),
	})
	return services.NewChatService(repos.NewMessageRepo(api), dial)
}

func TestWatchedRoomSurvivesOpeningAnother(t *testing.T) {
	ch := &fakeChannel{}
	dial := func(ctx context.Context, token string) (services.Channel, error) { return ch, nil }
	var (
		mu     sync.Mutex
		posted []string
	)
	svc := twoRooms(t, dial, &posted, &mu)
	ctx := context.Background()

	c1, err := svc.Open(ctx, "s", "me", "c1")
	require.NoError(t, err)
	stop := c1.Subscribe(func(services.RoomView) {})

	c2, err := svc.Open(ctx, "s", "me", "c2")
	require.NoError(t, err)
	stop2 := c2.Subscribe(func(services.RoomView) {})
	defer stop2()
	assert.Same(t, c1, svc.Room("s", "c1"), "a watched room stays open")
	assert.Empty(t, ch.left)

	_, err = svc.Send(ctx, "s", "c1", "for c1")
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, []string{"c1"}, posted)
	mu.Unlock()

	ch.onMessage(domain.Message{ID: "p1", ConversationID: "c1", Content: "reply in c1"})
	ch.onMessage(domain.Message{ID: "p2", ConversationID: "c2", Content: "reply in c2"})
	assert.Len(t, c1.View().Entries, 2)
	assert.Len(t, c2.View().Entries, 1)

	// Reopening refreshes in place instead of orphaning the watcher.
	again, err := svc.Open(ctx, "s", "me", "c1")
	require.NoError(t, err)
	assert.Same(t, c1, again)

	stop()
	svc.Release("s", "c1")
	assert.NotNil(t, svc.Room("s", "c1"), "c1 is the focused room")

	_, err = svc.Open(ctx, "s", "me", "c2")
	require.NoError(t, err)
	assert.Nil(t, svc.Room("s", "c1"), "unwatched room left on refocus")
	assert.Equal(t, []string{"c1"}, ch.left)
}

func TestLastStreamClosesTheChannel(t *testing.T) {
	ch := &fakeChannel{}
	dial := func(ctx context.Context, token string) (services.Channel, error) { return ch, nil }
	var mu sync.Mutex
	var posted []string
	svc := twoRooms(t, dial, &posted, &mu)

	room, err := svc.Open(context.Background(), "s", "me", "c1")
	require.NoError(t, err)
	stop := room.Subscribe(func(services.RoomView) {})
	stop()
	svc.Release("s", "c1")

	assert.True(t, ch.closed)
	assert.Nil(t, svc.Room("s", "c1"))
}

func TestDroppedChannelIsRedialed(t *testing.T) {
	var dials []*fakeChannel
	dial := func(ctx context.Context, token string) (services.Channel, error) {
		ch := &fakeChannel{}
		dials = append(dials, ch)
		return ch, nil
	}
	var mu sync.Mutex
	var posted []string
	svc := twoRooms(t, dial, &posted, &mu)
	ctx := context.Background()

	c1, err := svc.Open(ctx, "s", "me", "c1")
	require.NoError(t, err)
	stop := c1.Subscribe(func(services.RoomView) {})
	defer stop()
	require.Len(t, dials, 1)

	dials[0].drop()

	_, err = svc.Open(ctx, "s", "me", "c2")
	require.NoError(t, err)
	require.Len(t, dials, 2, "next open dials again")
	assert.ElementsMatch(t, []string{"c1", "c2"}, dials[1].joins(), "open rooms are rejoined")

	dials[1].onMessage(domain.Message{ID: "live", ConversationID: "c1", Content: "back"})
	assert.Len(t, c1.View().Entries, 1)
}
