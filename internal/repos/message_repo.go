package repos

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"rentalhub/internal/domain"
)

type MessageRepo struct{ api *Client }

func NewMessageRepo(api *Client) *MessageRepo { return &MessageRepo{api: api} }

func (r *MessageRepo) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	res, err := r.api.get(ctx, "/conversations", nil)
	if err != nil {
		return nil, err
	}
	rows := list(res)
	out := make([]domain.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.api.conversation(row))
	}
	return out, nil
}

// Start returns the conversation with the given user, creating it on first contact.
func (r *MessageRepo) Start(ctx context.Context, peerID string) (domain.Conversation, error) {
	res, err := r.api.do(ctx, "POST", "/conversations", map[string]string{"participantId": peerID})
	if err != nil {
		return domain.Conversation{}, err
	}
	if c := field(res, "conversation"); c.IsObject() {
		res = c
	}
	return r.api.conversation(res), nil
}

// History returns messages oldest first.
func (r *MessageRepo) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	res, err := r.api.get(ctx, "/conversations/"+url.PathEscape(conversationID)+"/messages", nil)
	if err != nil {
		return nil, err
	}
	rows := list(res)
	out := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		m := message(row)
		if m.ConversationID == "" {
			m.ConversationID = conversationID
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MessageRepo) Send(ctx context.Context, conversationID, content string) (domain.Message, error) {
	res, err := r.api.do(ctx, "POST", "/conversations/"+url.PathEscape(conversationID)+"/messages",
		map[string]string{"content": content})
	if err != nil {
		return domain.Message{}, err
	}
	if m := field(res, "message"); m.IsObject() {
		res = m
	}
	m := message(res)
	if m.ConversationID == "" {
		m.ConversationID = conversationID
	}
	return m, nil
}

// DecodeMessage maps a message pushed over the chat socket.
func DecodeMessage(raw []byte) domain.Message {
	r := payload(gjson.ParseBytes(raw))
	if m := field(r, "message"); m.IsObject() {
		r = m
	}
	return message(r)
}
