package types

import (
	"strconv"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// DefaultMessageType is assumed when a client sends a message without a type.
const DefaultMessageType = "text"

// Message is a chat message relayed to a conversation room. It is transient,
// nothing here is ever persisted.
type Message struct {
	Id             string `json:"-" mapstructure:"-" hash:"ignore"` // derived, log/feed correlation only
	ConversationId string `json:"conversationId" mapstructure:"conversationId"`
	Text           string `json:"text" mapstructure:"text"`
	Type           string `json:"type" mapstructure:"type"`
	CreatedAt      string `json:"createdAt" mapstructure:"createdAt"`
}

// ApplyDefaults fills the documented defaults for absent fields: type "text",
// createdAt now. An absent text already is the empty string.
func (m *Message) ApplyDefaults(now time.Time) {
	if m.Type == "" {
		m.Type = DefaultMessageType
	}
	if m.CreatedAt == "" {
		m.CreatedAt = now.UTC().Format(time.RFC3339)
	}
}

// CreateId derives a stable id from the message content.
func (m *Message) CreateId() error {
	h, err := hashstructure.Hash(m, hashstructure.FormatV2, nil)
	if err != nil {
		return err
	}
	m.Id = strconv.FormatUint(h, 16)
	return nil
}

// MessageSummary is the normalized message body broadcast process-wide.
type MessageSummary struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
}

// NewMessage is the payload of the process-wide "newMessage" broadcast.
type NewMessage struct {
	ConversationId string         `json:"conversationId"`
	Message        MessageSummary `json:"message"`
}

// Summary returns the normalized form of the message.
func (m *Message) Summary() NewMessage {
	return NewMessage{
		ConversationId: m.ConversationId,
		Message: MessageSummary{
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			Type:      m.Type,
		},
	}
}
