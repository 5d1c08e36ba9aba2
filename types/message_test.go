package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)

	m := Message{ConversationId: "r1"}
	m.ApplyDefaults(now)
	assert.Equal(t, "", m.Text)
	assert.Equal(t, DefaultMessageType, m.Type)
	assert.Equal(t, "2021-03-14T15:09:26Z", m.CreatedAt)

	m = Message{ConversationId: "r1", Text: "hi", Type: "image", CreatedAt: "2020-01-01T00:00:00Z"}
	m.ApplyDefaults(now)
	assert.Equal(t, "image", m.Type)
	assert.Equal(t, "2020-01-01T00:00:00Z", m.CreatedAt)
}

func TestCreateIdStable(t *testing.T) {
	a := Message{ConversationId: "r1", Text: "hi", Type: "text", CreatedAt: "2020-01-01T00:00:00Z"}
	b := a
	require.NoError(t, a.CreateId())
	require.NoError(t, b.CreateId())
	assert.Equal(t, a.Id, b.Id)

	c := a
	c.Text = "bye"
	require.NoError(t, c.CreateId())
	assert.NotEqual(t, a.Id, c.Id)

	// the derived id itself must not feed back into the hash
	d := a
	d.Id = "bogus"
	require.NoError(t, d.CreateId())
	assert.Equal(t, a.Id, d.Id)
}

func TestSummaryWireShape(t *testing.T) {
	m := Message{ConversationId: "r1", Text: "hi", Type: "text", CreatedAt: "2020-01-01T00:00:00Z"}
	data, err := json.Marshal(m.Summary())
	require.NoError(t, err)
	assert.JSONEq(t, `{"conversationId":"r1","message":{"text":"hi","createdAt":"2020-01-01T00:00:00Z","type":"text"}}`, string(data))
}

func TestMessageIdNotOnWire(t *testing.T) {
	m := Message{ConversationId: "r1", Text: "hi"}
	require.NoError(t, m.CreateId())
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(data), m.Id)
}
