package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SendToAllConnectionsOfUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient(1, nil), NewClient(1, nil), NewClient(2, nil)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	require.NoError(t, h.SendJSON(1, map[string]string{"type": "notification"}))
	for _, c := range []*Client{a1, a2} {
		select {
		case raw := <-c.send:
			var got map[string]string
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "notification", got["type"])
		default:
			t.Fatal("expected a queued frame")
		}
	}
	assert.Empty(t, b.send)
	assert.False(t, h.Send(3, []byte("x")))
}

func TestHub_UnregisterReportsRemainingConnections(t *testing.T) {
	h := NewHub()
	a1, a2 := NewClient(1, nil), NewClient(1, nil)
	h.Register(a1)
	h.Register(a2)

	assert.True(t, h.Unregister(a1))
	assert.True(t, h.Online(1))
	assert.False(t, h.Unregister(a2))
	assert.False(t, h.Online(1))
	assert.False(t, h.Send(1, []byte("x")))
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := NewHub()
	c := NewClient(1, nil)
	h.Register(c)

	for i := 0; i < cap(c.send); i++ {
		require.True(t, h.Send(1, []byte("x")))
	}
	assert.False(t, h.Send(1, []byte("overflow")))
	assert.False(t, h.Online(1))
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub()
	a, b := NewClient(1, nil), NewClient(2, nil)
	h.Register(a)
	h.Register(b)

	h.CloseAll()
	assert.Zero(t, h.OnlineCount())
	assert.False(t, h.Send(1, []byte("x")))
	// 已关闭连接的发送通道被关闭
	_, ok := <-a.send
	assert.False(t, ok)
	h.CloseAll()
}
