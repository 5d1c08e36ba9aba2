package ws

import (
	"encoding/json"
	"time"

	"github.com/folkengine/goname"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wavelink-chat/wavelink-relay/globals"
	"github.com/wavelink-chat/wavelink-relay/types"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	// ID is the transport-assigned connection identifier, live for the
	// duration of one session.
	ID string

	// Label is a generated guest name used in log output until (and unless)
	// a user identity is bound to the connection.
	Label string

	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	Send chan []byte

	// identity bound via userOnline, only touched from the read loop
	userID string
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Label: goname.New(goname.FantasyMap).FirstLast() + " (guest)",
		hub:   hub,
		conn:  conn,
		Send:  make(chan []byte, sendChannelSize),
	}
}

// UserID returns the identity last bound to this connection, or "".
func (c *Client) UserID() string {
	return c.userID
}

// ReadLoop pumps frames from the websocket connection into the event router.
//
// The application runs ReadLoop in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Debug("websocket closed unexpectedly", "conn", c.ID, "error", err)
			}
			return
		}
		msg := &types.WebsocketMessage{}
		if err := json.Unmarshal(raw, msg); err != nil {
			// malformed input is dropped, the connection stays up
			globals.AppLogger.Debug("could not unmarshal frame", "conn", c.ID, "error", err)
			continue
		}
		c.hub.Route(c, msg)
	}
}

// WriteLoop pumps frames from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				globals.AppLogger.Debug("could not write to ws connection, exiting write loop", "conn", c.ID)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				globals.AppLogger.Debug("could not send ping message, exiting write loop", "conn", c.ID)
				return
			}
		}
	}
}
