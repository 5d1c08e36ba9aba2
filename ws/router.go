package ws

import (
	"encoding/json"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/wavelink-chat/wavelink-relay/filter"
	"github.com/wavelink-chat/wavelink-relay/globals"
	"github.com/wavelink-chat/wavelink-relay/types"
)

// Route dispatches one inbound frame to its handler. Unknown events and
// malformed payloads are dropped without a reply; the only error surfaced to
// a sender is an unresolved call/signaling target.
func (h *Hub) Route(c *Client, msg *types.WebsocketMessage) {
	switch msg.Event {
	case types.EventUserOnline:
		h.handleUserOnline(c, msg.Data)
	case types.EventGetOnlineUsers:
		h.reply(c, types.EventOnlineUsers, h.Presence.AllUserIDs())
	case types.EventJoin:
		h.handleJoin(c, msg.Data)
	case types.EventMessage:
		h.handleMessage(c, msg.Data)
	case types.EventDeleteMessage:
		h.handleDeleteMessage(c, msg.Data)
	case types.EventCallRequest:
		h.handleCallRequest(c, msg.Data)
	case types.EventCallAccept:
		h.relayCallSignal(c, msg.Data, types.EventCallAccepted, true)
	case types.EventCallReject:
		h.relayCallSignal(c, msg.Data, types.EventCallRejected, false)
	case types.EventCallEnd:
		h.relayCallSignal(c, msg.Data, types.EventCallEnded, false)
	case types.EventWebRTCOffer, types.EventWebRTCAnswer, types.EventWebRTCCandidate:
		h.relayWebRTC(c, msg.Data, msg.Event)
	default:
		globals.AppLogger.Debug("unknown event", "event", msg.Event, "conn", c.ID)
	}
}

// handleUserOnline binds a user identity to the calling connection,
// broadcasts the online status and replies with the full online list. A
// registration for an identity already bound to another connection silently
// replaces that mapping; the superseded connection is left alone and its
// eventual disconnect no longer matches a registry entry.
func (h *Hub) handleUserOnline(c *Client, data json.RawMessage) {
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil || userID == "" {
		return
	}
	h.Presence.SetOnline(userID, c.ID)
	c.userID = userID
	globals.AppLogger.Info("user online", "user", userID, "conn", c.ID)
	h.Broadcast(types.EventUserStatusUpdate, types.UserStatusUpdate{UserId: userID, Status: types.StatusOnline})
	h.reply(c, types.EventOnlineUsers, h.Presence.AllUserIDs())
}

func (h *Hub) handleJoin(c *Client, data json.RawMessage) {
	var conversationID string
	if err := json.Unmarshal(data, &conversationID); err != nil || conversationID == "" {
		return
	}
	h.Rooms.Join(c.ID, conversationID)
	globals.AppLogger.Debug("joined room", "conn", c.ID, "room", conversationID)
}

// handleMessage relays a chat message: the raw payload is echoed to the
// conversation room, and a normalized summary is broadcast process-wide.
func (h *Hub) handleMessage(c *Client, data json.RawMessage) {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	msg := types.Message{}
	if err := mapstructure.WeakDecode(raw, &msg); err != nil {
		globals.AppLogger.Debug("could not decode message", "conn", c.ID, "error", err)
		return
	}
	if msg.ConversationId == "" {
		return
	}
	msg.ApplyDefaults(time.Now())

	filterSource := ""
	if h.cfg != nil {
		filterSource = h.cfg.FilterForRoom(msg.ConversationId)
	}
	env := filter.Env{
		ConversationId: msg.ConversationId,
		Text:           msg.Text,
		Type:           msg.Type,
		UserId:         c.userID,
		Label:          c.Label,
	}
	if !h.filter.Admit(filterSource, env) {
		globals.AppLogger.Debug("message rejected by filter", "conn", c.ID, "room", msg.ConversationId)
		return
	}

	if err := msg.CreateId(); err == nil {
		globals.AppLogger.Debug("relaying message", "id", msg.Id, "room", msg.ConversationId, "type", msg.Type)
	}
	h.broadcastRoomRaw(msg.ConversationId, types.EventMessage, data)
	summary := msg.Summary()
	h.pushRecent(summary)
	h.Broadcast(types.EventNewMessage, summary)
}

func (h *Hub) handleDeleteMessage(c *Client, data json.RawMessage) {
	del := types.DeleteMessage{}
	// strict decode: messageIds must be a JSON array of strings
	if err := json.Unmarshal(data, &del); err != nil {
		return
	}
	if del.ConversationId == "" || del.MessageIds == nil {
		return
	}
	globals.AppLogger.Debug("deleting messages", "room", del.ConversationId, "count", len(del.MessageIds))
	h.BroadcastRoom(del.ConversationId, types.EventMessageDeleted, del)
}

// handleCallRequest rings the target user. An unresolved target is surfaced
// to the caller as call:unreachable.
func (h *Hub) handleCallRequest(c *Client, data json.RawMessage) {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	req := types.CallRequest{}
	if err := mapstructure.WeakDecode(raw, &req); err != nil {
		globals.AppLogger.Debug("could not decode call request", "conn", c.ID, "error", err)
		return
	}
	incoming := types.CallIncoming{
		FromUser: req.FromUser,
		CallType: req.CallType,
		Offer:    req.Offer,
	}
	if h.UnicastUser(req.ToUserId, types.EventCallIncoming, incoming) {
		h.countCall()
		globals.AppLogger.Info("call request", "from", c.userID, "to", req.ToUserId, "type", req.CallType)
	} else {
		globals.AppLogger.Info("call target not online", "to", req.ToUserId)
		h.reply(c, types.EventCallUnreachable, types.CallUnreachable{ToUserId: req.ToUserId})
	}
}

// relayCallSignal forwards call:accept, call:reject and call:end to the
// target user. An unresolved target is a silent drop.
func (h *Hub) relayCallSignal(c *Client, data json.RawMessage, outEvent string, withMetadata bool) {
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	sig := types.CallSignal{}
	if err := mapstructure.WeakDecode(raw, &sig); err != nil {
		globals.AppLogger.Debug("could not decode call signal", "conn", c.ID, "error", err)
		return
	}
	notify := types.CallNotify{FromSocketId: c.ID}
	if withMetadata {
		notify.Metadata = sig.Metadata
	}
	if h.UnicastUser(sig.ToUserId, outEvent, notify) {
		globals.AppLogger.Info("call signal", "event", outEvent, "from", c.userID, "to", sig.ToUserId)
	} else {
		globals.AppLogger.Debug("call signal target not online", "event", outEvent, "to", sig.ToUserId)
	}
}

// relayWebRTC forwards offer/answer/candidate frames to the target user,
// attaching the originating connection id. A null candidate is a legitimate
// end-of-candidates marker and is forwarded as-is; an unresolved target is
// reported back to the sender as webrtc:error.
func (h *Hub) relayWebRTC(c *Client, data json.RawMessage, event string) {
	sig := types.WebRTCSignal{}
	if err := json.Unmarshal(data, &sig); err != nil {
		return
	}
	var payload interface{}
	switch event {
	case types.EventWebRTCOffer:
		payload = types.WebRTCOffer{FromSocketId: c.ID, Offer: sig.Offer}
	case types.EventWebRTCAnswer:
		payload = types.WebRTCAnswer{FromSocketId: c.ID, Answer: sig.Answer}
	case types.EventWebRTCCandidate:
		payload = types.WebRTCCandidate{FromSocketId: c.ID, Candidate: sig.Candidate}
	}
	if h.UnicastUser(sig.ToUserId, event, payload) {
		globals.AppLogger.Debug("signal forwarded", "event", event, "from", c.userID, "to", sig.ToUserId)
	} else {
		h.reply(c, types.EventWebRTCError, types.WebRTCError{Message: "Target not online", ToUserId: sig.ToUserId})
	}
}
