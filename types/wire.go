package types

import "encoding/json"

// Inbound event names.
const (
	EventUserOnline      = "userOnline"
	EventGetOnlineUsers  = "getOnlineUsers"
	EventJoin            = "join"
	EventMessage         = "message"
	EventDeleteMessage   = "deleteMessage"
	EventCallRequest     = "call:request"
	EventCallAccept      = "call:accept"
	EventCallReject      = "call:reject"
	EventCallEnd         = "call:end"
	EventWebRTCOffer     = "webrtc:offer"
	EventWebRTCAnswer    = "webrtc:answer"
	EventWebRTCCandidate = "webrtc:candidate"
)

// Outbound event names.
const (
	EventOnlineUsers      = "onlineUsers"
	EventUserStatusUpdate = "userStatusUpdate"
	EventNewMessage       = "newMessage"
	EventMessageDeleted   = "messageDeleted"
	EventCallIncoming     = "call:incoming"
	EventCallUnreachable  = "call:unreachable"
	EventCallAccepted     = "call:accepted"
	EventCallRejected     = "call:rejected"
	EventCallEnded        = "call:ended"
	EventWebRTCError      = "webrtc:error"
)

// JSON-serialized WebsocketMessage is what is actually sent via the Websocket connection
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewWebsocketMessage marshals payload into a complete wire frame for the given event.
func NewWebsocketMessage(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebsocketMessage{Event: event, Data: data})
}
