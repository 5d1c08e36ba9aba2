package types

// Presence status values used in userStatusUpdate broadcasts.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// UserStatusUpdate is broadcast to all connections whenever a user identity
// goes online or offline.
type UserStatusUpdate struct {
	UserId string `json:"userId"`
	Status string `json:"status"`
}

// DeleteMessage is both the inbound "deleteMessage" payload and the outbound
// "messageDeleted" payload. MessageIds must be a JSON array on the wire.
type DeleteMessage struct {
	ConversationId string   `json:"conversationId"`
	MessageIds     []string `json:"messageIds"`
}

// CallRequest asks the relay to ring another user. FromUser is an opaque
// client-defined object and is forwarded untouched.
type CallRequest struct {
	ToUserId string                 `json:"toUserId" mapstructure:"toUserId"`
	FromUser map[string]interface{} `json:"fromUser" mapstructure:"fromUser"`
	CallType string                 `json:"callType" mapstructure:"callType"`
	Offer    interface{}            `json:"offer,omitempty" mapstructure:"offer"`
}

// CallIncoming is the unicast delivered to the callee.
type CallIncoming struct {
	FromUser map[string]interface{} `json:"fromUser"`
	CallType string                 `json:"callType"`
	Offer    interface{}            `json:"offer,omitempty"`
}

// CallUnreachable is returned to the caller when the callee is not online.
type CallUnreachable struct {
	ToUserId string `json:"toUserId"`
}

// CallSignal is the inbound payload of call:accept, call:reject and call:end.
type CallSignal struct {
	ToUserId string      `json:"toUserId" mapstructure:"toUserId"`
	Metadata interface{} `json:"metadata,omitempty" mapstructure:"metadata"`
}

// CallNotify is the outbound payload of call:accepted, call:rejected and
// call:ended. FromSocketId names the connection that acted.
type CallNotify struct {
	FromSocketId string      `json:"fromSocketId"`
	Metadata     interface{} `json:"metadata,omitempty"`
}

// WebRTCSignal is the inbound payload of the webrtc:* events. Exactly one of
// Offer, Answer or Candidate is meaningful per event; a null candidate is a
// legitimate end-of-candidates signal.
type WebRTCSignal struct {
	ToUserId  string      `json:"toUserId"`
	Offer     interface{} `json:"offer,omitempty"`
	Answer    interface{} `json:"answer,omitempty"`
	Candidate interface{} `json:"candidate"`
}

// Outbound webrtc forwards. Candidate deliberately has no omitempty, the
// null value must survive the round trip.
type WebRTCOffer struct {
	FromSocketId string      `json:"fromSocketId"`
	Offer        interface{} `json:"offer"`
}

type WebRTCAnswer struct {
	FromSocketId string      `json:"fromSocketId"`
	Answer       interface{} `json:"answer"`
}

type WebRTCCandidate struct {
	FromSocketId string      `json:"fromSocketId"`
	Candidate    interface{} `json:"candidate"`
}

// WebRTCError is returned to the sender when the target identity does not
// resolve to a live connection.
type WebRTCError struct {
	Message  string `json:"message"`
	ToUserId string `json:"toUserId"`
}
