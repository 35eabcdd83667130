package dto

import "encoding/json"

// Wire envelope for every frame on the chat socket, both directions.
// Inbound events: "join-group", "send-message".
// Outbound events: "joined-group", "receive-message", "error".
type WsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinGroupData struct {
	GroupId string `json:"group_id"`
}

type SendMessageData struct {
	GroupId string `json:"group_id"`
	Message string `json:"message"`
}

type JoinedGroupPayload struct {
	GroupId string `json:"group_id"`
}

// ReceiveMessagePayload is fanned out to every subscriber of the room,
// the sender included.
type ReceiveMessagePayload struct {
	Id        string `json:"id"`
	GroupId   string `json:"group_id"`
	Sender    string `json:"sender"`
	SenderId  string `json:"sender_id"`
	Message   string `json:"message"`
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"timestamp"`
}

// WsErrorPayload is a directed ack: it goes only to the session whose
// request failed, never to the room.
type WsErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
