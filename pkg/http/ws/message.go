package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeEvent = "event"
	TypePing  = "ping"

	// Server -> Client
	TypeView  = "view"
	TypeError = "error"
	TypePong  = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a message of the given type. A nil payload
// leaves Payload empty.
func NewMessage(typ string, payload any, requestID string) (Message, error) {
	msg := Message{Type: typ, RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// EventPayload is a gameplay event sent by the client. Choice is only read for
// submit_answer.
type EventPayload struct {
	Event       string `json:"event"`
	ScenarioKey string `json:"scenario_key,omitempty"`
	Choice      *int   `json:"choice,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
