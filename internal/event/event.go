package event

import "encoding/json"

// WsEvent is the envelope for every frame on the persistent connection.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New wraps a payload into an envelope.
func New(name string, payload interface{}) (WsEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}
