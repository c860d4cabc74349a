package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoSession means a room-scoped event was built with no session id
	// set. The event must not be transmitted.
	ErrNoSession = errors.New("no session id set")

	// ErrMissingField means a payload lacked a required key.
	ErrMissingField = errors.New("missing required field")
)

// Frame is the outermost wire unit: an event name plus its payload.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomEnvelope wraps every room-scoped emission. Data holds the typed
// payload JSON-encoded a second time, as a string. The double encoding is
// part of the wire format and must be preserved for compatibility.
type RoomEnvelope struct {
	RoomID string `json:"roomId"`
	Data   string `json:"data,omitempty"`
}

// SessionStarted is the payload of sessionStarted.
type SessionStarted struct {
	SessionID     string `json:"session_id"`
	CoordinatorID string `json:"coordinator_id"`
	ClientID      string `json:"client_id,omitempty"`
}

// AssignedID is the payload of assigningID.
type AssignedID struct {
	ID string `json:"id"`
}

// JoinRequest is the payload of joinSession.
type JoinRequest struct {
	SessionID string `json:"sessionId"`
}

// NewFrame builds a frame with payload marshalled in place. A nil payload
// produces a bare frame.
func NewFrame(event string, payload any) (Frame, error) {
	f := Frame{Event: event}
	if payload == nil {
		return f, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	f.Payload = b
	return f, nil
}

// NewRoomFrame builds a room-scoped frame. It fails with ErrNoSession
// when roomID is empty; callers must treat that as a local precondition
// failure and not transmit. A nil data leaves the envelope bare (the
// transport commands carry only the room id).
func NewRoomFrame(event, roomID string, data any) (Frame, error) {
	if roomID == "" {
		return Frame{}, fmt.Errorf("%s: %w", event, ErrNoSession)
	}
	env := RoomEnvelope{RoomID: roomID}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s data: %w", event, err)
		}
		env.Data = string(b)
	}
	return NewFrame(event, env)
}

// Marshal encodes the frame for the wire.
func (f Frame) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses an inbound wire frame.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: %w: event", ErrMissingField)
	}
	return f, nil
}

// RoomEnvelopeOf extracts the room envelope from a room-scoped frame.
func RoomEnvelopeOf(f Frame) (RoomEnvelope, error) {
	var env RoomEnvelope
	if err := json.Unmarshal(f.Payload, &env); err != nil {
		return RoomEnvelope{}, fmt.Errorf("decode %s envelope: %w", f.Event, err)
	}
	if env.RoomID == "" {
		return RoomEnvelope{}, fmt.Errorf("decode %s envelope: %w: roomId", f.Event, ErrMissingField)
	}
	return env, nil
}

// RoomData decodes the double-encoded data of a room-scoped frame into T.
func RoomData[T any](f Frame) (string, T, error) {
	var zero T
	env, err := RoomEnvelopeOf(f)
	if err != nil {
		return "", zero, err
	}
	var data T
	if err := json.Unmarshal([]byte(env.Data), &data); err != nil {
		return "", zero, fmt.Errorf("decode %s data: %w", f.Event, err)
	}
	return env.RoomID, data, nil
}

// DecodePayload decodes a bare (non room-scoped) payload into T.
func DecodePayload[T any](f Frame) (T, error) {
	var data T
	if err := json.Unmarshal(f.Payload, &data); err != nil {
		return data, fmt.Errorf("decode %s payload: %w", f.Event, err)
	}
	return data, nil
}
