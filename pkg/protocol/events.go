// Package protocol defines the wire format shared by the relay server and
// the client synchronization controller: event names, the frame envelope,
// and the room-scoped payload encoding.
package protocol

// Session lifecycle events. These carry bare payloads, not a room
// envelope.
const (
	EventStartSession   = "startSession"
	EventSessionStarted = "sessionStarted"
	EventJoinSession    = "joinSession"
	EventJoinFailed     = "joinFailed"
	EventAssigningID    = "assigningID"
)

// Transport commands. Room envelope with no data.
const (
	EventPlay     = "playEvent"
	EventPause    = "pauseEvent"
	EventForward  = "forwardEvent"
	EventPrevious = "previousEvent"
)

// Queue mutation commands. Room envelope with a typed payload.
const (
	EventAppendToQueue      = "appendToQueue"
	EventPrependToQueue     = "prependToQueue"
	EventRemoveFromQueue    = "removeFromQueueEvent"
	EventMoveToStartOfQueue = "moveToStartOfQueueEvent"
)

// Synchronization commands.
const (
	EventSeekTo                 = "seekToEvent"
	EventNowPlayingIndexChanged = "nowPlayingIndexDidChangeEvent"
	EventStateUpdate            = "stateUpdate"
	EventRequestStateUpdate     = "requestStateUpdate"
)
