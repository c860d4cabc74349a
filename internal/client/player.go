package client

import (
	"context"

	"github.com/louismark-dev/listen-together/internal/playback"
)

// Player is the on-device playback capability. Only the coordinator
// flavor ever drives it; guests mirror state without one. Calls return
// once the underlying player has confirmed the operation, so the mirror
// is updated only after the real side effect happened.
type Player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SkipToNext(ctx context.Context) error
	SkipToPrevious(ctx context.Context) error
	SeekTo(ctx context.Context, seconds float64) error
	Append(ctx context.Context, tracks []playback.Track) error
	Prepend(ctx context.Context, tracks []playback.Track) error
	ApplyQueue(ctx context.Context, tracks []playback.Track, nowPlayingIndex int) error

	// Events surfaces changes the player makes on its own: elapsed-time
	// progress, track transitions, and internal queue reordering.
	Events() <-chan PlayerEvent
}

type PlayerEventKind string

const (
	PlayerStatusChanged  PlayerEventKind = "statusChanged"
	PlayerTimeChanged    PlayerEventKind = "timeChanged"
	PlayerIndexChanged   PlayerEventKind = "indexChanged"
	PlayerQueueReordered PlayerEventKind = "queueReordered"
)

// PlayerEvent is a change reported by the real player. Fields are
// populated per kind.
type PlayerEvent struct {
	Kind PlayerEventKind

	Status   playback.Status // PlayerStatusChanged
	Seconds  float64         // PlayerTimeChanged position
	Duration float64         // PlayerTimeChanged
	Index    int             // PlayerIndexChanged

	// PlayerQueueReordered: the player's authoritative track order plus
	// any tracks it introduced that the mirror has not seen.
	OrderedStoreIDs []string
	NewTracks       []playback.Track
}
