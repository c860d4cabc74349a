package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/playback"
	"github.com/louismark-dev/listen-together/pkg/protocol"
)

// tickInterval drives the guest's optimistic position clock.
const tickInterval = time.Second

// guestMirror has no real player. Inbound events are projected directly
// onto the local mirror; local intents are forwarded to the room and the
// mirror waits for the coordinator's authoritative echo.
type guestMirror struct {
	c      *Controller
	ticker *tickerHandle
}

func newGuestMirror(c *Controller) *guestMirror {
	g := &guestMirror{c: c}
	g.ticker = startTicker(tickInterval, func() {
		c.post(tick{owner: g})
	})
	return g
}

func (g *guestMirror) localIntent(m Msg) {
	c := g.c
	switch msg := m.(type) {
	case Play:
		c.emitRoom(protocol.EventPlay, nil)
	case Pause:
		c.emitRoom(protocol.EventPause, nil)
	case SkipNext:
		c.emitRoom(protocol.EventForward, nil)
	case SkipPrevious:
		c.emitRoom(protocol.EventPrevious, nil)
	case Seek:
		c.emitRoom(protocol.EventSeekTo, msg.Seconds)
	case AppendTracks:
		c.emitRoom(protocol.EventAppendToQueue, msg.Tracks)
	case PrependTracks:
		c.emitRoom(protocol.EventPrependToQueue, msg.Tracks)
	case RemoveTrack:
		c.emitRoom(protocol.EventRemoveFromQueue, msg.Index)
	case MoveTrackToStart:
		c.emitRoom(protocol.EventMoveToStartOfQueue, msg.Index)
	}
}

func (g *guestMirror) roomEvent(f protocol.Frame) {
	c := g.c
	switch f.Event {
	case protocol.EventPlay:
		c.transport.Status = playback.StatusPlaying

	case protocol.EventPause:
		c.transport.Status = playback.StatusPaused

	case protocol.EventForward:
		c.queue.SkipToNext()
		c.transport.PlaybackTime = 0

	case protocol.EventPrevious:
		c.queue.SkipToPrevious()
		c.transport.PlaybackTime = 0

	case protocol.EventSeekTo:
		_, seconds, err := protocol.RoomData[float64](f)
		if err != nil {
			c.log.Warn("dropping malformed seek", zap.Error(err))
			return
		}
		c.transport.PlaybackTime = seconds

	case protocol.EventNowPlayingIndexChanged:
		_, index, err := protocol.RoomData[int](f)
		if err != nil {
			c.log.Warn("dropping malformed index change", zap.Error(err))
			return
		}
		if err := c.queue.SetNowPlayingIndex(index); err != nil {
			c.log.Warn("index change out of range", zap.Int("index", index))
			return
		}
		// The simulated clock restarts at the new track.
		c.transport.PlaybackTime = 0

	case protocol.EventAppendToQueue:
		_, tracks, err := protocol.RoomData[[]playback.Track](f)
		if err != nil {
			c.log.Warn("dropping malformed append", zap.Error(err))
			return
		}
		c.queue.Append(tracks)

	case protocol.EventPrependToQueue:
		_, tracks, err := protocol.RoomData[[]playback.Track](f)
		if err != nil {
			c.log.Warn("dropping malformed prepend", zap.Error(err))
			return
		}
		c.queue.Prepend(tracks)

	case protocol.EventRemoveFromQueue:
		_, index, err := protocol.RoomData[int](f)
		if err != nil {
			c.log.Warn("dropping malformed remove", zap.Error(err))
			return
		}
		if err := c.queue.RemoveAt(index); err != nil {
			c.log.Warn("remove out of range", zap.Int("index", index))
			return
		}

	case protocol.EventMoveToStartOfQueue:
		_, index, err := protocol.RoomData[int](f)
		if err != nil {
			c.log.Warn("dropping malformed move", zap.Error(err))
			return
		}
		if err := c.queue.MoveToStartOfQueue(index); err != nil {
			c.log.Warn("move out of range", zap.Int("index", index))
			return
		}

	case protocol.EventStateUpdate:
		_, snap, err := protocol.RoomData[playback.Snapshot](f)
		if err != nil {
			c.log.Warn("dropping malformed state update", zap.Error(err))
			return
		}
		// Wholesale overwrite; no merging with the local guess.
		c.transport = snap.Restore(c.queue)

	case protocol.EventRequestStateUpdate:
		// Only the coordinator answers these.
		return

	default:
		c.log.Warn("unknown room event", zap.String("event", f.Event))
		return
	}
	c.notifySnapshot()
}

// tick advances the optimistic clock while the mirror believes playback
// is running. Reconciliation overwrites any drift.
func (g *guestMirror) tick() {
	c := g.c
	if c.transport.Status != playback.StatusPlaying {
		return
	}
	c.transport.PlaybackTime += tickInterval.Seconds()
	if c.transport.Duration > 0 && c.transport.PlaybackTime > c.transport.Duration {
		c.transport.PlaybackTime = c.transport.Duration
	}
	c.notifySnapshot()
}

func (g *guestMirror) close() {
	g.ticker.Stop()
}
