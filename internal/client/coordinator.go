package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/playback"
	"github.com/louismark-dev/listen-together/pkg/protocol"
)

// suppressWindow is how long a player-reported change is attributed to
// the command that just drove the player, instead of being re-emitted to
// the room.
const suppressWindow = time.Second

type suppressKind string

const (
	suppressIndex  suppressKind = "index"
	suppressStatus suppressKind = "status"
)

// coordinatorMirror owns the real player. Every mutation goes through
// the player first; the mirror and the room only learn about it once the
// player has confirmed.
type coordinatorMirror struct {
	c      *Controller
	player Player

	indexSuppressed  bool
	statusSuppressed bool
	indexTimer       *timerHandle
	statusTimer      *timerHandle
}

func newCoordinatorMirror(c *Controller) *coordinatorMirror {
	return &coordinatorMirror{c: c, player: c.player}
}

func (m *coordinatorMirror) ctx() context.Context {
	if m.c.ctx != nil {
		return m.c.ctx
	}
	return context.Background()
}

func (m *coordinatorMirror) localIntent(msg Msg) {
	m.apply(msg, true)
}

// apply drives the player for a transport or queue command. Locally
// originated commands are emitted to the room afterwards; commands that
// arrived via the relay already reached the other members and are not
// re-emitted.
func (m *coordinatorMirror) apply(msg Msg, emit bool) {
	c := m.c
	if m.player == nil {
		// A device without a player can still hold the coordinator id;
		// it just cannot execute playback commands.
		c.log.Error("coordinator has no player, dropping command")
		return
	}
	switch intent := msg.(type) {
	case Play:
		if !m.confirm("play", m.player.Play(m.ctx())) {
			return
		}
		c.transport.Status = playback.StatusPlaying
		m.arm(suppressStatus)
		if emit {
			c.emitRoom(protocol.EventPlay, nil)
		}

	case Pause:
		if !m.confirm("pause", m.player.Pause(m.ctx())) {
			return
		}
		c.transport.Status = playback.StatusPaused
		m.arm(suppressStatus)
		if emit {
			c.emitRoom(protocol.EventPause, nil)
		}

	case SkipNext:
		if !m.confirm("skip next", m.player.SkipToNext(m.ctx())) {
			return
		}
		c.queue.SkipToNext()
		c.transport.PlaybackTime = 0
		m.arm(suppressIndex)
		if emit {
			c.emitRoom(protocol.EventForward, nil)
		}

	case SkipPrevious:
		if !m.confirm("skip previous", m.player.SkipToPrevious(m.ctx())) {
			return
		}
		c.queue.SkipToPrevious()
		c.transport.PlaybackTime = 0
		m.arm(suppressIndex)
		if emit {
			c.emitRoom(protocol.EventPrevious, nil)
		}

	case Seek:
		if !m.confirm("seek", m.player.SeekTo(m.ctx(), intent.Seconds)) {
			return
		}
		c.transport.PlaybackTime = intent.Seconds
		if emit {
			c.emitRoom(protocol.EventSeekTo, intent.Seconds)
		}

	case AppendTracks:
		if !m.confirm("append", m.player.Append(m.ctx(), intent.Tracks)) {
			return
		}
		c.queue.Append(intent.Tracks)
		if emit {
			c.emitRoom(protocol.EventAppendToQueue, intent.Tracks)
		}

	case PrependTracks:
		if !m.confirm("prepend", m.player.Prepend(m.ctx(), intent.Tracks)) {
			return
		}
		c.queue.Prepend(intent.Tracks)
		if emit {
			c.emitRoom(protocol.EventPrependToQueue, intent.Tracks)
		}

	case RemoveTrack:
		next := m.cloneQueue()
		if err := next.RemoveAt(intent.Index); err != nil {
			c.log.Warn("remove out of range", zap.Int("index", intent.Index))
			return
		}
		if !m.confirm("remove", m.player.ApplyQueue(m.ctx(), next.Tracks(), next.NowPlayingIndex())) {
			return
		}
		c.queue = next
		m.arm(suppressIndex)
		if emit {
			c.emitRoom(protocol.EventRemoveFromQueue, intent.Index)
		}

	case MoveTrackToStart:
		next := m.cloneQueue()
		if err := next.MoveToStartOfQueue(intent.Index); err != nil {
			c.log.Warn("move out of range", zap.Int("index", intent.Index))
			return
		}
		if !m.confirm("move", m.player.ApplyQueue(m.ctx(), next.Tracks(), next.NowPlayingIndex())) {
			return
		}
		c.queue = next
		m.arm(suppressIndex)
		if emit {
			c.emitRoom(protocol.EventMoveToStartOfQueue, intent.Index)
		}

	default:
		return
	}
	c.notifySnapshot()
}

func (m *coordinatorMirror) roomEvent(f protocol.Frame) {
	c := m.c
	switch f.Event {
	case protocol.EventRequestStateUpdate:
		// The only pull-based reconciliation path: push the full state.
		c.emitRoom(protocol.EventStateUpdate, playback.TakeSnapshot(c.transport, c.queue))

	case protocol.EventPlay:
		m.apply(Play{}, false)
	case protocol.EventPause:
		m.apply(Pause{}, false)
	case protocol.EventForward:
		m.apply(SkipNext{}, false)
	case protocol.EventPrevious:
		m.apply(SkipPrevious{}, false)

	case protocol.EventSeekTo:
		_, seconds, err := protocol.RoomData[float64](f)
		if err != nil {
			c.log.Warn("dropping malformed seek", zap.Error(err))
			return
		}
		m.apply(Seek{Seconds: seconds}, false)

	case protocol.EventAppendToQueue, protocol.EventPrependToQueue,
		protocol.EventRemoveFromQueue, protocol.EventMoveToStartOfQueue,
		protocol.EventNowPlayingIndexChanged, protocol.EventStateUpdate:
		// Only the coordinator emits these. Receiving one means a confused
		// peer; the authoritative state stays as it is.
		c.log.Warn("ignoring non-coordinator mutation", zap.String("event", f.Event))

	default:
		c.log.Warn("unknown room event", zap.String("event", f.Event))
	}
}

// playerEvent folds changes the real player made on its own back into
// the mirror and, unless a just-issued command explains them, into the
// room.
func (m *coordinatorMirror) playerEvent(ev PlayerEvent) {
	c := m.c
	switch ev.Kind {
	case PlayerTimeChanged:
		c.transport.PlaybackTime = ev.Seconds
		if ev.Duration > 0 {
			c.transport.Duration = ev.Duration
		}

	case PlayerStatusChanged:
		c.transport.Status = ev.Status
		if !m.statusSuppressed {
			switch ev.Status {
			case playback.StatusPlaying:
				c.emitRoom(protocol.EventPlay, nil)
			case playback.StatusPaused:
				c.emitRoom(protocol.EventPause, nil)
			}
		}

	case PlayerIndexChanged:
		if err := c.queue.SetNowPlayingIndex(ev.Index); err != nil {
			c.log.Warn("player index out of range", zap.Int("index", ev.Index))
			return
		}
		c.transport.PlaybackTime = 0
		if !m.indexSuppressed {
			c.emitRoom(protocol.EventNowPlayingIndexChanged, ev.Index)
		}

	case PlayerQueueReordered:
		unmatched := c.queue.SetQueueTo(ev.OrderedStoreIDs, ev.NewTracks)
		for _, id := range unmatched {
			c.log.Warn("no track for reordered id", zap.String("storeID", id))
		}
		c.emitRoom(protocol.EventStateUpdate, playback.TakeSnapshot(c.transport, c.queue))

	default:
		return
	}
	c.notifySnapshot()
}

// confirm logs a player-layer failure and reports whether the operation
// may proceed. On failure the prior state stands.
func (m *coordinatorMirror) confirm(op string, err error) bool {
	if err != nil {
		m.c.log.Error("player rejected operation", zap.String("op", op), zap.Error(err))
		return false
	}
	return true
}

func (m *coordinatorMirror) cloneQueue() *playback.Queue {
	next := playback.NewQueue()
	playback.TakeSnapshot(m.c.transport, m.c.queue).Restore(next)
	return next
}

// arm opens a suppression window of the given kind, invalidating any
// previous window of that kind first.
func (m *coordinatorMirror) arm(kind suppressKind) {
	switch kind {
	case suppressIndex:
		m.indexTimer.Stop()
		m.indexSuppressed = true
		m.indexTimer = schedule(suppressWindow, func() {
			m.c.post(suppressExpired{owner: m, kind: suppressIndex})
		})
	case suppressStatus:
		m.statusTimer.Stop()
		m.statusSuppressed = true
		m.statusTimer = schedule(suppressWindow, func() {
			m.c.post(suppressExpired{owner: m, kind: suppressStatus})
		})
	}
}

func (m *coordinatorMirror) suppressExpired(kind suppressKind) {
	switch kind {
	case suppressIndex:
		m.indexSuppressed = false
	case suppressStatus:
		m.statusSuppressed = false
	}
}

func (m *coordinatorMirror) close() {
	m.indexTimer.Stop()
	m.statusTimer.Stop()
}
