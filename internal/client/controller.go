// Package client implements the synchronization controller: the
// role-dependent mirror of a session's playback state. The coordinator
// flavor drives the real player and emits authoritative events; the
// guest flavor projects inbound events onto a local mirror and forwards
// user intents to the room.
package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/playback"
	"github.com/louismark-dev/listen-together/internal/session"
	"github.com/louismark-dev/listen-together/pkg/protocol"
)

type Msg interface{ isCtrlMsg() }

// Local user intents. Whether they mutate anything locally depends on
// the current role; guests only forward them.
type Play struct{}
type Pause struct{}
type SkipNext struct{}
type SkipPrevious struct{}
type Seek struct{ Seconds float64 }
type AppendTracks struct{ Tracks []playback.Track }
type PrependTracks struct{ Tracks []playback.Track }
type RemoveTrack struct{ Index int }
type MoveTrackToStart struct{ Index int }

// Session lifecycle requests.
type StartSession struct{}
type JoinSession struct{ Code string }

// GetSnapshot reflects the mirror without races; used by tests and UI
// pulls.
type GetSnapshot struct{ Reply chan playback.Snapshot }

type Shutdown struct{}

func (Play) isCtrlMsg()             {}
func (Pause) isCtrlMsg()            {}
func (SkipNext) isCtrlMsg()         {}
func (SkipPrevious) isCtrlMsg()     {}
func (Seek) isCtrlMsg()             {}
func (AppendTracks) isCtrlMsg()     {}
func (PrependTracks) isCtrlMsg()    {}
func (RemoveTrack) isCtrlMsg()      {}
func (MoveTrackToStart) isCtrlMsg() {}
func (StartSession) isCtrlMsg()     {}
func (JoinSession) isCtrlMsg()      {}
func (GetSnapshot) isCtrlMsg()      {}
func (Shutdown) isCtrlMsg()         {}

// internal timer-origin messages
type tick struct{ owner *guestMirror }
type suppressExpired struct {
	owner *coordinatorMirror
	kind  suppressKind
}

func (tick) isCtrlMsg()            {}
func (suppressExpired) isCtrlMsg() {}

// UpdateKind tags controller notifications to observers.
type UpdateKind string

const (
	UpdateSnapshot     UpdateKind = "snapshot"
	UpdateSession      UpdateKind = "session"
	UpdateJoinFailed   UpdateKind = "joinFailed"
	UpdateDisconnected UpdateKind = "disconnected"
)

// Update is delivered to observers in registration order, on the
// controller goroutine.
type Update struct {
	Kind     UpdateKind
	Snapshot playback.Snapshot
	Session  session.State
}

// mirror is the role-flavored behavior. Exactly one instance is live at
// a time; a role switch discards it and builds the other flavor fresh,
// so a demoted client never keeps a handle on the real player.
type mirror interface {
	localIntent(m Msg)
	roomEvent(f protocol.Frame)
	close()
}

// Controller owns the playback mirror. All state mutation happens on the
// Run goroutine; inbound frames, player events, timers and local intents
// are all funneled onto it.
type Controller struct {
	inbox     chan Msg
	relay     Relay
	player    Player
	registry  *session.Registry
	queue     *playback.Queue
	transport playback.Transport
	role      mirror
	observers []func(Update)
	log       *zap.Logger
	ctx       context.Context

	lastSessionID string
}

// NewController wires the controller to a relay connection and the
// device player. The player may be nil on devices that can never become
// coordinator.
func NewController(relay Relay, player Player, log *zap.Logger) *Controller {
	c := &Controller{
		inbox:     make(chan Msg, 64),
		relay:     relay,
		player:    player,
		registry:  session.NewRegistry(),
		queue:     playback.NewQueue(),
		transport: playback.NewTransport(),
		log:       log,
	}
	c.registry.Subscribe(c.onSessionChange)
	c.role = newGuestMirror(c)
	return c
}

func (c *Controller) Inbox() chan<- Msg { return c.inbox }

// Subscribe registers an observer. Must be called before Run; observers
// fire synchronously in registration order.
func (c *Controller) Subscribe(fn func(Update)) {
	c.observers = append(c.observers, fn)
}

// Run processes messages until the context ends or the relay connection
// drops.
func (c *Controller) Run(ctx context.Context) {
	c.ctx = ctx
	var playerEvents <-chan PlayerEvent
	if c.player != nil {
		playerEvents = c.player.Events()
	}

	for {
		select {
		case <-ctx.Done():
			c.role.close()
			return

		case m := <-c.inbox:
			if _, ok := m.(Shutdown); ok {
				c.role.close()
				return
			}
			c.dispatch(m)

		case f, ok := <-c.relay.Frames():
			if !ok {
				c.handleDisconnect()
				return
			}
			c.handleFrame(f)

		case ev := <-playerEvents:
			if coord, ok := c.role.(*coordinatorMirror); ok {
				coord.playerEvent(ev)
			}
			// A guest never applies player events; its player is idle.
		}
	}
}

func (c *Controller) dispatch(m Msg) {
	switch msg := m.(type) {
	case StartSession:
		f, err := protocol.NewFrame(protocol.EventStartSession, nil)
		if err != nil {
			c.log.Error("build startSession", zap.Error(err))
			return
		}
		c.emit(f)

	case JoinSession:
		f, err := protocol.NewFrame(protocol.EventJoinSession, protocol.JoinRequest{SessionID: msg.Code})
		if err != nil {
			c.log.Error("build joinSession", zap.Error(err))
			return
		}
		c.emit(f)

	case GetSnapshot:
		msg.Reply <- playback.TakeSnapshot(c.transport, c.queue)

	case tick:
		if g, ok := c.role.(*guestMirror); ok && g == msg.owner {
			g.tick()
		}

	case suppressExpired:
		if coord, ok := c.role.(*coordinatorMirror); ok && coord == msg.owner {
			coord.suppressExpired(msg.kind)
		}

	default:
		c.role.localIntent(m)
	}
}

func (c *Controller) handleFrame(f protocol.Frame) {
	switch f.Event {
	case protocol.EventAssigningID:
		assigned, err := protocol.DecodePayload[protocol.AssignedID](f)
		if err != nil {
			c.log.Warn("dropping malformed assigningID", zap.Error(err))
			return
		}
		c.registry.AssignClientID(assigned.ID)

	case protocol.EventSessionStarted:
		payload, err := protocol.DecodePayload[map[string]string](f)
		if err != nil {
			c.log.Error("malformed sessionStarted", zap.Error(err))
			return
		}
		if err := c.registry.UpdateFromJoin(payload); err != nil {
			// Required keys absent: hard decode error, session unchanged.
			c.log.Error("sessionStarted rejected", zap.Error(err))
			return
		}

	case protocol.EventJoinFailed:
		c.notify(Update{Kind: UpdateJoinFailed, Session: c.registry.State()})

	default:
		env, err := protocol.RoomEnvelopeOf(f)
		if err != nil {
			c.log.Warn("dropping malformed room event",
				zap.String("event", f.Event), zap.Error(err))
			return
		}
		if env.RoomID != c.registry.State().SessionID {
			c.log.Warn("dropping event for other session",
				zap.String("event", f.Event),
				zap.String("session", env.RoomID))
			return
		}
		c.role.roomEvent(f)
	}
}

// onSessionChange runs synchronously inside registry mutations, which
// all happen on the Run goroutine.
func (c *Controller) onSessionChange(s session.State) {
	isCoord := s.IsCoordinator()
	_, haveCoord := c.role.(*coordinatorMirror)
	swapped := isCoord != haveCoord
	if swapped {
		c.role.close()
		if isCoord {
			c.role = newCoordinatorMirror(c)
		} else {
			c.role = newGuestMirror(c)
		}
	}
	// A guest that just entered a session, or was just demoted into one,
	// solicits the coordinator's full state.
	if !isCoord && s.SessionID != "" && (swapped || s.SessionID != c.lastSessionID) {
		c.emitRoom(protocol.EventRequestStateUpdate, nil)
	}
	c.lastSessionID = s.SessionID
	c.notify(Update{Kind: UpdateSession, Session: s})
}

// handleDisconnect clears the session first: the registry change swaps a
// coordinator back to a guest flavor, and closing the role afterwards
// stops whichever flavor survived, so no timer outlives Run.
func (c *Controller) handleDisconnect() {
	c.registry.Clear()
	c.role.close()
	c.notify(Update{Kind: UpdateDisconnected, Session: c.registry.State()})
}

// emitRoom builds and sends a room-scoped event. With no session set the
// event fails locally and nothing is transmitted.
func (c *Controller) emitRoom(event string, data any) {
	f, err := protocol.NewRoomFrame(event, c.registry.State().SessionID, data)
	if err != nil {
		c.log.Warn("not emitting", zap.String("event", event), zap.Error(err))
		return
	}
	c.emit(f)
}

func (c *Controller) emit(f protocol.Frame) {
	if err := c.relay.Emit(f); err != nil {
		// Fire-and-forget: the user never sees this, the event loop does.
		c.log.Warn("emit failed", zap.String("event", f.Event), zap.Error(err))
	}
}

func (c *Controller) notifySnapshot() {
	c.notify(Update{
		Kind:     UpdateSnapshot,
		Snapshot: playback.TakeSnapshot(c.transport, c.queue),
		Session:  c.registry.State(),
	})
}

func (c *Controller) notify(u Update) {
	for _, fn := range c.observers {
		fn(u)
	}
}

// post is for timer-origin messages only; it drops rather than blocks a
// saturated inbox.
func (c *Controller) post(m Msg) {
	select {
	case c.inbox <- m:
	default:
	}
}
