// Package relay implements the room-scoped broadcast hub: sessions keyed
// by short codes, each owning a member set and fanning events out to
// every member but the sender. The relay never inspects event payloads
// beyond the envelope's room id.
package relay

import (
	"context"

	"go.uber.org/zap"
)

type RoomMsg interface{ isRoomMsg() }

// Join registers a member's outbox. Re-joining with the same client id
// replaces the previous outbox instead of growing the member set.
type Join struct {
	Member Member
	Reply  chan int // member count after join, optional
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// Broadcast fans the raw frame out to every member except the sender.
// The frame bytes are relayed verbatim.
type Broadcast struct {
	SenderID string
	Frame    []byte
}

func (Broadcast) isRoomMsg() {}

type GetInfo struct {
	Reply chan Info
}

func (GetInfo) isRoomMsg() {}

type CloseRoom struct{}

func (CloseRoom) isRoomMsg() {}

// Member is a connection registered in a room: its server-assigned client
// id and the channel its writer goroutine drains.
type Member struct {
	ClientID string
	Outbox   chan []byte
}

// Info is a read-only view of the room for introspection and tests.
type Info struct {
	Code          string
	CoordinatorID string
	NumMembers    int
}

type Room struct {
	code          string
	coordinatorID string
	members       map[string]chan []byte
	inbox         chan RoomMsg
	hub           chan<- HubMsg
	log           *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
}

func newRoom(parent context.Context, code string, coordinator Member, hub chan<- HubMsg, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:          code,
		coordinatorID: coordinator.ClientID,
		members:       map[string]chan []byte{coordinator.ClientID: coordinator.Outbox},
		inbox:         make(chan RoomMsg, 64),
		hub:           hub,
		log:           log.With(zap.String("session", code)),
		ctx:           ctx,
		cancel:        cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- RoomMsg { return r.inbox }

// CoordinatorID never changes after the room is created; there is no
// coordinator re-election on disconnect.
func (r *Room) CoordinatorID() string { return r.coordinatorID }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.members[msg.Member.ClientID] = msg.Member.Outbox
				r.log.Info("member joined",
					zap.String("client", msg.Member.ClientID),
					zap.Int("members", len(r.members)))
				if msg.Reply != nil {
					msg.Reply <- len(r.members)
				}

			case Leave:
				delete(r.members, msg.ClientID)
				r.log.Info("member left",
					zap.String("client", msg.ClientID),
					zap.Int("members", len(r.members)))
				if len(r.members) == 0 {
					r.hub <- RemoveSession{Code: r.code}
					r.shutdown()
					return
				}

			case Broadcast:
				r.broadcast(msg.SenderID, msg.Frame)
				if len(r.members) == 0 {
					// The last member was slow-dropped; the session is as
					// dead as if it had left.
					r.hub <- RemoveSession{Code: r.code}
					r.shutdown()
					return
				}

			case GetInfo:
				msg.Reply <- Info{
					Code:          r.code,
					CoordinatorID: r.coordinatorID,
					NumMembers:    len(r.members),
				}

			case CloseRoom:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) broadcast(senderID string, frame []byte) {
	for id, ch := range r.members {
		if id == senderID {
			continue
		}
		select {
		case ch <- frame:
		default:
			// Slow or gone. Drop the member rather than block the room.
			// The outbox stays open: the connection handler owns it, and
			// another room may still be sending to it.
			r.log.Warn("dropping slow member", zap.String("client", id))
			delete(r.members, id)
		}
	}
}

// shutdown forgets the members without closing their outboxes; outboxes
// belong to the connection handlers, which tear them down with the
// connection.
func (r *Room) shutdown() {
	clear(r.members)
	r.cancel()
}
