package relay

import (
	"context"

	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// StartSession creates a fresh session with the requester as coordinator
// and sole member.
type StartSession struct {
	Coordinator Member
	Reply       chan StartResult
}

type StartResult struct {
	Code string
	Room *Room
	Err  error
}

// JoinSession adds the member to an existing session. An unknown code
// replies OK=false; the requester alone gets a joinFailed, nothing else
// changes.
type JoinSession struct {
	Code   string
	Member Member
	Reply  chan JoinResult
}

type JoinResult struct {
	OK            bool
	Room          *Room
	CoordinatorID string
}

// LookupRoom resolves a session code to its room. May reply nil.
type LookupRoom struct {
	Code  string
	Reply chan *Room
}

type RemoveSession struct{ Code string }

type ShutdownHub struct{}

func (StartSession) isHubMsg()  {}
func (JoinSession) isHubMsg()   {}
func (LookupRoom) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub owns the session registry. All access to the sessions map goes
// through its single goroutine; rooms run their own loops, so membership
// changes on different sessions proceed in parallel while mutations on
// one session never interleave.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*Room
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*Room),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case StartSession:
				code, err := h.freshCode()
				if err != nil {
					msg.Reply <- StartResult{Err: err}
					break
				}
				room := newRoom(h.ctx, code, msg.Coordinator, h.inbox, h.log)
				h.sessions[code] = room
				h.log.Info("session started",
					zap.String("session", code),
					zap.String("coordinator", msg.Coordinator.ClientID))
				msg.Reply <- StartResult{Code: code, Room: room}

			case JoinSession:
				room, ok := h.sessions[msg.Code]
				if !ok {
					msg.Reply <- JoinResult{OK: false}
					break
				}
				room.Inbox() <- Join{Member: msg.Member}
				msg.Reply <- JoinResult{
					OK:            true,
					Room:          room,
					CoordinatorID: room.CoordinatorID(),
				}

			case LookupRoom:
				msg.Reply <- h.sessions[msg.Code]

			case RemoveSession:
				delete(h.sessions, msg.Code)
				h.log.Info("session removed", zap.String("session", msg.Code))

			case ShutdownHub:
				for _, room := range h.sessions {
					room.Inbox() <- CloseRoom{}
				}
				clear(h.sessions)
				h.cancel()
				return
			}
		}
	}
}

// freshCode generates session codes until one misses the live registry.
func (h *Hub) freshCode() (string, error) {
	for {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.sessions[code]; !taken {
			return code, nil
		}
		h.log.Info("session code collision, regenerating", zap.String("session", code))
	}
}
