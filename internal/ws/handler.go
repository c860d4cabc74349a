package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/internal/relay"
	"github.com/louismark-dev/listen-together/pkg/protocol"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a connection, assigns it a client id, and bridges it
// to the hub: lifecycle events are handled here, everything else is
// relayed verbatim to the room named in the payload envelope.
func Handler(h *relay.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID))

		out := make(chan []byte, 16)

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case frame := <-out:
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, frame)
					cancel()
				}
			}
		}()

		if err := send(r.Context(), conn, protocol.EventAssigningID, protocol.AssignedID{ID: clientID}); err != nil {
			return
		}

		// The room this connection is a member of, once started or joined.
		// A connection holds at most one membership: moving to another room
		// leaves the current one first, so no two rooms ever share this
		// connection's outbox.
		var joined *relay.Room
		enter := func(room *relay.Room) {
			if joined != nil && joined != room {
				joined.Inbox() <- relay.Leave{ClientID: clientID}
			}
			joined = room
		}
		defer func() {
			if joined != nil {
				joined.Inbox() <- relay.Leave{ClientID: clientID}
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			frame, err := protocol.DecodeFrame(data)
			if err != nil {
				// A single bad message never takes the relay down.
				clog.Warn("dropping malformed frame", zap.Error(err))
				continue
			}

			switch frame.Event {
			case protocol.EventStartSession:
				reply := make(chan relay.StartResult, 1)
				h.Inbox() <- relay.StartSession{
					Coordinator: relay.Member{ClientID: clientID, Outbox: out},
					Reply:       reply,
				}
				res := <-reply
				if res.Err != nil {
					clog.Error("start session failed", zap.Error(res.Err))
					continue
				}
				enter(res.Room)
				_ = send(r.Context(), conn, protocol.EventSessionStarted, protocol.SessionStarted{
					SessionID:     res.Code,
					CoordinatorID: clientID,
					ClientID:      clientID,
				})

			case protocol.EventJoinSession:
				req, err := protocol.DecodePayload[protocol.JoinRequest](frame)
				if err != nil {
					clog.Warn("dropping malformed join", zap.Error(err))
					continue
				}
				reply := make(chan relay.JoinResult, 1)
				h.Inbox() <- relay.JoinSession{
					Code:   req.SessionID,
					Member: relay.Member{ClientID: clientID, Outbox: out},
					Reply:  reply,
				}
				res := <-reply
				if !res.OK {
					_ = send(r.Context(), conn, protocol.EventJoinFailed, nil)
					continue
				}
				enter(res.Room)
				_ = send(r.Context(), conn, protocol.EventSessionStarted, protocol.SessionStarted{
					SessionID:     req.SessionID,
					CoordinatorID: res.CoordinatorID,
					ClientID:      clientID,
				})

			default:
				// Room-scoped event: fan out by the roomId in the
				// envelope, not by socket-level membership.
				env, err := protocol.RoomEnvelopeOf(frame)
				if err != nil {
					clog.Warn("dropping frame without room envelope",
						zap.String("event", frame.Event), zap.Error(err))
					continue
				}
				reply := make(chan *relay.Room, 1)
				h.Inbox() <- relay.LookupRoom{Code: env.RoomID, Reply: reply}
				room := <-reply
				if room == nil {
					clog.Warn("dropping frame for unknown session",
						zap.String("event", frame.Event),
						zap.String("session", env.RoomID))
					continue
				}
				room.Inbox() <- relay.Broadcast{SenderID: clientID, Frame: data}
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, event string, payload any) error {
	frame, err := protocol.NewFrame(event, payload)
	if err != nil {
		return err
	}
	b, err := frame.Marshal()
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, b)
}
