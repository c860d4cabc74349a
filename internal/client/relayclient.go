package client

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/louismark-dev/listen-together/pkg/protocol"
)

const emitTimeout = 3 * time.Second

// Relay is the controller's view of the relay connection. RelayClient is
// the production implementation; tests substitute a fake.
type Relay interface {
	// Emit sends a frame fire-and-forget.
	Emit(f protocol.Frame) error
	// Frames delivers inbound frames. The channel closes when the
	// connection is gone.
	Frames() <-chan protocol.Frame
}

// RelayClient is the persistent websocket connection to the relay.
type RelayClient struct {
	conn   *websocket.Conn
	frames chan protocol.Frame
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the relay's /ws endpoint and starts the read loop.
func Dial(ctx context.Context, url string, log *zap.Logger) (*RelayClient, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &RelayClient{
		conn:   conn,
		frames: make(chan protocol.Frame, 32),
		log:    log,
		ctx:    cctx,
		cancel: cancel,
	}
	go c.readLoop()
	return c, nil
}

func (c *RelayClient) Frames() <-chan protocol.Frame { return c.frames }

func (c *RelayClient) Emit(f protocol.Frame) error {
	b, err := f.Marshal()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.ctx, emitTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, b)
}

func (c *RelayClient) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *RelayClient) readLoop() {
	defer close(c.frames)
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return
		}
		f, err := protocol.DecodeFrame(data)
		if err != nil {
			c.log.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		select {
		case c.frames <- f:
		case <-c.ctx.Done():
			return
		}
	}
}
