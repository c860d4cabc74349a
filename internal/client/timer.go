package client

import (
	"sync"
	"time"
)

// timerHandle is a cancellable one-shot. Arming a new timer of the same
// logical kind must Stop the previous handle first; there is never more
// than one live timer per kind.
type timerHandle struct {
	t *time.Timer
}

func schedule(d time.Duration, fn func()) *timerHandle {
	return &timerHandle{t: time.AfterFunc(d, fn)}
}

func (h *timerHandle) Stop() {
	if h != nil {
		h.t.Stop()
	}
}

// tickerHandle is a cancellable repeating tick. Stop is idempotent.
type tickerHandle struct {
	stop chan struct{}
	once sync.Once
}

func startTicker(d time.Duration, fn func()) *tickerHandle {
	h := &tickerHandle{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return h
}

func (h *tickerHandle) Stop() {
	if h != nil {
		h.once.Do(func() { close(h.stop) })
	}
}
