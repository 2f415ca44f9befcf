package authext

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSNotifier subscribes to the auth service's realtime channel over a
// websocket and forwards session-change notifications. Reconnects with a flat
// backoff until the context is cancelled or the subscription is stopped.
type WSNotifier struct {
	url    string
	apiKey string
	log    *logrus.Logger

	dialer    *websocket.Dialer
	reconnect time.Duration
}

func NewWSNotifier(url, apiKey string, log *logrus.Logger) *WSNotifier {
	return &WSNotifier{
		url:       url,
		apiKey:    apiKey,
		log:       log,
		dialer:    websocket.DefaultDialer,
		reconnect: 3 * time.Second,
	}
}

func (n *WSNotifier) Subscribe(ctx context.Context) (<-chan SessionEvent, func(), error) {
	out := make(chan SessionEvent, 16)
	ctx, cancel := context.WithCancel(ctx)

	var once sync.Once
	stop := func() { once.Do(cancel) }

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := n.readLoop(ctx, out); err != nil && ctx.Err() == nil {
				n.log.WithError(err).Warn("auth realtime connection lost; reconnecting")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.reconnect):
			}
		}
	}()

	return out, stop, nil
}

func (n *WSNotifier) readLoop(ctx context.Context, out chan<- SessionEvent) error {
	conn, _, err := n.dialer.DialContext(ctx, n.url+"?apikey="+n.apiKey, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// done unblocks the watcher when this connection ends; without it every
	// reconnect would leave a goroutine parked on ctx.Done().
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev SessionEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			n.log.WithError(err).Debug("skipping malformed auth event")
			continue
		}
		if ev.Kind == "" {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}
