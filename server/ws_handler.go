package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/relayscan/relayscan/scan"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsSendQueueSize = 256
	wsWriteTimeout  = 5 * time.Second
)

type wsEnvelope struct {
	Type    string         `json:"type"`
	Data    *scan.Progress `json:"data,omitempty"`
	Summary *scan.Summary  `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// progressBroker fans run progress out to every connected websocket client.
// A client that cannot keep up loses updates rather than stalling workers.
type progressBroker struct {
	mu   sync.Mutex
	subs map[chan wsEnvelope]struct{}
}

var broker = &progressBroker{subs: make(map[chan wsEnvelope]struct{})}

func (b *progressBroker) subscribe() chan wsEnvelope {
	ch := make(chan wsEnvelope, wsSendQueueSize)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *progressBroker) unsubscribe(ch chan wsEnvelope) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *progressBroker) send(msg wsEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *progressBroker) publish(p scan.Progress) {
	b.send(wsEnvelope{Type: "progress", Data: &p})
}

func (b *progressBroker) finish(summary *scan.Summary, err error) {
	msg := wsEnvelope{Type: "done", Summary: summary}
	if err != nil {
		msg.Error = err.Error()
	}
	b.send(msg)
}

func progressHandler(c *gin.Context) {
	conn, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := broker.subscribe()
	defer broker.unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == "done" {
				return
			}
		}
	}
}
