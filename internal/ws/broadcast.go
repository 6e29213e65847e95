package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cringo/cringo/internal/history"
	"github.com/cringo/cringo/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrTooManyConnections = errors.New("too many websocket connections")

const writeWait = 5 * time.Second

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			// Drain so a concurrent broadcast never blocks on a dead client.
			for range c.send {
			}
			return
		}
	}
}

// StatsSource supplies aggregate history for snapshots.
type StatsSource interface {
	Stats(ctx context.Context) (history.Stats, error)
}

// Broadcaster fans controller events out to websocket spectators. State
// changes are coalesced over the throttle window; draws and finishes are
// sent immediately. A full snapshot goes out on connect and periodically.
type Broadcaster struct {
	mu             sync.RWMutex
	clients        map[*client]bool
	maxConns       int
	store          *session.Store
	stats          StatsSource
	log            *zap.Logger
	throttle       time.Duration
	snapshotTicker *time.Ticker
	done           chan struct{}
	stopOnce       sync.Once

	flushMu      sync.Mutex
	pendingState *session.Snapshot
	flushTimer   *time.Timer
}

// NewBroadcaster starts the periodic snapshot loop. maxConns of zero
// means unlimited spectators.
func NewBroadcaster(store *session.Store, throttle, snapshotInterval time.Duration, maxConns int, log *zap.Logger) *Broadcaster {
	if snapshotInterval <= 0 {
		snapshotInterval = 5 * time.Second
	}
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
		store:    store,
		log:      log.With(zap.String("component", "broadcaster")),
		throttle: throttle,
		done:     make(chan struct{}),
	}

	b.snapshotTicker = time.NewTicker(snapshotInterval)
	go b.snapshotLoop()

	return b
}

// SetStats adds history totals to snapshots.
func (b *Broadcaster) SetStats(src StatsSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = src
}

// Stop ends the snapshot loop and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		b.snapshotTicker.Stop()
		close(b.done)

		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
	})
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}

	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()

	if data, err := json.Marshal(b.snapshotMessage()); err == nil {
		b.trySend(c, data)
	}
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// Dispatch routes a controller event to spectators.
func (b *Broadcaster) Dispatch(ev session.Event) {
	switch ev.Type {
	case session.EventState:
		b.QueueState(ev.Snapshot)
	case session.EventDraw:
		if ev.Draw != nil {
			b.SendDraw(ev.Snapshot.ID, *ev.Draw)
		}
	case session.EventFinished:
		b.SendFinished(ev.Snapshot)
	}
}

// QueueState schedules a state message; only the latest state within the
// throttle window is sent.
func (b *Broadcaster) QueueState(snap *session.Snapshot) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.pendingState = snap
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

func (b *Broadcaster) SendDraw(sessionID string, ev session.DrawEvent) {
	b.broadcast(WSMessage{
		Type: MsgDraw,
		Payload: DrawPayload{
			SessionID: sessionID,
			Seed:      ev.Seed,
			Sequence:  ev.Sequence,
			Value:     ev.Value,
		},
	})
}

func (b *Broadcaster) SendFinished(snap *session.Snapshot) {
	b.broadcast(WSMessage{
		Type: MsgFinished,
		Payload: FinishedPayload{
			SessionID: snap.ID,
			Outcome:   snap.Outcome,
			Draws:     snap.Count(),
		},
	})
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	snap := b.pendingState
	b.pendingState = nil
	b.flushTimer = nil
	b.flushMu.Unlock()

	if snap == nil {
		return
	}

	b.broadcast(WSMessage{
		Type: MsgState,
		Payload: StatePayload{
			SessionID: snap.ID,
			State:     snap.State,
			Connected: snap.Connected,
		},
	})
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.done:
			return
		case <-b.snapshotTicker.C:
			b.broadcast(b.snapshotMessage())
		}
	}
}

func (b *Broadcaster) snapshotMessage() WSMessage {
	b.mu.RLock()
	stats := b.stats
	b.mu.RUnlock()

	payload := SnapshotPayload{Session: b.store.Get()}
	if stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if st, err := stats.Stats(ctx); err == nil {
			payload.Stats = &st
		} else {
			b.log.Warn("history stats unavailable", zap.Error(err))
		}
	}
	return WSMessage{Type: MsgSnapshot, Payload: payload}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("broadcast marshal error", zap.Error(err))
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		b.trySend(c, data)
	}
}

// trySend hands data to c without blocking; a full buffer disconnects c.
func (b *Broadcaster) trySend(c *client, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		b.log.Warn("ws client too slow, disconnecting")
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
