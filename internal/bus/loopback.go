package bus

import (
	"context"
	"errors"
	"sync"
)

// Loopback is an in-process Link. Messages injected on a subscribed topic
// are queued for Poll; everything published is recorded. The simulator
// uses it in place of a broker.
type Loopback struct {
	mu        sync.Mutex
	subs      map[string]bool
	connected bool
	queue     []Message
	published []Message
	connects  int

	// FailConnects makes the next n Connect calls fail.
	FailConnects int
}

var errLoopbackRefused = errors.New("loopback: connection refused")

func NewLoopback(subscribe ...string) *Loopback {
	l := &Loopback{subs: make(map[string]bool)}
	for _, t := range subscribe {
		l.subs[t] = true
	}
	return l
}

func (l *Loopback) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connects++
	if l.FailConnects > 0 {
		l.FailConnects--
		return errLoopbackRefused
	}
	l.connected = true
	return nil
}

func (l *Loopback) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	l.queue = nil
}

func (l *Loopback) Publish(topic string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return ErrNotConnected
	}
	msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
	l.published = append(l.published, msg)
	if l.subs[topic] {
		l.queue = append(l.queue, msg)
	}
	return nil
}

func (l *Loopback) Poll() (Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return Message{}, false
	}
	msg := l.queue[0]
	l.queue = l.queue[1:]
	return msg, true
}

// Inject simulates a message arriving from the broker. It reports whether
// the message was queued; like a real subscription, nothing is delivered
// while disconnected or on topics that were not subscribed.
func (l *Loopback) Inject(topic string, payload []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected || !l.subs[topic] {
		return false
	}
	l.queue = append(l.queue, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return true
}

func (l *Loopback) Published() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.published))
	copy(out, l.published)
	return out
}

func (l *Loopback) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Connects counts Connect calls, failed ones included.
func (l *Loopback) Connects() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connects
}
