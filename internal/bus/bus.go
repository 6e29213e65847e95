// Package bus carries Cringo's publish/subscribe traffic.
//
// Inbound messages are never handed to a callback. They are queued and the
// session controller drains them with Poll, so everything that reacts to a
// message runs on the controller's goroutine.
package bus

import (
	"context"
	"errors"
	"strings"
)

var ErrNotConnected = errors.New("bus not connected")

const DefaultNamespace = "esys/cringo"

type Message struct {
	Topic   string
	Payload []byte
}

type Sender interface {
	Publish(topic string, payload []byte) error
}

type Inbox interface {
	// Poll returns the oldest queued message without blocking.
	Poll() (Message, bool)
}

// Link is a connectable bus session.
type Link interface {
	Sender
	Inbox
	Connect(ctx context.Context) error
	// Disconnect releases the session and discards queued messages.
	Disconnect()
}

// Topics are the three well-known topics under a namespace.
type Topics struct {
	Subscribe string
	Server    string
	App       string
}

func NewTopics(namespace string) Topics {
	ns := strings.TrimRight(namespace, "/")
	if ns == "" {
		ns = DefaultNamespace
	}
	return Topics{
		Subscribe: ns + "/samples/subscribe",
		Server:    ns + "/samples/server",
		App:       ns + "/samples/publish",
	}
}
