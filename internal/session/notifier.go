package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cringo/cringo/internal/bus"
	"go.uber.org/zap"
)

var ErrMalformedNotification = errors.New("malformed notification")

// MalformedPolicy decides what an unparsable win notification does.
type MalformedPolicy string

const (
	MalformedIgnore MalformedPolicy = "ignore"
	MalformedFail   MalformedPolicy = "fail"
)

func (p MalformedPolicy) Valid() bool {
	return p == MalformedIgnore || p == MalformedFail
}

// WinNotifier turns queued messages on the subscribe topic into a win
// signal. It only looks at the inbox when Poll is called.
type WinNotifier struct {
	inbox     bus.Inbox
	topic     string
	policy    MalformedPolicy
	log       *zap.Logger
	malformed int
}

func NewWinNotifier(inbox bus.Inbox, topic string, policy MalformedPolicy, log *zap.Logger) *WinNotifier {
	if !policy.Valid() {
		policy = MalformedIgnore
	}
	return &WinNotifier{
		inbox:  inbox,
		topic:  topic,
		policy: policy,
		log:    log.With(zap.String("component", "notifier")),
	}
}

// Poll drains every queued message and reports whether any of them
// announced a win. Under MalformedFail the first bad payload stops the
// drain and is returned as an error.
func (n *WinNotifier) Poll() (bool, error) {
	won := false
	for {
		msg, ok := n.inbox.Poll()
		if !ok {
			return won, nil
		}
		if msg.Topic != n.topic {
			n.log.Debug("ignoring message", zap.String("topic", msg.Topic))
			continue
		}

		bingo, err := ParseNotification(msg.Payload)
		if err != nil {
			n.malformed++
			if n.policy == MalformedFail {
				return won, err
			}
			n.log.Warn("ignoring malformed notification", zap.ByteString("payload", msg.Payload), zap.Error(err))
			continue
		}
		if bingo {
			won = true
		}
	}
}

// Malformed counts payloads that could not be parsed.
func (n *WinNotifier) Malformed() int { return n.malformed }

// ParseNotification reads the "bingo" field. The broker sends "0" or "1";
// bare numbers and booleans are accepted too.
func ParseNotification(payload []byte) (bool, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	raw, ok := body["bingo"]
	if !ok {
		return false, fmt.Errorf("%w: missing bingo field", ErrMalformedNotification)
	}

	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseFlag(s)
	}
	return parseFlag(string(raw))
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: bingo = %q", ErrMalformedNotification, s)
}
