package bus

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"
)

type MQTTOptions struct {
	Broker         string
	ClientID       string
	Subscribe      []string
	QoS            byte
	ConnectTimeout time.Duration
	InboxSize      int
}

// MQTT is a Link backed by a broker connection. Paho delivers messages on
// its own goroutines; they are copied into a bounded queue and only become
// visible through Poll.
type MQTT struct {
	opts  MQTTOptions
	log   *zap.Logger
	inbox chan Message

	mu     sync.Mutex
	client mqtt.Client

	newClient func(*mqtt.ClientOptions) mqtt.Client
}

func NewMQTT(opts MQTTOptions, log *zap.Logger) *MQTT {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 16
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID()
	}
	return &MQTT{
		opts:  opts,
		log:   log.With(zap.String("component", "mqtt"), zap.String("broker", opts.Broker)),
		inbox: make(chan Message, opts.InboxSize),

		newClient: mqtt.NewClient,
	}
}

// Connect opens a clean session and subscribes to the configured topics.
// A failed attempt leaves the link disconnected; retrying is up to the
// caller.
func (m *MQTT) Connect(ctx context.Context) error {
	co := mqtt.NewClientOptions().
		AddBroker(m.opts.Broker).
		SetClientID(m.opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(m.opts.ConnectTimeout).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			m.log.Warn("connection lost", zap.Error(err))
		})

	client := m.newClient(co)
	if err := waitToken(ctx, client.Connect()); err != nil {
		// paho keeps dialing after ctx ends unless told to stop.
		client.Disconnect(0)
		return fmt.Errorf("connect %s: %w", m.opts.Broker, err)
	}

	for _, topic := range m.opts.Subscribe {
		if err := waitToken(ctx, client.Subscribe(topic, m.opts.QoS, m.onMessage)); err != nil {
			client.Disconnect(0)
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	m.log.Info("connected", zap.String("client_id", m.opts.ClientID), zap.Strings("subscribed", m.opts.Subscribe))
	return nil
}

func (m *MQTT) Disconnect() {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
		m.log.Info("disconnected")
	}
	m.drain()
}

// Publish hands the payload to the client without waiting for the broker.
// Delivery errors are only logged.
func (m *MQTT) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	tok := client.Publish(topic, m.opts.QoS, false, payload)
	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			m.log.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
	return nil
}

func (m *MQTT) Poll() (Message, bool) {
	select {
	case msg := <-m.inbox:
		return msg, true
	default:
		return Message{}, false
	}
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	m.enqueue(msg.Topic(), msg.Payload())
}

func (m *MQTT) enqueue(topic string, payload []byte) {
	msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
	select {
	case m.inbox <- msg:
	default:
		m.log.Warn("inbox full, dropping message", zap.String("topic", topic))
	}
}

func (m *MQTT) drain() {
	for {
		select {
		case <-m.inbox:
		default:
			return
		}
	}
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DefaultClientID derives a stable client id from the host id, falling
// back to the hostname.
func DefaultClientID() string {
	id, err := host.HostID()
	if err != nil || id == "" {
		id, _ = os.Hostname()
	}
	return clientID(id)
}

func clientID(raw string) string {
	id := strings.ToLower(strings.ReplaceAll(raw, "-", ""))
	if len(id) > 12 {
		id = id[:12]
	}
	if id == "" {
		id = "unknown"
	}
	return "cringo-" + id
}
