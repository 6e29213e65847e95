package session

import (
	"encoding/json"
	"strconv"

	"github.com/cringo/cringo/internal/bus"
	"go.uber.org/zap"
)

// Record is the structured draw message sent to the results topic. Every
// field is a decimal string.
type Record struct {
	Seed    string `json:"Seed"`
	Counter string `json:"Counter"`
	Sample  string `json:"Sample"`
}

func NewRecord(ev DrawEvent) Record {
	return Record{
		Seed:    strconv.FormatInt(int64(ev.Seed), 10),
		Counter: strconv.Itoa(ev.Sequence),
		Sample:  strconv.Itoa(ev.Value),
	}
}

// Publisher emits each draw twice: the record to the server topic and the
// bare value to the app topic. Nothing waits for delivery and failures are
// only logged.
type Publisher struct {
	out    bus.Sender
	topics bus.Topics
	log    *zap.Logger
	failed int
}

func NewPublisher(out bus.Sender, topics bus.Topics, log *zap.Logger) *Publisher {
	return &Publisher{
		out:    out,
		topics: topics,
		log:    log.With(zap.String("component", "publisher")),
	}
}

func (p *Publisher) Publish(ev DrawEvent) {
	record, err := json.Marshal(NewRecord(ev))
	if err != nil {
		p.log.Error("marshal record", zap.Error(err))
		return
	}
	p.send(p.topics.Server, record)
	p.send(p.topics.App, []byte(strconv.Itoa(ev.Value)))
}

func (p *Publisher) send(topic string, payload []byte) {
	if err := p.out.Publish(topic, payload); err != nil {
		p.failed++
		p.log.Warn("publish dropped", zap.String("topic", topic), zap.Error(err))
	}
}

// Failed counts messages that could not be handed to the bus.
func (p *Publisher) Failed() int { return p.failed }
