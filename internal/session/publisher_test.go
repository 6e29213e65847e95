package session

import (
	"encoding/json"
	"testing"

	"github.com/cringo/cringo/internal/bus"
	"go.uber.org/zap"
)

func TestRecordJSON(t *testing.T) {
	data, err := json.Marshal(NewRecord(DrawEvent{Seed: -12, Sequence: 3, Value: 45}))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"Seed":"-12","Counter":"3","Sample":"45"}`
	if string(data) != want {
		t.Errorf("record = %s, want %s", data, want)
	}
}

func TestPublisherSendsRecordAndValue(t *testing.T) {
	link := bus.NewLoopback()
	if err := link.Connect(t.Context()); err != nil {
		t.Fatal(err)
	}
	p := NewPublisher(link, testTopics, zap.NewNop())

	p.Publish(DrawEvent{Seed: 500, Sequence: 1, Value: 45})

	got := link.Published()
	if len(got) != 2 {
		t.Fatalf("published %d messages, want 2", len(got))
	}
	if got[0].Topic != "esys/cringo/samples/server" {
		t.Errorf("record topic = %s", got[0].Topic)
	}
	if string(got[0].Payload) != `{"Seed":"500","Counter":"1","Sample":"45"}` {
		t.Errorf("record payload = %s", got[0].Payload)
	}
	if got[1].Topic != "esys/cringo/samples/publish" || string(got[1].Payload) != "45" {
		t.Errorf("app message = %s %s", got[1].Topic, got[1].Payload)
	}
}

func TestPublisherCountsFailures(t *testing.T) {
	link := bus.NewLoopback()
	p := NewPublisher(link, testTopics, zap.NewNop())

	p.Publish(DrawEvent{Seed: 1, Sequence: 1, Value: 2})

	if p.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", p.Failed())
	}
}
