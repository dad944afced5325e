package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alfredjeanlab/skyrecords/internal/idgen"
)

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicTemplateCreated, TemplateCreated{}); err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestInterfaces(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Subscriber = (*NATSSubscriber)(nil)
}

func TestNewHeader(t *testing.T) {
	h, err := NewHeader(TopicAliasSaved)
	if err != nil {
		t.Fatal(err)
	}
	if !idgen.Valid(h.EventID, idgen.EventPrefix) {
		t.Errorf("EventID = %q is not an event id", h.EventID)
	}
	if h.Topic != TopicAliasSaved {
		t.Errorf("Topic = %q", h.Topic)
	}
	if h.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}

	other, _ := NewHeader(TopicAliasSaved)
	if other.EventID == h.EventID {
		t.Errorf("two headers share event id %q", h.EventID)
	}
}

func TestParseHeader(t *testing.T) {
	h, _ := NewHeader(TopicTemplateDisabled)
	data, err := json.Marshal(TemplateDisabled{Header: h, Name: "dash"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventID != h.EventID || got.Topic != TopicTemplateDisabled {
		t.Errorf("ParseHeader = %+v, want %+v", got, h)
	}

	if _, err := ParseHeader([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
