package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/idgen"
	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// Event topic constants
const (
	TopicTemplateCreated  = "skyrecords.template.created"
	TopicTemplateChanged  = "skyrecords.template.changed"
	TopicTemplateDisabled = "skyrecords.template.disabled"
	TopicAliasSaved       = "skyrecords.alias.saved"

	// TopicAll matches every skyrecords topic.
	TopicAll = "skyrecords.>"
)

// Header is embedded in every event so subscribers on a wildcard topic can
// tell events apart and de-duplicate redeliveries.
type Header struct {
	EventID    string    `json:"event_id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (h Header) eventHeader() Header { return h }

// NewHeader returns a header for topic with a fresh event id.
func NewHeader(topic string) (Header, error) {
	id, err := idgen.Generate()
	if err != nil {
		return Header{}, err
	}
	return Header{EventID: id, Topic: topic, OccurredAt: time.Now().UTC()}, nil
}

// Event types

type TemplateCreated struct {
	Header
	Template *model.DashboardSetting `json:"template"`
}

type TemplateChanged struct {
	Header
	Template *model.DashboardSetting `json:"template"`
}

type TemplateDisabled struct {
	Header
	Name string `json:"name"`
}

type AliasSaved struct {
	Header
	Alias *model.NetworkAddressAlias `json:"alias"`
}

// ParseHeader decodes just the header of a raw event payload.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf("decoding event header: %w", err)
	}
	return h, nil
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher discards every event. It stands in when no NATS URL is
// configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (*NoopPublisher) Close() error                               { return nil }

// Subscriber receives raw event payloads from the event bus.
type Subscriber interface {
	// Subscribe delivers payloads published on topic until the returned
	// cancel function is called, which also closes the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
