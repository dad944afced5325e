package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/model"
)

type fakeSubscriber struct {
	ch    chan []byte
	topic string
	err   error
}

func (f *fakeSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.topic = topic
	return f.ch, func() {}, nil
}

func (f *fakeSubscriber) Close() error { return nil }

func mustEvent(t *testing.T, topic string, build func(events.Header) any) []byte {
	t.Helper()
	h, err := events.NewHeader(topic)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(build(h))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestPrintEvent(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		build func(events.Header) any
		want  string
	}{
		{
			name:  "created",
			topic: events.TopicTemplateCreated,
			build: func(h events.Header) any {
				return events.TemplateCreated{Header: h, Template: &model.DashboardSetting{ID: "dash"}}
			},
			want: "dash",
		},
		{
			name:  "disabled",
			topic: events.TopicTemplateDisabled,
			build: func(h events.Header) any { return events.TemplateDisabled{Header: h, Name: "old-dash"} },
			want:  "old-dash",
		},
		{
			name:  "alias",
			topic: events.TopicAliasSaved,
			build: func(h events.Header) any {
				return events.AliasSaved{Header: h, Alias: &model.NetworkAddressAlias{Address: "10.0.0.1:80", RepresentServiceInstanceID: "inst"}}
			},
			want: "10.0.0.1:80 -> inst",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printEvent(&buf, mustEvent(t, tt.topic, tt.build)); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) || !strings.Contains(buf.String(), tt.topic) {
				t.Errorf("output = %q, want it to contain %q and %q", buf.String(), tt.want, tt.topic)
			}
		})
	}
}

func TestPrintEvent_JSON(t *testing.T) {
	setJSONOutput(t)
	data := mustEvent(t, events.TopicTemplateDisabled, func(h events.Header) any {
		return events.TemplateDisabled{Header: h, Name: "dash"}
	})
	var buf bytes.Buffer
	if err := printEvent(&buf, data); err != nil {
		t.Fatal(err)
	}
	if buf.String() != string(data)+"\n" {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestPrintEvent_Malformed(t *testing.T) {
	var buf bytes.Buffer
	if err := printEvent(&buf, []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", buf.String())
	}
}

func TestWatchEvents(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan []byte, 3)}
	sub.ch <- mustEvent(t, events.TopicTemplateDisabled, func(h events.Header) any {
		return events.TemplateDisabled{Header: h, Name: "first"}
	})
	sub.ch <- []byte("garbage")
	sub.ch <- mustEvent(t, events.TopicTemplateDisabled, func(h events.Header) any {
		return events.TemplateDisabled{Header: h, Name: "second"}
	})
	close(sub.ch)

	var buf bytes.Buffer
	if err := watchEvents(context.Background(), sub, events.TopicAll, &buf); err != nil {
		t.Fatalf("watchEvents: %v", err)
	}
	if sub.topic != events.TopicAll {
		t.Errorf("subscribed to %q, want %q", sub.topic, events.TopicAll)
	}
	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("output missing events:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected 2 lines, got:\n%s", out)
	}
}

func TestWatchEvents_StopsOnCancel(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan []byte)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- watchEvents(ctx, sub, events.TopicAll, &bytes.Buffer{}) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchEvents: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchEvents did not return after cancel")
	}
}

func TestWatchEvents_SubscribeError(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no connection")}
	if err := watchEvents(context.Background(), sub, events.TopicAll, &bytes.Buffer{}); err == nil {
		t.Fatal("expected subscribe error")
	}
}

func TestWatchStream(t *testing.T) {
	newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var buf bytes.Buffer
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})

	done := make(chan error, 1)
	go func() { done <- watchStream(ctx, recordsClient, events.TopicAll, w) }()

	// Retry the write until the stream has subscribed and printed it.
	deadline := time.After(3 * time.Second)
	for i := 0; ; i++ {
		if _, err := recordsClient.CreateTemplate(ctx, &model.DashboardSetting{ID: fmt.Sprintf("dash-%d", i), Configuration: "{}"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		mu.Lock()
		out := buf.String()
		mu.Unlock()
		if strings.Contains(out, events.TopicTemplateCreated) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("no event printed; output:\n%s", out)
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchStream: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchStream did not return after cancel")
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
