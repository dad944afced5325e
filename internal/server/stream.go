package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// streamReplaySize is how many recent events are kept for clients
	// reconnecting with Last-Event-ID.
	streamReplaySize = 512

	streamKeepaliveInterval = 15 * time.Second

	// streamClientBuffer is the per-client queue; a client that falls this
	// far behind misses events rather than blocking writers.
	streamClientBuffer = 64
)

var errBadEventID = errors.New("malformed Last-Event-ID, want <epoch>-<seq>")

// streamEvent is one change event as sent on the SSE stream.
type streamEvent struct {
	Seq   uint64
	ID    string // epoch-seq
	Topic string
	Data  []byte
}

// streamHub fans change events out to connected SSE clients and keeps a
// bounded history for replay.
//
// Sequence numbers restart with the process, so event ids carry the hub's
// epoch and a Last-Event-ID minted by another process is never compared
// against this hub's sequence.
type streamHub struct {
	epoch   string
	mu      sync.Mutex
	seq     uint64
	history []streamEvent // oldest first, at most size entries
	size    int
	clients map[*streamClient]struct{}
}

// streamClient is one connected SSE consumer.
type streamClient struct {
	filters []string // NATS-style subject patterns; empty matches everything
	ch      chan streamEvent
}

func newStreamHub(size int) *streamHub {
	return &streamHub{
		epoch:   strconv.FormatInt(time.Now().UnixNano(), 36),
		size:    size,
		clients: make(map[*streamClient]struct{}),
	}
}

// broadcast records the event and queues it for every interested client.
func (h *streamHub) broadcast(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt := streamEvent{Seq: h.seq, ID: h.eventID(h.seq), Topic: topic, Data: data}
	h.history = append(h.history, evt)
	if len(h.history) > h.size {
		h.history = h.history[len(h.history)-h.size:]
	}

	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *streamHub) eventID(seq uint64) string {
	return h.epoch + "-" + strconv.FormatUint(seq, 10)
}

// resumeAfter maps a Last-Event-ID to the sequence number to replay after.
// An id from another epoch predates everything in this hub's history, so
// the whole history is replayed.
func (h *streamHub) resumeAfter(lastID string) (uint64, error) {
	epoch, seq, ok := strings.Cut(lastID, "-")
	if !ok || epoch == "" {
		return 0, errBadEventID
	}
	n, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return 0, errBadEventID
	}
	if epoch != h.epoch {
		return 0, nil
	}
	return n, nil
}

// subscribe registers a client. When lastID is set it also returns the
// buffered events after it that match filters; registration and the
// history snapshot happen under one lock so nothing is missed between
// replay and live delivery.
func (h *streamHub) subscribe(filters []string, lastID string) (*streamClient, []streamEvent, error) {
	var after uint64
	if lastID != "" {
		var err error
		if after, err = h.resumeAfter(lastID); err != nil {
			return nil, nil, err
		}
	}
	c := &streamClient{filters: filters, ch: make(chan streamEvent, streamClientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	if lastID == "" {
		return c, nil, nil
	}
	var replay []streamEvent
	for _, evt := range h.history {
		if evt.Seq > after && c.wants(evt.Topic) {
			replay = append(replay, evt)
		}
	}
	return c, replay, nil
}

func (h *streamHub) unsubscribe(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *streamClient) wants(topic string) bool {
	if len(c.filters) == 0 {
		return true
	}
	for _, f := range c.filters {
		if matchSubject(f, topic) {
			return true
		}
	}
	return false
}

// matchSubject matches a dot-separated subject against a pattern where "*"
// matches one token and a trailing ">" matches one or more.
func matchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}
	pat := strings.Split(pattern, ".")
	sub := strings.Split(subject, ".")
	for i, p := range pat {
		if p == ">" {
			return i < len(sub)
		}
		if i >= len(sub) || (p != "*" && p != sub[i]) {
			return false
		}
	}
	return len(pat) == len(sub)
}

// handleEventStream handles GET /v1/events/stream?topics=a,b. Every change
// event is written as an SSE message whose id is "<epoch>-<seq>", so clients
// can resume with Last-Event-ID.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	var filters []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filters = append(filters, t)
		}
	}
	client, replay, err := s.hub.subscribe(filters, r.Header.Get("Last-Event-ID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.hub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, evt := range replay {
		writeStreamEvent(w, evt)
	}
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream not supported by response writer", "error", err)
		return
	}

	keepalive := time.NewTicker(streamKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeStreamEvent(w, evt)
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, evt streamEvent) {
	fmt.Fprintf(w, "id:%s\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
