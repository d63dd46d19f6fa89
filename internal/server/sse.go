package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseRingBufferSize bounds how many recent events a reconnecting
	// client can catch up on via Last-Event-ID.
	sseRingBufferSize = 1000

	sseKeepaliveInterval = 15 * time.Second

	// sseClientBuffer is the per-client queue depth. Events for a client
	// with a full queue are dropped.
	sseClientBuffer = 64
)

type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// writeTo emits the event in text/event-stream framing.
func (e sseEvent) writeTo(w io.Writer) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", e.ID, e.Topic, e.Data)
}

// replayLog is a fixed-capacity log of the most recent events, oldest
// first once read back.
type replayLog struct {
	mu   sync.RWMutex
	buf  []sseEvent
	next int // overwrite position once buf is full
}

func (l *replayLog) add(e sseEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) < sseRingBufferSize {
		l.buf = append(l.buf, e)
		return
	}
	l.buf[l.next] = e
	l.next = (l.next + 1) % sseRingBufferSize
}

// after returns the logged events whose ID is greater than id.
func (l *replayLog) after(id uint64) []sseEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []sseEvent
	for i := range l.buf {
		e := l.buf[(l.next+i)%len(l.buf)]
		if e.ID > id {
			out = append(out, e)
		}
	}
	return out
}

// topicFilter is a set of NATS-style subject patterns. The zero value
// accepts every topic.
type topicFilter []string

// parseTopicFilter reads a comma separated ?topics= value.
func parseTopicFilter(raw string) topicFilter {
	var f topicFilter
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f topicFilter) allows(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern reports whether topic matches pattern, segment by
// segment. "*" matches exactly one segment and a trailing ">" matches one
// or more.
func matchTopicPattern(pattern, topic string) bool {
	for {
		p, prest, pmore := strings.Cut(pattern, ".")
		t, trest, tmore := strings.Cut(topic, ".")
		switch {
		case p == ">":
			return t != ""
		case p != "*" && p != t:
			return false
		case !pmore || !tmore:
			return pmore == tmore
		}
		pattern, topic = prest, trest
	}
}

type sseClient struct {
	filter topicFilter
	ch     chan sseEvent
}

// sseHub fans listing and blog events out to stream clients and to
// in-process subscribers such as the featured feed.
type sseHub struct {
	log replayLog

	mu      sync.RWMutex
	seq     uint64
	clients map[*sseClient]struct{}
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

func (h *sseHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	e := sseEvent{ID: h.seq, Topic: topic, Data: payload}
	h.log.add(e)
	for c := range h.clients {
		if !c.filter.allows(topic) {
			continue
		}
		select {
		case c.ch <- e:
		default:
		}
	}
}

func (h *sseHub) subscribe(filter topicFilter) *sseClient {
	c := &sseClient{filter: filter, ch: make(chan sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) eventsSince(id uint64) []sseEvent {
	return h.log.after(id)
}

// handleEventStream serves GET /v1/events/stream.
func (s *ListingsServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.sseHub.subscribe(parseTopicFilter(r.URL.Query().Get("topics")))
	defer s.sseHub.unsubscribe(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if last, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, e := range s.sseHub.eventsSince(last) {
			if client.filter.allows(e.Topic) {
				e.writeTo(w)
			}
		}
	}
	flusher.Flush()

	tick := time.NewTicker(sseKeepaliveInterval)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-client.ch:
			e.writeTo(w)
		case <-tick.C:
			io.WriteString(w, ":keepalive\n\n")
		}
		flusher.Flush()
	}
}

// hubSubscriber lets the featured feed follow this process's own inserts
// when no message bus is configured.
type hubSubscriber struct {
	hub *sseHub
}

func (h hubSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	client := h.hub.subscribe(topicFilter{topic})
	out := make(chan []byte, sseClientBuffer)
	stop := make(chan struct{})

	go func() {
		defer close(out)
		for {
			var e sseEvent
			select {
			case <-stop:
				return
			case e = <-client.ch:
			}
			select {
			case out <- e.Data:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			h.hub.unsubscribe(client)
			close(stop)
		})
	}, nil
}

func (hubSubscriber) Close() error { return nil }
