package client

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/raderre/cresite/internal/events"
)

// sseBuffer is the per-subscription channel capacity.
const sseBuffer = 64

// SSESubscriber implements events.Subscriber over the server's
// /v1/events/stream endpoint. A dropped stream is reopened with
// Last-Event-ID so buffered events are replayed.
type SSESubscriber struct {
	baseURL    string
	httpClient *http.Client
	retryWait  time.Duration

	mu      sync.Mutex
	cancels map[int]func()
	nextID  int
}

var _ events.Subscriber = (*SSESubscriber)(nil)

// NewSSESubscriber returns a subscriber for the server at baseURL.
func NewSSESubscriber(baseURL string) *SSESubscriber {
	return &SSESubscriber{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		retryWait:  time.Second,
		cancels:    make(map[int]func()),
	}
}

// Subscribe opens a stream filtered to topic. The first connection is made
// before returning so connection errors surface here.
func (s *SSESubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	resp, err := s.open(ctx, topic, "")
	if err != nil {
		cancel()
		return nil, nil, err
	}

	ch := make(chan []byte, sseBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		s.pump(ctx, topic, resp, ch)
	}()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			s.mu.Lock()
			delete(s.cancels, id)
			s.mu.Unlock()
		})
	}
	s.cancels[id] = stop
	s.mu.Unlock()

	return ch, stop, nil
}

// Close cancels every open subscription.
func (s *SSESubscriber) Close() error {
	s.mu.Lock()
	stops := make([]func(), 0, len(s.cancels))
	for _, stop := range s.cancels {
		stops = append(stops, stop)
	}
	s.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return nil
}

func (s *SSESubscriber) open(ctx context.Context, topic, lastID string) (*http.Response, error) {
	u := s.baseURL + "/v1/events/stream?topics=" + url.QueryEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "event stream unavailable"}
	}
	return resp, nil
}

// pump reads frames into ch, reconnecting until ctx is done.
func (s *SSESubscriber) pump(ctx context.Context, topic string, resp *http.Response, ch chan<- []byte) {
	var lastID string
	for {
		lastID = readFrames(ctx, resp, lastID, ch)
		resp.Body.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryWait):
			}
			var err error
			resp, err = s.open(ctx, topic, lastID)
			if err == nil {
				break
			}
			slog.Debug("event stream reconnect failed", "topic", topic, "error", err)
		}
	}
}

// readFrames forwards the data of each frame and returns the last event ID
// seen once the body ends.
func readFrames(ctx context.Context, resp *http.Response, lastID string, ch chan<- []byte) string {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id:"):
			lastID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(line, "data:"))
		case line == "":
			if len(data) == 0 {
				continue
			}
			msg := []byte(strings.Join(data, "\n"))
			data = nil
			select {
			case ch <- msg:
			case <-ctx.Done():
				return lastID
			}
		}
	}
	return lastID
}
