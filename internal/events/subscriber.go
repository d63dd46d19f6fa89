package events

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads published on topic. The returned
	// cancel function unsubscribes and closes the channel; callers must
	// always invoke it, including on error paths after a successful call.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
