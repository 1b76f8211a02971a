package publisher

// Publisher represents a service for publishing crawled records downstream.
// The sentiment-analysis batch job consumes these streams instead of tailing
// the CSV output files.
type Publisher interface {
	// Publish publishes a message keyed by target id
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
