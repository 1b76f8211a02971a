package fetch

import "context"

// PayloadKind tags the shape of a fetched payload
type PayloadKind string

const (
	// KindJSON marks a JSON API response
	KindJSON PayloadKind = "json"
	// KindHTML marks a rendered or static HTML page
	KindHTML PayloadKind = "html"
)

// RawPayload is the result of one fetch, owned by the calling pipeline stage
// until extraction completes or fails
type RawPayload struct {
	Kind PayloadKind
	Body []byte
}

// FetchRequest describes one network operation. It carries both renditions of
// a comment-page request: Method/Endpoint/Body for the direct API, and
// PageURL/Category/Page for a browser-driven fetcher that navigates the
// rendered page, clicks the category tab and pages forward instead.
type FetchRequest struct {
	Method   string
	Endpoint string
	Body     map[string]interface{}

	PageURL  string
	Category string
	Page     int
}

// Fetcher executes exactly one network round trip per call. Implementations
// pass through the rate limiter before touching the network and return typed
// errors so the orchestrator can tell transient failures from permanent ones.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (RawPayload, error)
}
