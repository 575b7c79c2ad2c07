package ports

import "context"

// HTTPRequest is the wire-in half of the HTTP capability.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// HTTPResponse is the wire-out half. Body is raw response text; callers
// content-sniff JSON themselves.
type HTTPResponse struct {
	Status  int
	Headers map[string]string
	Body    string
}

// HTTPDoer issues one HTTP call. Implementations perform no automatic
// retries; retry policy is the author's concern, expressed in config.
type HTTPDoer interface {
	Do(ctx context.Context, req HTTPRequest) (HTTPResponse, error)
}
