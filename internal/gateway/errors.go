package gateway

import "fmt"

// Kind classifies a failed exchange with a remote endpoint.
type Kind int

const (
	// KindNetwork means the request never produced a usable response:
	// dial failure, timeout, or a tripped circuit breaker.
	KindNetwork Kind = iota + 1
	// KindRemote means the endpoint answered and rejected the request,
	// either with a non-2xx status or with an error payload.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is the typed failure every gateway operation returns, so call
// sites can tell a dead network from a rejected request.
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindRemote {
		return fmt.Sprintf("%s: remote error (status %d): %s", e.Endpoint, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: network error", e.Endpoint)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func networkError(endpoint string, err error) *Error {
	return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
}

func remoteError(endpoint string, status int, message string) *Error {
	return &Error{Kind: KindRemote, Endpoint: endpoint, Status: status, Message: message}
}
