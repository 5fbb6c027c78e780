package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrGatewayTimeout is returned when the gateway does not answer within the
// client timeout or the caller's deadline.
var ErrGatewayTimeout = errors.New("gateway request timed out")

// GatewayError reports a gateway response that could not be used: a non-2xx
// status, an unparseable body, or a body without choices.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway error: %s", e.Message)
	}
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	return &GatewayError{Message: err.Error()}
}
