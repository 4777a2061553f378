package provision

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrProvisioning = errors.New("provisioning failed")
	ErrConflict     = errors.New("conflict")
	ErrTransport    = errors.New("transport failure")
)

// StatusError is a non-2xx answer from the emulation server.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrProvisioning:
		return true
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// TransportError means the server could not be reached or the exchange broke
// before a status came back.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// beforeSend reports whether the request never left this host.
func (e *TransportError) beforeSend() bool {
	var opErr *net.OpError
	return errors.As(e.Err, &opErr) && opErr.Op == "dial"
}

func retryable(method string, err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return method == http.MethodGet || te.beforeSend()
	}
	var se *StatusError
	if errors.As(err, &se) && method == http.MethodGet {
		switch se.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
