package remote

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrNotFound         = errors.New("remote: not found")
	ErrAlreadyExists    = errors.New("remote: already exists")
	ErrUnauthorized     = errors.New("remote: unauthorized")
	ErrIncorrectData    = errors.New("remote: incorrect data")
	ErrRestrictedAccess = errors.New("remote: restricted access")
	ErrConnectionFailed = errors.New("remote: connection failed")
	ErrUnexpected       = errors.New("remote: unexpected response")
)

const maxErrorBody = 512

// statusError maps a non-2xx response onto a sentinel, keeping the body text for diagnostics.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))

	var kind error
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrIncorrectData
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrRestrictedAccess
	case http.StatusNotFound, http.StatusGone:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrAlreadyExists
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = ErrConnectionFailed
	default:
		kind = ErrUnexpected
	}

	if detail == "" {
		return fmt.Errorf("%w (status %d)", kind, resp.StatusCode)
	}
	return fmt.Errorf("%w (status %d): %s", kind, resp.StatusCode, detail)
}
