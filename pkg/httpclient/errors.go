package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

// errorEnvelope matches the error envelope other marketplace services write.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError converts a non-2xx HTTP response from an upstream service
// into an AppError. The response body is consumed but not closed.
func ParseResponseError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		body = nil
	}

	msg := fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	var envelope errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.InvalidInput(msg)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.Unavailable(msg)
	default:
		return apperrors.Internal(fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(body)))
	}
}
