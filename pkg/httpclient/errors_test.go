package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_NotFound(t *testing.T) {
	resp := fakeResponse(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"listing not found"}}`)

	err := ParseResponseError(resp)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "listing not found")
}

func TestParseResponseError_BadRequest(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest, `{"error":{"code":"INVALID_INPUT","message":"bad payload"}}`)

	err := ParseResponseError(resp)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestParseResponseError_ServiceUnavailable(t *testing.T) {
	resp := fakeResponse(http.StatusServiceUnavailable, `{"error":{"code":"UNAVAILABLE","message":"try later"}}`)

	err := ParseResponseError(resp)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestParseResponseError_ServerErrorWithUnparsableBody(t *testing.T) {
	resp := fakeResponse(http.StatusInternalServerError, `<html>gateway error</html>`)

	err := ParseResponseError(resp)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, err.Error(), "upstream status 500")
}
