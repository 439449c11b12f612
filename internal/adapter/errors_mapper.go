package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/go-resty/resty/v2"
)

// mapHTTPError converts a non-2xx response into a [*StoreError]. A JSON
// [utils.ErrorBody] in the response takes precedence over the status code.
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	var envelope utils.ErrorBody
	if err := json.Unmarshal(resp.Body(), &envelope); err == nil && envelope.Code != "" {
		return NewStoreError(envelope.Code, envelope.Message, nil)
	}
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return NewStoreError(CodeInvalidArgument, body, nil)
	case http.StatusUnauthorized:
		return NewStoreError(CodeUnauthenticated, body, nil)
	case http.StatusForbidden:
		return NewStoreError(CodePermissionDenied, body, nil)
	case http.StatusNotFound:
		return NewStoreError(CodeNotFound, body, nil)
	case http.StatusConflict:
		return NewStoreError(CodeAlreadyExists, body, nil)
	case http.StatusPreconditionFailed:
		return NewStoreError(CodeFailedPrecondition, body, nil)
	case http.StatusRequestTimeout:
		return NewStoreError(CodeDeadlineExceeded, body, nil)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return NewStoreError(CodeUnavailable, body, nil)
	case http.StatusInternalServerError:
		return NewStoreError(CodeInternal, body, nil)
	default:
		return NewStoreError(CodeUnknown, fmt.Sprintf("http %d: %s", resp.StatusCode(), body), nil)
	}
}

// mapTransportError classifies a request that produced no response.
//
// Cancellation or expiry of the caller's own context is returned as is: only
// failures the transport itself reports are turned into store codes.
func mapTransportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewStoreError(CodeDeadlineExceeded, "backend didn't respond in time", err)
	}
	return NewStoreError(CodeUnavailable, "could not reach document store", err)
}
