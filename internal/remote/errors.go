package remote

import (
	"errors"
	"strings"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
)

var (
	// ErrOperationBlocked is returned by writes that failed with a
	// transient-unavailable failure: offline, unreachable backend or missing
	// permission. The write did not land.
	ErrOperationBlocked = errors.New("operation blocked")

	// ErrRemoteFailure wraps every other remote failure. The original cause
	// stays reachable through errors.Is and errors.As.
	ErrRemoteFailure = errors.New("remote failure")

	// ErrUnavailable is returned by the Fetch methods when the store reported
	// a transient-unavailable failure. The lenient read methods turn it into
	// an empty or absent result.
	ErrUnavailable = errors.New("remote data unavailable")

	// ErrDecodeRecord marks a document that could not be decoded into the
	// collection's record type.
	ErrDecodeRecord = errors.New("undecodable record")
)

// unavailableSignatures are message fragments of failures that mean "no data
// right now" even when they do not carry a typed code.
var unavailableSignatures = []string{
	"offline",
	"backend didn't respond",
	"could not reach",
	"missing or insufficient permissions",
	"insufficient permission",
}

// IsUnavailable reports whether err is a transient-unavailable failure.
//
// A raw context.DeadlineExceeded is not one: a timeout only counts when the
// transport surfaces it with a recognised code or message.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, adapter.ErrUnavailable) || errors.Is(err, adapter.ErrPermissionDenied) {
		return true
	}

	switch adapter.ErrorCode(err) {
	case adapter.CodeUnavailable,
		adapter.CodePermissionDenied,
		adapter.CodeUnauthenticated,
		adapter.CodeDeadlineExceeded:
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range unavailableSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
