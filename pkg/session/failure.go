package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/go-go-golems/coach/pkg/replyclient"
)

// FailureKindUnknown covers errors from repliers that do not classify their failures.
const FailureKindUnknown = "unknown"

// FailureKind names the class of a reply failure for logs and events.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	if k := replyclient.KindOf(err); k != replyclient.KindNone {
		return string(k)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(replyclient.KindTransport)
	}
	return FailureKindUnknown
}

func statusCode(err error) int {
	var e *replyclient.Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
