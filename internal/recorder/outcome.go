// Package recorder classifies request outcomes and forwards them to the
// statistics sinks without blocking the virtual-user loop.
package recorder

import (
	"fmt"
	"time"

	"github.com/torosent/shortload/internal/catalog"
)

// ReasonTransportError is the failure reason for requests that produced no status.
const ReasonTransportError = "transport error"

// Outcome is the raw result of one request. It is owned by the issuing user
// and consumed immediately by the Recorder.
type Outcome struct {
	Type    *catalog.RequestType
	Status  int // 0 when the transport failed before a status was read
	Latency time.Duration
	Err     error
	UserID  string
}

// Result is a classified outcome as delivered to a Sink.
type Result struct {
	Name    string
	Success bool
	Reason  string
	Status  int
	Latency time.Duration
}

// Classify applies the request type's acceptance rule.
func Classify(o Outcome) Result {
	res := Result{Status: o.Status, Latency: o.Latency}
	if o.Type != nil {
		res.Name = o.Type.Name
	}
	switch {
	case o.Err != nil:
		res.Reason = ReasonTransportError
	case o.Type != nil && o.Type.Acceptable.Contains(o.Status):
		res.Success = true
	default:
		res.Reason = UnexpectedStatusReason(o.Status)
	}
	return res
}

func UnexpectedStatusReason(status int) string {
	return fmt.Sprintf("unexpected status code: %d", status)
}
