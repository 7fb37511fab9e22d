package importer

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// candidateRetryMaxElapsed bounds retry of one candidate's PASS_B write;
// a candidate that keeps failing past this window is logged and skipped
// rather than stalling the whole revision (spec §4.2: "per-candidate
// errors... the run continues").
const candidateRetryMaxElapsed = 10 * time.Second

func newCandidateBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = candidateRetryMaxElapsed
	return bo
}

// isRetryableError reports whether err looks like a transient storage
// error (connection blip, not a constraint violation or bad data) worth
// retrying before giving up on a candidate.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "connection reset"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "bad connection"),
		strings.Contains(s, "i/o timeout"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "too many connections"):
		return true
	default:
		return false
	}
}

// withRetry retries op with exponential backoff while its errors look
// transient, and gives up immediately on anything else.
func withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryableError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(newCandidateBackoff(), ctx))
}
