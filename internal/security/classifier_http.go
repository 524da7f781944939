package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPClassifier asks a remote risk service for a verdict. The service receives
// a RiskRequest as JSON and answers {"verdict": "clean|bot|shield|rateLimit"}.
type HTTPClassifier struct {
	url     string
	timeout time.Duration
}

type classifierResponse struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason,omitempty"`
}

// NewHTTPClassifier builds a classifier bounded by timeout.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &HTTPClassifier{url: url, timeout: timeout}
}

// Classify implements RiskClassifier.
func (h *HTTPClassifier) Classify(ctx context.Context, req RiskRequest) (Verdict, error) {
	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return VerdictClean, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(h.url)
	agent.JSON(req)
	agent.Timeout(timeout)

	var out classifierResponse
	code, _, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return VerdictClean, fmt.Errorf("risk classifier: %w", errors.Join(errs...))
	}
	if code != http.StatusOK {
		return VerdictClean, fmt.Errorf("risk classifier: unexpected status %d", code)
	}
	return ParseVerdict(out.Verdict)
}
