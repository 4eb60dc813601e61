package verification

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	// ErrorTimeout: the attempt exceeded its deadline. The only retryable category.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorUpstream: DNS, connection and other transport failures.
	ErrorUpstream ErrorCategory = "upstream"

	// ErrorBadStatus: the registry answered with a non-2xx status.
	ErrorBadStatus ErrorCategory = "bad_status"
)

// VerifyError wraps a failed attempt with its category.
type VerifyError struct {
	Category   ErrorCategory
	Message    string
	Underlying error
	Retryable  bool
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("fmcsa [%s]: %s", e.Category, e.Description())
}

func (e *VerifyError) Unwrap() error {
	return e.Underlying
}

// Description is the text surfaced in CarrierVerification.Error.
func (e *VerifyError) Description() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Underlying != nil {
		return e.Underlying.Error()
	}
	return string(e.Category)
}

func newError(category ErrorCategory, message string, underlying error) *VerifyError {
	return &VerifyError{
		Category:   category,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout,
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}

// GetCategory extracts the category, defaulting to ErrorUpstream.
func GetCategory(err error) ErrorCategory {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Category
	}
	return ErrorUpstream
}

// classifyTransport maps an http.Client failure onto the taxonomy.
func classifyTransport(err error) *VerifyError {
	if isTimeout(err) {
		return newError(ErrorTimeout, "", err)
	}
	return newError(ErrorUpstream, "", err)
}

// isTimeout accepts both typed deadline errors and timeout-flavoured messages
// from the network stack.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout")
}
