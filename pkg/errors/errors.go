package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transient network errors (timeout, reset, 5xx)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting responses from the site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePermanent represents non-retryable request errors (malformed request, 4xx)
	ErrorTypePermanent ErrorType = "permanent"
	// ErrorTypeParsing represents payload parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeSink represents output file write errors
	ErrorTypeSink ErrorType = "sink"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlError represents a crawl-specific error
type CrawlError struct {
	Type    ErrorType
	Target  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Target, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth another per-target attempt
func (e *CrawlError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// New creates a new CrawlError
func New(errType ErrorType, target, message string, err error) *CrawlError {
	return &CrawlError{
		Type:    errType,
		Target:  target,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new transient network error
func NewNetwork(target, message string, err error) *CrawlError {
	return New(ErrorTypeNetwork, target, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(target string, retryAfter string) *CrawlError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, target, message, nil)
}

// NewPermanent creates a new non-retryable request error
func NewPermanent(target, message string, err error) *CrawlError {
	return New(ErrorTypePermanent, target, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(target, message string, err error) *CrawlError {
	return New(ErrorTypeParsing, target, message, err)
}

// NewSink creates a new sink write error
func NewSink(target, message string, err error) *CrawlError {
	return New(ErrorTypeSink, target, message, err)
}

// NewValidation creates a new validation error
func NewValidation(target, message string) *CrawlError {
	return New(ErrorTypeValidation, target, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Retryable reports whether err should consume a retry attempt.
// Errors that are not CrawlErrors are treated as retryable, matching the
// site's older crawler variants that retried on any exception.
func Retryable(err error) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return true
}
