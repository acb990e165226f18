package analysis

import (
	"errors"
	"fmt"
	"net/http"

	"indisense/sentiment-gateway/internal/gateway"
)

// Kind classifies an analysis failure.
type Kind string

const (
	KindInvalidInput           Kind = "InvalidInput"
	KindServiceUnavailable     Kind = "ServiceUnavailable"
	KindTranscriptionFailed    Kind = "TranscriptionFailed"
	KindMalformedModelResponse Kind = "MalformedModelResponse"
	KindAmbiguousModelResponse Kind = "AmbiguousModelResponse"
	KindInvalidResultShape     Kind = "InvalidResultShape"
	KindRateLimited            Kind = "RateLimited"
	KindQuotaExhausted         Kind = "QuotaExhausted"
	KindUpstreamError          Kind = "UpstreamError"
)

// HTTPStatus is the response status used for the kind at the handler boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindTranscriptionFailed:
		return http.StatusBadRequest
	case KindQuotaExhausted:
		return http.StatusPaymentRequired
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed analysis failure. Message is safe to show to the caller;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Set for KindUpstreamError when the gateway answered with a status.
	UpstreamStatus int
	UpstreamBody   string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUpstreamError for untyped errors.
func KindOf(err error) Kind {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return KindUpstreamError
}

const (
	msgRateLimited    = "Rate limit exceeded. Please try again later."
	msgQuotaExhausted = "AI credits exhausted. Please add credits."
)

// classifyGatewayError maps a failed gateway call onto the taxonomy. failMessage
// is used for everything that is neither a rate limit nor a billing signal.
func classifyGatewayError(err error, failMessage string) *Error {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return newError(KindRateLimited, msgRateLimited, err)
		case http.StatusPaymentRequired:
			return newError(KindQuotaExhausted, msgQuotaExhausted, err)
		}
		e := newError(KindUpstreamError, failMessage, err)
		e.UpstreamStatus = statusErr.StatusCode
		e.UpstreamBody = statusErr.Body
		return e
	}
	if errors.Is(err, gateway.ErrMissingAPIKey) {
		return newError(KindServiceUnavailable, msgNotConfigured, err)
	}
	return newError(KindUpstreamError, failMessage, err)
}
