package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies failures so the HTTP layer can map them to a status
// and a stable machine-readable code in the response envelope.
type ErrorCode string

const (
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeNotAuthenticated    ErrorCode = "NOT_AUTHENTICATED"
	CodeInvalidHMAC         ErrorCode = "INVALID_HMAC"
	CodeInvalidState        ErrorCode = "INVALID_STATE"
	CodeInvalidShop         ErrorCode = "INVALID_SHOP"
	CodeMissingSessionToken ErrorCode = "MISSING_SESSION_TOKEN"
	CodeTokenExchangeFailed ErrorCode = "TOKEN_EXCHANGE_FAILED"
	CodeShopifyAPIError     ErrorCode = "SHOPIFY_API_ERROR"
	CodeOAuthError          ErrorCode = "OAUTH_ERROR"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// Error is a classified application error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error code to the response status. Validation and
// auth failures are terminal 400/401; upstream failures surface as 500.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest, CodeInvalidShop:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeNotAuthenticated, CodeInvalidHMAC,
		CodeInvalidState, CodeMissingSessionToken, CodeTokenExchangeFailed:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewError builds a classified error without a cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds a classified error around an underlying cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
