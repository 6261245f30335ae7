package types

import "errors"

// Error codes reported by the library.
const (
	ErrUnsupportedCoin        = "UNSUPPORTED_COIN"
	ErrRateFetchFailed        = "RATE_FETCH_FAILED"
	ErrBalanceFetchFailed     = "BALANCE_FETCH_FAILED"
	ErrConversionFailed       = "CONVERSION_FAILED"
	ErrInsufficientFunds      = "INSUFFICIENT_FUNDS"
	ErrPaymentExecutionFailed = "PAYMENT_EXECUTION_FAILED"
	ErrInvalidRequest         = "INVALID_REQUEST"
	ErrConfigError            = "CONFIG_ERROR"
	ErrStorageError           = "STORAGE_ERROR"
	ErrAuthFailed             = "AUTH_FAILED"
	ErrAccountNotFound        = "ACCOUNT_NOT_FOUND"
)

// Error is the structured error type returned by every operation in the
// library. Code is one of the Err* constants, Coin names the coin the
// failure relates to when there is one, and Data carries machine readable
// detail such as per coin shortfalls.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Coin    string      `json:"coin,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Network fetch and
// storage transport failures may succeed on retry; everything else is a
// terminal decision about the request itself.
func (e *Error) Retryable() bool {
	switch e.Code {
	case ErrRateFetchFailed, ErrBalanceFetchFailed, ErrStorageError:
		return true
	}
	return false
}

// NewError builds an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds an Error that records an underlying cause.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrorCode extracts the library error code from err, unwrapping as needed.
// It returns the empty string when err carries no code.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given library error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
