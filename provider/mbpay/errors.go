package mbpay

import (
	"errors"
	"fmt"
)

// ErrorKind classifies where a failure happened
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindTransport     ErrorKind = "transport"
	KindTimeout       ErrorKind = "timeout"
	KindProtocol      ErrorKind = "protocol"
	KindParse         ErrorKind = "parse"
	KindApplication   ErrorKind = "application"
	KindResponseShape ErrorKind = "response_shape"
	KindSignature     ErrorKind = "signature"
)

// Gateway error codes
const (
	ErrCodeSuccess                   = 0
	ErrCodeAppIDEmpty                = 12000
	ErrCodeSignEmpty                 = 12001
	ErrCodeTimestampEmpty            = 12002
	ErrCodeMerchantNotExists         = 12003
	ErrCodeSignError                 = 12005
	ErrCodeParamError                = 12006
	ErrCodeMerchantNotExists2        = 12007
	ErrCodeMerchantStatusError       = 12008
	ErrCodeMerchantNotExists3        = 12009
	ErrCodeInsufficientBalance       = 12010
	ErrCodeOrderExistsOrAddrNotFound = 12011
	ErrCodeSystemError               = 12012
	ErrCodeOrderNoEmpty              = 12013
	ErrCodeOrderNotFound             = 12014
)

// Error is the single error type returned by the client. Code is the
// gateway's code for application errors and 0 for everything else.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

// Sentinels for errors.Is. ErrTransport also matches timeouts.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrProtocol      = &Error{Kind: KindProtocol}
	ErrParse         = &Error{Kind: KindParse}
	ErrApplication   = &Error{Kind: KindApplication}
	ErrResponseShape = &Error{Kind: KindResponseShape}
	ErrSignature     = &Error{Kind: KindSignature}
)

func (e *Error) Error() string {
	if e.Kind == KindApplication {
		return fmt.Sprintf("MBPay API Error [%d]: %s", e.Code, e.Message)
	}
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("mbpay %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("mbpay %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind only
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != 0 || t.Message != "" || t.Err != nil {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindTransport && e.Kind == KindTimeout
}

// IsInsufficientBalance reports a 12010 application error
func (e *Error) IsInsufficientBalance() bool {
	return e.Kind == KindApplication && e.Code == ErrCodeInsufficientBalance
}

// IsOrderNotFound reports a 12014 application error
func (e *Error) IsOrderNotFound() bool {
	return e.Kind == KindApplication && e.Code == ErrCodeOrderNotFound
}

// IsSignError reports that the gateway rejected the request signature
func (e *Error) IsSignError() bool {
	return e.Kind == KindApplication && (e.Code == ErrCodeSignError || e.Code == ErrCodeSignEmpty)
}

// AsError extracts the client error from err's chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err did not come from this package
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// NewError creates an application error with the gateway's code and message
func NewError(code int, message string) *Error {
	return &Error{Kind: KindApplication, Code: code, Message: message}
}

func newValidationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func newTransportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func newTimeoutError(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

func newProtocolError(status int) *Error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf("unexpected HTTP status %d", status)}
}

func newParseError(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

func newShapeError(field string) *Error {
	return &Error{Kind: KindResponseShape, Message: fmt.Sprintf("invalid %s format in response", field)}
}

func newSignatureError(message string) *Error {
	return &Error{Kind: KindSignature, Message: message}
}
