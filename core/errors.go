package core

import (
	"errors"
	"fmt"
	"os"
)

// General error codes
const (
	NOERROR   int = 0
	EFORMAT   int = 130 // malformed or unsupported input
	ECONFIG   int = 131 // invalid settings
	EBUILD    int = 132 // font would violate structural limits
	EINTERNAL int = 125 // internal error
)

func errorText(ecode int) string {
	switch ecode {
	case NOERROR:
		return "OK"
	case EFORMAT:
		return "format error"
	case ECONFIG:
		return "configuration error"
	case EBUILD:
		return "build error"
	case EINTERNAL:
		return "internal error"
	}
	return "undefined error"
}

// AppError is an error with an associated error code and a user-message.
type AppError interface {
	error
	ErrorCode() int
	UserMessage() string
}

type coreError struct {
	error
	code int
	msg  string
}

func (e coreError) Unwrap() error {
	return e.error
}

func (e coreError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("[%d] %v", e.code, e.error)
	}
	return fmt.Sprintf("[%d] %v: %s", e.code, e.error, e.msg)
}

func (e coreError) ErrorCode() int {
	return e.code
}

func (e coreError) UserMessage() string {
	return e.msg
}

var _ AppError = coreError{}

// ErrorWithCode adds an error code to err's error chain.
// Unlike pkg/errors, ErrorWithCode will wrap nil error.
func ErrorWithCode(err error, code int) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	return coreError{err, code, errorText(code)}
}

// WrapError wraps an error in a core error, featuring an error code and
// a user message.
// If err is nil, an error denoting the code's default text is wrapped.
func WrapError(err error, code int, format string, v ...interface{}) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	msg := fmt.Sprintf(format, v...)
	return coreError{err, code, msg}
}

// Code returns the status code associated with an error.
// If no status code is found, it returns EINTERNAL.
// If err is nil, NOERROR is returned.
func Code(err error) (code int) {
	if err == nil {
		return NOERROR
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.ErrorCode()
	}
	return EINTERNAL
}

// UserMessage returns the user message associated with an error.
// If no message is found, it checks StatusCode and returns that message.
// If err is nil, it returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.UserMessage()
	}
	return errorText(Code(err))
}

// Error creates an error with an error code and a user-message.
func Error(code int, format string, v ...interface{}) error {
	return coreError{
		errors.New(errorText(code)),
		code,
		fmt.Sprintf(format, v...),
	}
}

// --- Pipeline error taxonomy -----------------------------------------------

// FormatError reports malformed or unsupported input at byte offset pos.
// A negative offset is omitted from the message.
func FormatError(pos int64, format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)
	if pos >= 0 {
		msg = fmt.Sprintf("%s (at byte offset %d)", msg, pos)
	}
	return coreError{errors.New(errorText(EFORMAT)), EFORMAT, msg}
}

// WrapFormatError is like FormatError, but keeps err in the error chain.
func WrapFormatError(err error, pos int64, format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)
	if pos >= 0 {
		msg = fmt.Sprintf("%s (at byte offset %d)", msg, pos)
	}
	return WrapError(err, EFORMAT, "%s", msg)
}

// ConfigError reports an invalid setting, identified by its key.
func ConfigError(key string, format string, v ...interface{}) error {
	return Error(ECONFIG, "setting %q: %s", key, fmt.Sprintf(format, v...))
}

// BuildError reports a violated structural limit of the output font.
func BuildError(format string, v ...interface{}) error {
	return Error(EBUILD, format, v...)
}

// IsFormatError is a predicate for errors with code EFORMAT.
func IsFormatError(err error) bool { return Code(err) == EFORMAT }

// IsConfigError is a predicate for errors with code ECONFIG.
func IsConfigError(err error) bool { return Code(err) == ECONFIG }

// IsBuildError is a predicate for errors with code EBUILD.
func IsBuildError(err error) bool { return Code(err) == EBUILD }

func UserError(err error) {
	if e, ok := err.(AppError); ok {
		fmt.Fprintf(os.Stderr, "[%d] %s\n", e.ErrorCode(), e.UserMessage())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}
