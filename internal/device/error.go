package device

import (
	"errors"
	"fmt"
)

// Sentinel errors for value handling within the device package.
var (
	// ErrInvalidValue is returned when a value cannot be decoded or encoded.
	ErrInvalidValue = errors.New("device: invalid value")

	// ErrDuplicateParam is returned when a ParamList carries two params with
	// the same name.
	ErrDuplicateParam = errors.New("device: duplicate param")
)

// ErrorCode is the result tag returned by every orchestrator operation.
//
// Callers (JSON-RPC servers, the rules engine) branch on the code, so the
// taxonomy is a closed enum rather than an opaque error chain.
type ErrorCode string

// Error codes.
const (
	ErrorNone ErrorCode = "NoError"

	// ErrorAsync means the reply will arrive as a later notification.
	ErrorAsync ErrorCode = "Async"

	ErrorPluginNotFound             ErrorCode = "PluginNotFound"
	ErrorDeviceNotFound             ErrorCode = "DeviceNotFound"
	ErrorDeviceClassNotFound        ErrorCode = "DeviceClassNotFound"
	ErrorActionTypeNotFound         ErrorCode = "ActionTypeNotFound"
	ErrorStateTypeNotFound          ErrorCode = "StateTypeNotFound"
	ErrorEventTypeNotFound          ErrorCode = "EventTypeNotFound"
	ErrorDescriptorNotFound         ErrorCode = "DeviceDescriptorNotFound"
	ErrorPairingTransactionNotFound ErrorCode = "PairingTransactionIdNotFound"
	ErrorMissingParameter           ErrorCode = "MissingParameter"
	ErrorInvalidParameter           ErrorCode = "InvalidParameter"
	ErrorSetupFailed                ErrorCode = "SetupFailed"
	ErrorDuplicateUUID              ErrorCode = "DuplicateUuid"
	ErrorCreationMethodNotSupported ErrorCode = "CreationMethodNotSupported"
	ErrorSetupMethodNotSupported    ErrorCode = "SetupMethodNotSupported"
	ErrorHardwareNotAvailable       ErrorCode = "HardwareNotAvailable"
	ErrorHardwareFailure            ErrorCode = "HardwareFailure"
	ErrorDeviceInUse                ErrorCode = "DeviceInUse"
)

// Error is a tagged operation result. The zero value is success.
//
// Error intentionally does not implement the error interface: Async is a
// normal outcome, and forcing callers through errors.Is for a closed enum
// would obscure the branch on the code.
type Error struct {
	Code   ErrorCode
	Detail string
}

// NoError is the successful synchronous result.
var NoError = Error{Code: ErrorNone}

// Async is the deferred result; a completion notification follows.
var Async = Error{Code: ErrorAsync}

// NewError builds an Error with a detail message.
func NewError(code ErrorCode, format string, args ...any) Error {
	return Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// OK reports whether the operation succeeded synchronously.
func (e Error) OK() bool { return e.Code == "" || e.Code == ErrorNone }

// IsAsync reports whether the reply arrives as a later notification.
func (e Error) IsAsync() bool { return e.Code == ErrorAsync }

// Failed reports whether the operation failed terminally.
func (e Error) Failed() bool { return !e.OK() && !e.IsAsync() }

// String renders the code, with detail when present.
func (e Error) String() string {
	code := e.Code
	if code == "" {
		code = ErrorNone
	}
	if e.Detail == "" {
		return string(code)
	}
	return fmt.Sprintf("%s: %s", code, e.Detail)
}
