// Package chromaerr defines the closed taxonomy of errors the core surfaces
// to callers (device drivers, the compositor, and the remote interface).
package chromaerr

import (
	"errors"
	"fmt"
)

// Code identifies one of the closed set of error categories surfaced by the
// core. Every error returned across a package boundary in chromad can be
// classified into exactly one of these.
type Code string

const (
	CodeUnsupported    Code = "unsupported"
	CodeInvalidArgument Code = "invalid_argument"
	CodeDeviceBusy     Code = "device_busy"
	CodeDeviceOffline  Code = "device_offline"
	CodeTimeout        Code = "timeout"
	CodeProtocolError  Code = "protocol_error"
	CodeRendererFailed Code = "renderer_failed"
	CodeConflict       Code = "conflict"
	CodeDeadline       Code = "deadline"
)

// Error is the concrete error type carried across the core. It pairs a
// closed Code with a short, human-readable reason.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Is allows errors.Is(err, chromaerr.Unsupported("")) style matching against a
// sentinel constructed with the same Code and empty Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, reason string) *Error { return &Error{Code: code, Reason: reason} }

func Unsupported(reason string) *Error    { return New(CodeUnsupported, reason) }
func InvalidArgument(reason string) *Error { return New(CodeInvalidArgument, reason) }
func DeviceBusy(reason string) *Error     { return New(CodeDeviceBusy, reason) }
func DeviceOffline(reason string) *Error  { return New(CodeDeviceOffline, reason) }
func Timeout(reason string) *Error        { return New(CodeTimeout, reason) }
func ProtocolError(reason string) *Error  { return New(CodeProtocolError, reason) }
func RendererFailed(reason string) *Error { return New(CodeRendererFailed, reason) }
func Conflict(reason string) *Error       { return New(CodeConflict, reason) }
func Deadline(reason string) *Error       { return New(CodeDeadline, reason) }

// CodeOf extracts the Code from err, returning "" if err is not (or does not
// wrap) a *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
