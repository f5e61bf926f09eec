package apierror

import (
	"github.com/chromad/chromad/internal/chromaerr"
	"github.com/chromad/chromad/pkg/chromatypes"
)

func ErrBadRequest(detail string) chromatypes.ApiError {
	return chromatypes.ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrNotFound(detail string) chromatypes.ApiError {
	return chromatypes.ApiError{Status: 404, Title: "Not Found", Detail: detail}
}
func ErrConflict(detail string) chromatypes.ApiError {
	return chromatypes.ApiError{Status: 409, Title: "Conflict", Detail: detail}
}
func ErrInternal(detail string) chromatypes.ApiError {
	return chromatypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}
func ErrUnauthorized(detail string) chromatypes.ApiError {
	return chromatypes.ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}

// codeStatus maps a chromaerr.Code to an HTTP-style status for the problem
// envelope, per spec §7's error-to-route mapping.
func codeStatus(code chromaerr.Code) (int, string) {
	switch code {
	case chromaerr.CodeInvalidArgument:
		return 400, "Invalid Argument"
	case chromaerr.CodeUnsupported:
		return 422, "Unsupported"
	case chromaerr.CodeDeviceBusy:
		return 409, "Device Busy"
	case chromaerr.CodeDeviceOffline:
		return 503, "Device Offline"
	case chromaerr.CodeTimeout, chromaerr.CodeDeadline:
		return 504, "Timeout"
	case chromaerr.CodeProtocolError:
		return 502, "Protocol Error"
	case chromaerr.CodeRendererFailed:
		return 500, "Renderer Failed"
	case chromaerr.CodeConflict:
		return 409, "Conflict"
	default:
		return 500, "Internal Server Error"
	}
}

// WrapError normalizes any error into chromatypes.ApiError. An ApiError
// (value or pointer) is returned as is, a chromaerr error is translated via
// its Code, and anything else becomes a 500.
func WrapError(err error) chromatypes.ApiError {
	if ae, ok := err.(*chromatypes.ApiError); ok {
		return *ae
	}
	if ae, ok := err.(chromatypes.ApiError); ok {
		return ae
	}
	if code := chromaerr.CodeOf(err); code != "" {
		status, title := codeStatus(code)
		return chromatypes.ApiError{Status: status, Title: title, Detail: err.Error(), Code: string(code)}
	}
	return ErrInternal(err.Error())
}
