package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Analysis pipeline error codes. These are the user-facing taxonomy: every
// failure that reaches the orchestrator boundary carries one of them.
const (
	ErrCodeEmptyInput      ErrorCode = "ANA_001"
	ErrCodeCapability      ErrorCode = "ANA_002"
	ErrCodeRemote          ErrorCode = "ANA_003"
	ErrCodeStaleRun        ErrorCode = "ANA_004"
	ErrCodeInvalidSMILES   ErrorCode = "ANA_005"
	ErrCodeFileTooLarge    ErrorCode = "ANA_006"
	ErrCodeFileTypeInvalid ErrorCode = "ANA_007"
)

// Viewer error codes
const (
	ErrCodeRender         ErrorCode = "VIEW_001"
	ErrCodeViewerNotReady ErrorCode = "VIEW_002"
	ErrCodeNoStructure    ErrorCode = "VIEW_003"
)

// Aliases used across layers
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeValidation   = ErrCodeValidation
	CodeEmptyInput   = ErrCodeEmptyInput
	CodeCapability   = ErrCodeCapability
	CodeRemote       = ErrCodeRemote
	CodeRender       = ErrCodeRender
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeEmptyInput:      http.StatusBadRequest,
	ErrCodeCapability:      http.StatusUnprocessableEntity,
	ErrCodeRemote:          http.StatusBadGateway,
	ErrCodeStaleRun:        http.StatusConflict,
	ErrCodeInvalidSMILES:   http.StatusBadRequest,
	ErrCodeFileTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeFileTypeInvalid: http.StatusUnsupportedMediaType,

	ErrCodeRender:         http.StatusUnprocessableEntity,
	ErrCodeViewerNotReady: http.StatusServiceUnavailable,
	ErrCodeNoStructure:    http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeEmptyInput:      "please enter a SMILES string or select a file",
	ErrCodeCapability:      "this file format is not supported",
	ErrCodeRemote:          "analysis service request failed",
	ErrCodeStaleRun:        "analysis was reset before it completed",
	ErrCodeInvalidSMILES:   "SMILES contains invalid characters",
	ErrCodeFileTooLarge:    "file exceeds the maximum upload size",
	ErrCodeFileTypeInvalid: "file type is not accepted",

	ErrCodeRender:         "structure could not be rendered",
	ErrCodeViewerNotReady: "3D viewer is not ready",
	ErrCodeNoStructure:    "no structure loaded",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

// Category returns the taxonomy name of a code as shown to users and used as
// a metric label: EmptyInput, ValidationError, CapabilityError, RemoteError,
// RenderError, InvalidState or Internal.
func Category(code ErrorCode) string {
	switch code {
	case ErrCodeEmptyInput:
		return "EmptyInput"
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeNotFound, ErrCodeInvalidSMILES, ErrCodeFileTooLarge, ErrCodeFileTypeInvalid:
		return "ValidationError"
	case ErrCodeCapability:
		return "CapabilityError"
	case ErrCodeRemote, ErrCodeServiceUnavailable, ErrCodeTimeout:
		return "RemoteError"
	case ErrCodeRender, ErrCodeViewerNotReady:
		return "RenderError"
	case ErrCodeConflict, ErrCodeStaleRun, ErrCodeNoStructure:
		return "InvalidState"
	default:
		return "Internal"
	}
}
