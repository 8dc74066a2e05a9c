package errors

// ErrorCode identifies the outcome class of a publish run.
// Codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Permission errors.

	// CodeUnauthorized indicates the storage provider rejected the credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeMissingRevision indicates the triggering change carries no commit identifier.
	CodeMissingRevision ErrorCode = "MISSING_REVISION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// Execution errors.

	// CodePublishFailed indicates no file could be published.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// CodeOf maps an error to the ErrorCode reported to callers.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrMissingRevision):
		return CodeMissingRevision
	case Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case IsCredentialError(err):
		return CodeUnauthorized
	case IsAccessDenied(err):
		return CodeForbidden
	case Is(err, ErrConnection):
		return CodeNetwork
	default:
		return CodeUnknown
	}
}
