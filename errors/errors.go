// Package errors provides error types and classification for publish runs.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Error represents a storage operation error with context about the operation that failed.
// It wraps the underlying SDK error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "put", "list", "delete")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Err is the underlying error from the SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3publish.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3publish.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3publish.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3publish.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewValidationError creates an Error for invalid caller input.
// The result matches ErrInvalidInput with errors.Is.
func NewValidationError(message string) *Error {
	return &Error{
		Op:  "validate",
		Err: fmt.Errorf("%w: %s", ErrInvalidInput, message),
	}
}

// Sentinel errors for publish failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3publish: invalid input")

	// ErrMissingRevision indicates the triggering change has no commit identifier
	ErrMissingRevision = errors.New("s3publish: missing revision")

	// ErrInvalidCredentials indicates that the storage credentials are invalid or unavailable
	ErrInvalidCredentials = errors.New("s3publish: invalid credentials")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3publish: access denied")

	// ErrConnection indicates a connection error
	ErrConnection = errors.New("s3publish: connection error")
)

// credentialCodes are provider error codes that mean the credentials themselves
// are unusable, as opposed to a single object being rejected.
var credentialCodes = map[string]struct{}{
	"InvalidAccessKeyId":          {},
	"SignatureDoesNotMatch":       {},
	"ExpiredToken":                {},
	"InvalidToken":                {},
	"TokenRefreshRequired":        {},
	"InvalidClientTokenId":        {},
	"UnrecognizedClientException": {},
	"AuthFailure":                 {},
	"MissingAuthenticationToken":  {},
	"CredentialsError":            {},
}

// credentialMessages match credential resolution failures raised by the SDK
// before any request reaches the provider.
var credentialMessages = []string{
	"failed to retrieve credentials",
	"static credentials are empty",
	"no EC2 IMDS role found",
}

// IsCredentialError reports whether err means every further request with the
// same credentials will fail too.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := credentialCodes[apiErr.ErrorCode()]; ok {
			return true
		}
	}

	msg := err.Error()
	for _, m := range credentialMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Detail renders err for user-visible warnings.
// Provider errors are reduced to "<Code>: <Message>".
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), msg)
		}
		return apiErr.ErrorCode()
	}
	return err.Error()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsAccessDenied checks if an error indicates access was denied.
// Provider "AccessDenied" responses count as well as the sentinel.
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrAccessDenied) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied"
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingRevision checks if an error indicates a missing commit identifier.
func IsMissingRevision(err error) bool {
	return errors.Is(err, ErrMissingRevision)
}
