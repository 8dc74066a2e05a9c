// Package credentials loads static storage credentials, optionally from an
// AWS Secrets Manager secret.
package credentials

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
)

// AWS error code constants
const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

var (
	// ErrSecretNotFound indicates the secret does not exist
	ErrSecretNotFound = stderrors.New("credentials: secret not found")

	// ErrSecretEmpty indicates the secret has no string value
	ErrSecretEmpty = stderrors.New("credentials: secret is empty")
)

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Static is a fixed access key pair.
type Static struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
}

// IsZero reports whether no key is set.
func (s Static) IsZero() bool {
	return s.AccessKeyID == "" && s.SecretAccessKey == ""
}

// Validate checks that both halves of the key pair are present.
func (s Static) Validate() error {
	if s.AccessKeyID == "" || s.SecretAccessKey == "" {
		return fmt.Errorf("%w: access key id and secret access key are both required", errors.ErrInvalidCredentials)
	}
	return nil
}

// Provider returns an SDK credentials provider for s.
func (s Static) Provider() aws.CredentialsProvider {
	return awscreds.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken)
}

// Source reads credentials from Secrets Manager.
type Source struct {
	api    SecretsAPI
	logger *slog.Logger
}

// NewSource creates a Source over api.
func NewSource(api SecretsAPI, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{api: api, logger: logger}
}

// NewSourceFromConfig creates a Source using the Secrets Manager client for cfg.
func NewSourceFromConfig(cfg aws.Config, logger *slog.Logger) *Source {
	return NewSource(secretsmanager.NewFromConfig(cfg), logger)
}

// Fetch reads secretID and decodes it as a JSON key pair.
// Secret values are never logged.
func (s *Source) Fetch(ctx context.Context, secretID string) (Static, error) {
	if secretID == "" {
		return Static{}, errors.NewValidationError("secret id cannot be empty")
	}

	s.logger.InfoContext(ctx, "fetching storage credentials", "secret_id", secretID)

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch storage credentials",
			"secret_id", secretID,
			"error", err)
		return Static{}, classify(err, secretID)
	}

	value := aws.ToString(out.SecretString)
	if value == "" {
		return Static{}, fmt.Errorf("%w: %s", ErrSecretEmpty, secretID)
	}

	var creds Static
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		// The JSON error may quote the secret, so it is not included.
		return Static{}, fmt.Errorf("%w: secret %s is not a JSON key pair", errors.ErrInvalidCredentials, secretID)
	}
	if err := creds.Validate(); err != nil {
		return Static{}, fmt.Errorf("secret %s: %w", secretID, err)
	}

	return creds, nil
}

func classify(err error, secretID string) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case ResourceNotFoundException:
			return fmt.Errorf("%w: %s", ErrSecretNotFound, secretID)
		case AccessDeniedException:
			return fmt.Errorf("%w: %s", errors.ErrAccessDenied, secretID)
		}
	}
	return fmt.Errorf("get secret %s: %w", secretID, err)
}
