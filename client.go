package s3publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Client publishes local files to a bucket.
// A Client may be reused for any number of runs; runs share no state.
type Client struct {
	// s3Client is the storage backend
	s3Client s3api.S3API

	// fs is the local tree files are read from
	fs billy.Filesystem

	// logger receives structured progress output
	logger *slog.Logger

	// region is the resolved region of the storage client
	region string
}

// New creates a new publish client with the provided options.
// The AWS backend loads credentials using the default credential chain unless
// static credentials are given.
func New(ctx context.Context, opts ...s3types.Option) (*Client, error) {
	clientCfg := &s3types.ClientConfig{
		Backend:    s3types.BackendAWS,
		MaxRetries: 3,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	if err := validateClientConfig(clientCfg); err != nil {
		return nil, err
	}

	fs, err := filesystem(clientCfg)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	client := &Client{
		fs:     fs,
		logger: logger(clientCfg),
	}

	switch clientCfg.Backend {
	case s3types.BackendMinio:
		client.s3Client, client.region, err = newMinioBackend(clientCfg)
	default:
		client.s3Client, client.region, err = newAWSBackend(ctx, clientCfg)
	}
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	return client, nil
}

// NewWithClient creates a new publish client with a custom S3API implementation.
// Storage-related options are ignored; WithLogger and WithFilesystem apply.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	clientCfg := &s3types.ClientConfig{}
	for _, opt := range opts {
		opt(clientCfg)
	}

	fs, err := filesystem(clientCfg)
	if err != nil {
		fs = osfs.New("/")
	}

	return &Client{
		s3Client: s3Client,
		fs:       fs,
		logger:   logger(clientCfg),
		region:   clientCfg.Region,
	}
}

// Region returns the region the storage client was configured with.
func (c *Client) Region() string {
	return c.region
}

func validateClientConfig(cfg *s3types.ClientConfig) error {
	switch cfg.Backend {
	case s3types.BackendAWS:
	case s3types.BackendMinio:
		if cfg.Endpoint == "" {
			return errors.NewValidationError("endpoint is required for the minio backend")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown backend %q", cfg.Backend))
	}

	if cfg.Proxy != "" {
		if _, err := parseProxy(cfg.Proxy); err != nil {
			return errors.NewValidationError(err.Error())
		}
	}
	if cfg.Endpoint != "" {
		if _, err := endpointURL(cfg.Endpoint, cfg.DisableSSL); err != nil {
			return errors.NewValidationError(err.Error())
		}
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return errors.NewValidationError("access key id and secret access key must be set together")
	}
	return nil
}

func newAWSBackend(ctx context.Context, clientCfg *s3types.ClientConfig) (s3api.S3API, string, error) {
	httpClient, err := awsHTTPClient(clientCfg)
	if err != nil {
		return nil, "", err
	}

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = clientCfg.CustomAWSConfig.Copy()
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(clientCfg.Region))
		}
		if httpClient != nil {
			loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
		}
		if clientCfg.MaxRetries > 0 {
			loadOpts = append(loadOpts, config.WithRetryMaxAttempts(clientCfg.MaxRetries))
		}

		cfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	// Apply region from options if specified, otherwise ensure a region is set
	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(awscreds.NewStaticCredentialsProvider(
			clientCfg.AccessKeyID, clientCfg.SecretAccessKey, clientCfg.SessionToken))
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Endpoint != "" {
		u, err := endpointURL(clientCfg.Endpoint, clientCfg.DisableSSL)
		if err != nil {
			return nil, "", err
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(u.String())
		})
	}
	if httpClient != nil && clientCfg.CustomAWSConfig != nil {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return s3.NewFromConfig(cfg, s3Opts...), cfg.Region, nil
}

// awsHTTPClient returns the HTTP client for the AWS backend, or nil when
// the SDK default is fine.
func awsHTTPClient(cfg *s3types.ClientConfig) (aws.HTTPClient, error) {
	if cfg.CustomHTTPClient != nil {
		return cfg.CustomHTTPClient, nil
	}
	if cfg.Proxy == "" && cfg.Timeout <= 0 {
		return nil, nil
	}

	client := awshttp.NewBuildableClient()
	if cfg.Timeout > 0 {
		client = client.WithTimeout(cfg.Timeout)
	}
	if cfg.Proxy != "" {
		proxyURL, err := parseProxy(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.Proxy = http.ProxyURL(proxyURL)
		})
	}
	return client, nil
}

func newMinioBackend(cfg *s3types.ClientConfig) (s3api.S3API, string, error) {
	u, err := endpointURL(cfg.Endpoint, cfg.DisableSSL)
	if err != nil {
		return nil, "", err
	}
	secure := u.Scheme == "https"

	var transport http.RoundTripper
	if cfg.CustomHTTPClient != nil && cfg.CustomHTTPClient.Transport != nil {
		transport = cfg.CustomHTTPClient.Transport
	} else {
		tr, err := minio.DefaultTransport(secure)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build transport: %w", err)
		}
		if cfg.Proxy != "" {
			proxyURL, err := parseProxy(cfg.Proxy)
			if err != nil {
				return nil, "", err
			}
			tr.Proxy = http.ProxyURL(proxyURL)
		}
		if cfg.Timeout > 0 {
			tr.ResponseHeaderTimeout = cfg.Timeout
		}
		transport = tr
	}

	var creds *miniocreds.Credentials
	if cfg.AccessKeyID != "" {
		creds = miniocreds.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
	} else {
		creds = miniocreds.NewChainCredentials([]miniocreds.Provider{
			&miniocreds.EnvAWS{},
			&miniocreds.EnvMinio{},
		})
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:        creds,
		Secure:       secure,
		Region:       cfg.Region,
		Transport:    transport,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create minio client: %w", err)
	}

	return s3api.NewMinioAPI(client), cfg.Region, nil
}

func endpointURL(endpoint string, disableSSL bool) (*url.URL, error) {
	if !strings.Contains(endpoint, "://") {
		scheme := "https"
		if disableSSL {
			scheme = "http"
		}
		endpoint = scheme + "://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return u, nil
}

func parseProxy(proxy string) (*url.URL, error) {
	u, err := url.Parse(proxy)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q", proxy)
	}
	return u, nil
}

func filesystem(cfg *s3types.ClientConfig) (billy.Filesystem, error) {
	if cfg.Filesystem != nil {
		return cfg.Filesystem, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return osfs.New(wd), nil
}

func logger(cfg *s3types.ClientConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.New(slog.DiscardHandler)
}
