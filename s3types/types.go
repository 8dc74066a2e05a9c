// Package s3types provides shared type definitions for the s3publish module.
package s3types

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
)

// Backend selects the storage client implementation.
type Backend string

const (
	// BackendAWS talks to Amazon S3 through the AWS SDK
	BackendAWS Backend = "aws"

	// BackendMinio talks to an S3-compatible endpoint through minio-go
	BackendMinio Backend = "minio"
)

// PathTranslator maps a local, slash-separated path to a remote object key.
type PathTranslator func(localPath string) string

// Identity is the default PathTranslator.
func Identity(localPath string) string {
	return localPath
}

// LocalFile is a file selected for upload.
type LocalFile interface {
	// Path is the slash-separated path relative to the working directory
	Path() string

	// Name is the base name of the file
	Name() string

	// Content returns the full file content
	Content() ([]byte, error)
}

// ObjectParams holds the per-object request fields a descriptor may set.
// Only fields the storage protocol recognizes are present.
type ObjectParams struct {
	ContentType             string            `json:"ContentType,omitempty"`
	CacheControl            string            `json:"CacheControl,omitempty"`
	ContentDisposition      string            `json:"ContentDisposition,omitempty"`
	ContentEncoding         string            `json:"ContentEncoding,omitempty"`
	ContentLanguage         string            `json:"ContentLanguage,omitempty"`
	Expires                 *time.Time        `json:"Expires,omitempty"`
	WebsiteRedirectLocation string            `json:"WebsiteRedirectLocation,omitempty"`
	StorageClass            string            `json:"StorageClass,omitempty"`
	ACL                     string            `json:"ACL,omitempty"`
	ServerSideEncryption    string            `json:"ServerSideEncryption,omitempty"`
	SSEKMSKeyID             string            `json:"SSEKMSKeyId,omitempty"`
	Tagging                 string            `json:"Tagging,omitempty"`
	Metadata                map[string]string `json:"Metadata,omitempty"`
}

// Merge returns p with every non-zero field of override applied on top.
// Metadata entries are merged key by key, override winning.
func (p ObjectParams) Merge(override ObjectParams) ObjectParams {
	out := p
	setString(&out.ContentType, override.ContentType)
	setString(&out.CacheControl, override.CacheControl)
	setString(&out.ContentDisposition, override.ContentDisposition)
	setString(&out.ContentEncoding, override.ContentEncoding)
	setString(&out.ContentLanguage, override.ContentLanguage)
	setString(&out.WebsiteRedirectLocation, override.WebsiteRedirectLocation)
	setString(&out.StorageClass, override.StorageClass)
	setString(&out.ACL, override.ACL)
	setString(&out.ServerSideEncryption, override.ServerSideEncryption)
	setString(&out.SSEKMSKeyID, override.SSEKMSKeyID)
	setString(&out.Tagging, override.Tagging)
	if override.Expires != nil {
		out.Expires = override.Expires
	}

	if len(override.Metadata) > 0 {
		merged := make(map[string]string, len(p.Metadata)+len(override.Metadata))
		for k, v := range p.Metadata {
			merged[k] = v
		}
		for k, v := range override.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}

	return out
}

// IsZero reports whether no field is set.
func (p ObjectParams) IsZero() bool {
	return p.ContentType == "" && p.CacheControl == "" && p.ContentDisposition == "" &&
		p.ContentEncoding == "" && p.ContentLanguage == "" && p.Expires == nil &&
		p.WebsiteRedirectLocation == "" && p.StorageClass == "" && p.ACL == "" &&
		p.ServerSideEncryption == "" && p.SSEKMSKeyID == "" && p.Tagging == "" &&
		len(p.Metadata) == 0
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// PublishConfig describes one reconciliation run.
// It is read-only for the duration of the run.
type PublishConfig struct {
	// Bucket is the destination bucket name
	Bucket string

	// Region is the bucket region, used for the website URL
	Region string

	// FilesToPublish are glob patterns selecting local files
	FilesToPublish []string

	// Exclude are glob patterns removing files from the selection
	Exclude []string

	// PathTranslation maps local paths to keys; nil means Identity
	PathTranslation PathTranslator

	// PathToIndex is the local path of the site entry page, if any
	PathToIndex string

	// LinkLabel is the human label for the index link
	LinkLabel string

	// Sync removes remote objects that were not uploaded by this run
	Sync bool

	// ParamsExt is the descriptor extension, e.g. ".s3params"
	ParamsExt string

	// Revision identifies the change that triggered the run
	Revision string
}

// Translate applies PathTranslation, defaulting to Identity.
func (c *PublishConfig) Translate(localPath string) string {
	if c.PathTranslation == nil {
		return localPath
	}
	return c.PathTranslation(localPath)
}

// Result summarizes a reconciliation run.
type Result struct {
	// BucketURL is the static website URL of the bucket
	BucketURL string

	// Warnings are the user-visible problems in the order they occurred
	Warnings []string

	// FileCount is the number of files uploaded successfully
	FileCount int

	// Attempted is the number of files a put was issued for
	Attempted int

	// Deleted is the number of remote objects removed
	Deleted int

	// Code classifies a failed run; empty on success
	Code errors.ErrorCode

	// RunID correlates the run's log lines
	RunID string

	// Duration is how long the run took
	Duration time.Duration
}

// Failed reports whether the run published nothing while reporting problems.
func (r *Result) Failed() bool {
	return r.FileCount == 0 && len(r.Warnings) > 0
}

// Configuration types for functional options

// ClientConfig holds configuration for the publish client.
type ClientConfig struct {
	Backend          Backend
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	ForcePathStyle   bool
	DisableSSL       bool
	Proxy            string
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	CustomAWSConfig  *aws.Config
	CustomHTTPClient *http.Client
	Logger           *slog.Logger
	Filesystem       billy.Filesystem
}

// Option is a functional option for configuring the publish client.
type Option func(*ClientConfig)
