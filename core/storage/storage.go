// Package storage uploads images for the front-end and returns a public download URL.
//
// There are three drivers: the GitHub contents API, AWS S3 and the local file system.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/feishu-proxy/core/config"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
)

// Object is one file to upload
type Object struct {
	// Path is the key of the object in the store
	Path string
	// Name is the original file name
	Name        string
	ContentType string
	Content     []byte
}

// Driver defines the interface of an image store
type Driver interface {
	Upload(ctx context.Context, object Object) (downloadURL string, err error)
}

// DriverType represents the different type of storage drivers
type DriverType string

// DriverTypeGitHub commits uploads to a GitHub repository
const DriverTypeGitHub DriverType = "github"

// DriverTypeAWSS3 is the AWS S3 implementation
const DriverTypeAWSS3 DriverType = "s3"

// DriverTypeLocal is the local filesystem implementation
const DriverTypeLocal DriverType = "local"

// ConfigurationError is returned when a driver lacks the configuration it needs
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// UploadError is returned when the store rejected an upload
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return e.Message
}

// InvalidKeyError is returned for object paths that are empty or climb out of the store
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key '%s'", e.Key)
}

// CleanKey trims leading and trailing slashes from p and rejects empty, "." and ".."
// segments.
func CleanKey(p string) (string, error) {
	key := strings.Trim(p, "/")
	if key == "" {
		return "", &InvalidKeyError{Key: p}
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." || strings.ContainsRune(segment, '\\') {
			return "", &InvalidKeyError{Key: p}
		}
	}
	return key, nil
}

// New returns the driver selected by the configuration. The local driver installs its
// download route on router.
func New(ctx context.Context, c *config.Configuration, router *mux.Router, collector *metrics.Collector) (Driver, error) {
	switch DriverType(c.Storage.Driver) {
	case DriverTypeGitHub, "":
		return NewGitHub(GitHubConfiguration{
			APIURL: c.GitHub.APIURL,
			Owner:  c.GitHub.Owner,
			Repo:   c.GitHub.Repo,
			Token:  c.GitHub.Token,
			Branch: c.GitHub.Branch,
		}, nil, collector), nil
	case DriverTypeAWSS3:
		s, err := NewS3(ctx, S3Configuration{
			AWSBucketName: c.Storage.S3Bucket,
			AWSRegion:     c.Storage.S3Region,
			AccessID:      c.Storage.S3AccessID,
			AccessKey:     c.Storage.S3AccessKey,
			KeyPrefix:     c.Storage.S3KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverTypeLocal:
		publicURL, err := url.Parse(c.Storage.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("invalid STORAGE_PUBLIC_URL: %w", err)
		}
		f, err := NewLocalFilesystem(router, LocalConfiguration{BasePath: c.Storage.LocalPath}, *publicURL)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown storage driver '%s'", c.Storage.Driver)
}
