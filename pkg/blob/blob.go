// Package blob defines the object storage transfer used to move file
// contents to and from the cloud bucket backing a Storage API project.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = errors.New("blob not found")

// Credentials are temporary credentials the Storage API issues for one file.
type Credentials struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
	Region          string `json:"-"`
}

// PutInput describes one object upload.
type PutInput struct {
	Bucket               string
	Key                  string
	Body                 io.ReadSeeker
	ContentLength        int64
	ACL                  string
	ContentDisposition   string
	ServerSideEncryption string
}

// Transfer uploads and downloads objects.
type Transfer interface {
	Put(ctx context.Context, in *PutInput) error
	Get(ctx context.Context, bucket, key string, w io.Writer) error
}

// Factory opens a Transfer bound to a set of credentials.
type Factory interface {
	Open(ctx context.Context, creds Credentials) (Transfer, error)
}
