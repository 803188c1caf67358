package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/keboola/kbcstorage-go/pkg/models"
)

// Bucket stages.
const (
	StageIn  = "in"
	StageOut = "out"
)

// Bucket is a Storage API bucket.
type Bucket struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	DisplayName    string      `json:"displayName,omitempty"`
	Stage          string      `json:"stage"`
	Description    string      `json:"description,omitempty"`
	Backend        string      `json:"backend,omitempty"`
	URI            string      `json:"uri,omitempty"`
	IsReadOnly     bool        `json:"isReadOnly,omitempty"`
	DataSizeBytes  int64       `json:"dataSizeBytes,omitempty"`
	RowsCount      int64       `json:"rowsCount,omitempty"`
	Created        models.Time `json:"created"`
	LastChangeDate models.Time `json:"lastChangeDate"`
}

// CreateBucketOptions describes a new bucket.
type CreateBucketOptions struct {
	Name        string `form:"name"`
	Stage       string `form:"stage"`
	Description string `form:"description"`
	Backend     string `form:"backend,omitempty"`
}

// Validate checks the options before they are sent.
func (o CreateBucketOptions) Validate() error {
	return validateStruct(&o,
		validation.Field(&o.Name, validation.Required),
		validation.Field(&o.Stage, validation.In(StageIn, StageOut)),
	)
}

// Buckets manages buckets.
type Buckets struct {
	*endpoint
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (b *Buckets) WithMaxRetries(n int) *Buckets {
	return &Buckets{endpoint: b.withMaxRetries(n)}
}

// List lists all buckets in the project.
func (b *Buckets) List(ctx context.Context) ([]Bucket, error) {
	var out []Bucket
	if err := b.get(ctx, b.url("buckets"), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	return out, nil
}

// ListTables lists the tables of a bucket. include asks for extra
// attributes such as "columns" or "metadata".
func (b *Buckets) ListTables(ctx context.Context, bucketID string, include ...string) ([]Table, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return nil, err
	}

	var out []Table
	if err := b.get(ctx, b.url("buckets", bucketID, "tables"), includeQuery(include), &out); err != nil {
		return nil, fmt.Errorf("failed to list tables of bucket %s: %w", bucketID, err)
	}
	return out, nil
}

// Detail returns one bucket.
func (b *Buckets) Detail(ctx context.Context, bucketID string) (*Bucket, error) {
	if err := requireID("bucket_id", bucketID); err != nil {
		return nil, err
	}

	var out Bucket
	if err := b.get(ctx, b.url("buckets", bucketID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketID, err)
	}
	return &out, nil
}

// Create creates a bucket. An empty stage defaults to "in".
func (b *Buckets) Create(ctx context.Context, opts CreateBucketOptions) (*Bucket, error) {
	if opts.Stage == "" {
		opts.Stage = StageIn
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var out Bucket
	if err := b.postForm(ctx, b.url("buckets"), encodeForm(opts), &out); err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Name, err)
	}
	return &out, nil
}

// Delete deletes a bucket. force also drops the tables it contains.
func (b *Buckets) Delete(ctx context.Context, bucketID string, force bool) error {
	if err := requireID("bucket_id", bucketID); err != nil {
		return err
	}

	query := url.Values{"force": {strconv.FormatBool(force)}}
	if err := b.delete(ctx, b.url("buckets", bucketID), query, nil); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucketID, err)
	}
	return nil
}

// Link links a bucket shared from another project.
func (b *Buckets) Link(context.Context) error {
	return fmt.Errorf("bucket link: %w", ErrNotImplemented)
}

// Share shares a bucket with the organization.
func (b *Buckets) Share(context.Context) error {
	return fmt.Errorf("bucket share: %w", ErrNotImplemented)
}

// Unshare stops sharing a bucket.
func (b *Buckets) Unshare(context.Context) error {
	return fmt.Errorf("bucket unshare: %w", ErrNotImplemented)
}

func includeQuery(include []string) url.Values {
	if len(include) == 0 {
		return nil
	}
	return url.Values{"include": {strings.Join(include, ",")}}
}
