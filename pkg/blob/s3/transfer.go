package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-hclog"

	"github.com/keboola/kbcstorage-go/pkg/blob"
)

var (
	_ blob.Factory  = (*Factory)(nil)
	_ blob.Transfer = (*Transfer)(nil)
)

// Factory creates S3 clients for the credentials issued with each file.
type Factory struct {
	cfg        *Config
	httpClient *awshttp.BuildableClient
	logger     hclog.Logger
}

// NewFactory creates a new S3 blob factory.
func NewFactory(cfg *Config, logger hclog.Logger) (*Factory, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 configuration: %w", err)
	}
	cfg.SetDefaults()

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	// A buildable client lets the SDK apply AWS_CA_BUNDLE on top of these
	// transport settings.
	httpClient := awshttp.NewBuildableClient().
		WithTimeout(cfg.RequestTimeout).
		WithTransportOptions(func(tr *http.Transport) {
			tr.Proxy = http.ProxyFromEnvironment
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
			tr.TLSClientConfig.InsecureSkipVerify = cfg.InsecureSkipVerify
		})

	return &Factory{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("blob-s3"),
	}, nil
}

// Open creates a Transfer authenticated with creds.
func (f *Factory) Open(ctx context.Context, creds blob.Credentials) (blob.Transfer, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, errors.New("S3 credentials are missing, request the file with a federation token")
	}

	region := creds.Region
	if region == "" {
		region = f.cfg.Region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(f.httpClient),
		config.WithRetryMaxAttempts(f.cfg.RetryMaxAttempts),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if f.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Transfer{client: client, logger: f.logger}, nil
}

// Transfer moves objects through one S3 client.
type Transfer struct {
	client *s3.Client
	logger hclog.Logger
}

// Put uploads one object.
func (t *Transfer) Put(ctx context.Context, in *blob.PutInput) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Key),
		Body:          in.Body,
		ContentLength: aws.Int64(in.ContentLength),
	}
	if in.ACL != "" {
		input.ACL = types.ObjectCannedACL(in.ACL)
	}
	if in.ContentDisposition != "" {
		input.ContentDisposition = aws.String(in.ContentDisposition)
	}
	if in.ServerSideEncryption != "" {
		input.ServerSideEncryption = types.ServerSideEncryption(in.ServerSideEncryption)
	}

	if _, err := t.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", in.Bucket, in.Key, err)
	}

	t.logger.Debug("uploaded object", "bucket", in.Bucket, "key", in.Key, "size", in.ContentLength)
	return nil
}

// Get downloads one object into w.
func (t *Transfer) Get(ctx context.Context, bucket, key string, w io.Writer) error {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("s3://%s/%s: %w", bucket, key, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}

	t.logger.Debug("downloaded object", "bucket", bucket, "key", key, "size", n)
	return nil
}
