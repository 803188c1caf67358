package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/keboola/kbcstorage-go/pkg/blob"
	"github.com/keboola/kbcstorage-go/pkg/models"
	"github.com/keboola/kbcstorage-go/pkg/transport"
)

// sliceDownloadConcurrency bounds parallel slice downloads of one file.
const sliceDownloadConcurrency = 4

// S3Path locates a file in the project bucket.
type S3Path struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// File is a file in Storage.
type File struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	URL         string            `json:"url,omitempty"`
	Provider    string            `json:"provider,omitempty"`
	Region      string            `json:"region,omitempty"`
	SizeBytes   int64             `json:"sizeBytes,omitempty"`
	IsSliced    bool              `json:"isSliced"`
	IsPublic    bool              `json:"isPublic,omitempty"`
	IsEncrypted bool              `json:"isEncrypted,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	RunID       models.ID         `json:"runId,omitempty"`
	Created     models.Time       `json:"created"`
	S3Path      *S3Path           `json:"s3Path,omitempty"`
	Credentials *blob.Credentials `json:"credentials,omitempty"`
}

// UploadParams are the S3 parameters returned by a prepared upload.
type UploadParams struct {
	Bucket               string           `json:"bucket"`
	Key                  string           `json:"key"`
	ACL                  string           `json:"acl"`
	ServerSideEncryption string           `json:"x-amz-server-side-encryption,omitempty"`
	Credentials          blob.Credentials `json:"credentials"`
}

// PreparedFile is a file resource created ahead of an upload.
type PreparedFile struct {
	File
	UploadParams *UploadParams `json:"uploadParams,omitempty"`
}

// UploadOptions describe a file upload.
type UploadOptions struct {
	Tags      []string
	Public    bool
	Permanent bool
	Encrypted bool
	Sliced    bool
	Notify    bool
}

// PrepareUploadRequest creates a file resource ahead of an upload.
type PrepareUploadRequest struct {
	Name            string   `form:"name"`
	SizeBytes       int64    `form:"sizeBytes,omitempty"`
	Tags            []string `form:"tags,omitempty"`
	IsPublic        bool     `form:"isPublic"`
	IsPermanent     bool     `form:"isPermanent"`
	IsEncrypted     bool     `form:"isEncrypted"`
	IsSliced        bool     `form:"isSliced"`
	Notify          bool     `form:"notify"`
	FederationToken bool     `form:"federationToken"`
}

// ListFilesOptions filter the file listing. Limit defaults to 100.
type ListFilesOptions struct {
	Limit   int      `form:"limit"`
	Offset  int      `form:"offset"`
	Tags    []string `form:"tags,omitempty"`
	Query   string   `form:"q,omitempty"`
	RunID   string   `form:"runId,omitempty"`
	SinceID int64    `form:"sinceId,omitempty"`
	MaxID   int64    `form:"maxId,omitempty"`
}

// sliceManifest lists the slices of a sliced file.
type sliceManifest struct {
	Entries []struct {
		URL string `json:"url"`
	} `json:"entries"`
}

// Files manages files and moves their contents through the blob transfer.
type Files struct {
	*endpoint
	blob blob.Factory
	fs   afero.Fs
}

// WithMaxRetries returns a copy of the client with a different attempt bound.
func (f *Files) WithMaxRetries(n int) *Files {
	return f.withEndpoint(f.withMaxRetries(n))
}

func (f *Files) withEndpoint(ep *endpoint) *Files {
	return &Files{endpoint: ep, blob: f.blob, fs: f.fs}
}

// List lists files in the project.
func (f *Files) List(ctx context.Context, opts ListFilesOptions) ([]File, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	var out []File
	if err := f.get(ctx, f.url("files"), encodeForm(opts), &out); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return out, nil
}

// Detail returns one file. federationToken requests temporary credentials
// for downloading the contents.
func (f *Files) Detail(ctx context.Context, fileID int64, federationToken bool) (*File, error) {
	var query url.Values
	if federationToken {
		query = url.Values{"federationToken": {"true"}}
	}

	var out File
	if err := f.get(ctx, f.url("files", strconv.FormatInt(fileID, 10)), query, &out); err != nil {
		return nil, fmt.Errorf("failed to get file %d: %w", fileID, err)
	}
	return &out, nil
}

// Delete deletes a file.
func (f *Files) Delete(ctx context.Context, fileID int64) error {
	if err := f.delete(ctx, f.url("files", strconv.FormatInt(fileID, 10)), nil, nil); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}
	return nil
}

// PrepareUpload creates a file resource and returns where to upload it.
func (f *Files) PrepareUpload(ctx context.Context, req PrepareUploadRequest) (*PreparedFile, error) {
	if err := requireID("name", req.Name); err != nil {
		return nil, err
	}

	var out PreparedFile
	if err := f.postForm(ctx, f.url("files", "prepare"), encodeForm(req), &out); err != nil {
		return nil, fmt.Errorf("failed to prepare upload of %s: %w", req.Name, err)
	}
	return &out, nil
}

// UploadFile uploads a local file to Storage and returns the new file id.
func (f *Files) UploadFile(ctx context.Context, path string, opts UploadOptions) (int64, error) {
	info, err := f.fs.Stat(path)
	if err != nil || info.IsDir() {
		return 0, invalid("file %s does not exist", path)
	}
	if f.blob == nil {
		return 0, errors.New("file upload requires a blob transfer, set Config.Blob")
	}

	prepared, err := f.PrepareUpload(ctx, PrepareUploadRequest{
		Name:            filepath.Base(path),
		SizeBytes:       info.Size(),
		Tags:            opts.Tags,
		IsPublic:        opts.Public,
		IsPermanent:     opts.Permanent,
		IsEncrypted:     opts.Encrypted,
		IsSliced:        opts.Sliced,
		Notify:          opts.Notify,
		FederationToken: true,
	})
	if err != nil {
		return 0, err
	}
	if err := checkProvider(prepared.Provider); err != nil {
		return 0, err
	}
	if prepared.UploadParams == nil {
		return 0, fmt.Errorf("prepared file %d has no upload parameters", prepared.ID)
	}

	params := prepared.UploadParams
	creds := params.Credentials
	creds.Region = prepared.Region

	transfer, err := f.blob.Open(ctx, creds)
	if err != nil {
		return 0, fmt.Errorf("failed to open blob transfer: %w", err)
	}

	file, err := f.fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	put := &blob.PutInput{
		Bucket:             params.Bucket,
		Key:                params.Key,
		Body:               file,
		ContentLength:      info.Size(),
		ACL:                params.ACL,
		ContentDisposition: fmt.Sprintf("attachment; filename=%s;", prepared.Name),
	}
	if opts.Encrypted {
		put.ServerSideEncryption = params.ServerSideEncryption
	}
	if err := transfer.Put(ctx, put); err != nil {
		return 0, err
	}

	f.logger.Debug("file uploaded", "file_id", prepared.ID, "name", prepared.Name, "size", info.Size())
	return prepared.ID, nil
}

// Download downloads a file into dir, creating dir when needed, and returns
// the local path. Slices of a sliced file are fetched in parallel and joined
// in manifest order.
func (f *Files) Download(ctx context.Context, fileID int64, dir string) (string, error) {
	if f.blob == nil {
		return "", errors.New("file download requires a blob transfer, set Config.Blob")
	}
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	info, err := f.Detail(ctx, fileID, true)
	if err != nil {
		return "", err
	}
	if err := checkProvider(info.Provider); err != nil {
		return "", err
	}
	if info.Credentials == nil || info.S3Path == nil {
		return "", fmt.Errorf("file %d has no download credentials", fileID)
	}

	creds := *info.Credentials
	creds.Region = info.Region
	transfer, err := f.blob.Open(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("failed to open blob transfer: %w", err)
	}

	localPath := filepath.Join(dir, info.Name)
	if !info.IsSliced {
		if err := f.downloadObject(ctx, transfer, info.S3Path.Bucket, info.S3Path.Key, localPath); err != nil {
			return "", err
		}
		return localPath, nil
	}

	if err := f.downloadSliced(ctx, transfer, info, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

func (f *Files) downloadObject(ctx context.Context, transfer blob.Transfer, bucket, key, localPath string) error {
	out, err := f.fs.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	if err := transfer.Get(ctx, bucket, key, out); err != nil {
		_ = out.Close()
		_ = f.fs.Remove(localPath)
		return err
	}
	return out.Close()
}

func (f *Files) downloadSliced(ctx context.Context, transfer blob.Transfer, info *File, localPath string) error {
	manifest, err := f.fetchManifest(ctx, info.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch manifest of file %d: %w", info.ID, err)
	}

	slices := make([]string, len(manifest.Entries))
	defer func() {
		for _, p := range slices {
			if p != "" {
				_ = f.fs.Remove(p)
			}
		}
	}()

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sliceDownloadConcurrency)
	for i, entry := range manifest.Entries {
		g.Go(func() error {
			key, err := sliceKey(entry.URL)
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
				return err
			}

			tmp, err := afero.TempFile(f.fs, filepath.Dir(localPath), ".slice-")
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("failed to create slice file: %w", err))
				mu.Unlock()
				return err
			}
			mu.Lock()
			slices[i] = tmp.Name()
			mu.Unlock()

			err = transfer.Get(gctx, info.S3Path.Bucket, key, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("slice %s: %w", key, err))
				mu.Unlock()
			}
			return err
		})
	}
	_ = g.Wait()
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	return f.joinSlices(localPath, slices)
}

func (f *Files) joinSlices(localPath string, slices []string) error {
	out, err := f.fs.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer out.Close()

	for _, p := range slices {
		in, err := f.fs.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open slice %s: %w", p, err)
		}
		_, err = io.Copy(out, in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf("failed to merge slice %s: %w", p, err)
		}
	}
	return nil
}

// fetchManifest reads the manifest through its presigned URL, so the request
// carries no Storage API token.
func (f *Files) fetchManifest(ctx context.Context, manifestURL string) (*sliceManifest, error) {
	req := &transport.Request{Method: http.MethodGet, URL: manifestURL}
	resp, err := f.exec.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckStatus(req, resp); err != nil {
		return nil, err
	}

	var manifest sliceManifest
	if err := json.Unmarshal(resp.Body, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &manifest, nil
}

// sliceKey turns s3://bucket/path/to/slice into path/to/slice.
func sliceKey(entryURL string) (string, error) {
	parts := strings.Split(entryURL, "/")
	if len(parts) < 4 || parts[3] == "" {
		return "", fmt.Errorf("invalid slice url %q", entryURL)
	}
	return strings.Join(parts[3:], "/"), nil
}

func checkProvider(provider string) error {
	if provider != "" && provider != "aws" {
		return fmt.Errorf("file storage provider %q is not supported", provider)
	}
	return nil
}
