// Package blobtest provides an in-memory blob.Factory for tests.
package blobtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/keboola/kbcstorage-go/pkg/blob"
)

// Object is a stored object together with the metadata it was put with.
type Object struct {
	Data                 []byte
	ACL                  string
	ContentDisposition   string
	ServerSideEncryption string
}

// Memory is a blob.Factory and blob.Transfer keeping objects in memory.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*Object
	opened  []blob.Credentials
}

var (
	_ blob.Factory  = (*Memory)(nil)
	_ blob.Transfer = (*Memory)(nil)
)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{objects: map[string]*Object{}}
}

// Open records creds and returns the store itself.
func (m *Memory) Open(_ context.Context, creds blob.Credentials) (blob.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = append(m.opened, creds)
	return m, nil
}

// Put stores the object.
func (m *Memory) Put(_ context.Context, in *blob.PutInput) error {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[objectKey(in.Bucket, in.Key)] = &Object{
		Data:                 data,
		ACL:                  in.ACL,
		ContentDisposition:   in.ContentDisposition,
		ServerSideEncryption: in.ServerSideEncryption,
	}
	return nil
}

// Get writes the object into w.
func (m *Memory) Get(_ context.Context, bucket, key string, w io.Writer) error {
	m.mu.Lock()
	obj, ok := m.objects[objectKey(bucket, key)]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("s3://%s/%s: %w", bucket, key, blob.ErrNotFound)
	}
	_, err := io.Copy(w, bytes.NewReader(obj.Data))
	return err
}

// Set stores data under bucket/key.
func (m *Memory) Set(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[objectKey(bucket, key)] = &Object{Data: data}
}

// Object returns the stored object, or nil.
func (m *Memory) Object(bucket, key string) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.objects[objectKey(bucket, key)]
}

// Opened returns the credentials passed to Open so far.
func (m *Memory) Opened() []blob.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]blob.Credentials(nil), m.opened...)
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}
