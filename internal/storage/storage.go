// Package storage is the blob-store boundary for image attachments. The
// session and auth paths never wait on it; uploads are queued
// fire-and-forget by the services that own the metadata.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BucketProfileImages = "profile-images"
	BucketPostImages    = "post-images"
)

var ErrFileNotFound = errors.New("file not found")

type File struct {
	Data        []byte
	ContentType string
}

type FileStore interface {
	Save(ctx context.Context, bucket, key string, file File) error
	Load(ctx context.Context, bucket, key string) (File, error)
	Delete(ctx context.Context, bucket, key string) error
}

// FSStore keeps blobs on the local filesystem, one file per object plus a
// sidecar holding the content type.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Save(_ context.Context, bucket, key string, file File) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := os.WriteFile(path+".ctype", []byte(file.ContentType), 0o644); err != nil {
		return fmt.Errorf("write blob metadata: %w", err)
	}
	return nil
}

func (s *FSStore) Load(_ context.Context, bucket, key string) (File, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("read blob: %w", err)
	}
	ctype, err := os.ReadFile(path + ".ctype")
	if err != nil && !os.IsNotExist(err) {
		return File{}, fmt.Errorf("read blob metadata: %w", err)
	}
	return File{Data: data, ContentType: string(ctype)}, nil
}

func (s *FSStore) Delete(_ context.Context, bucket, key string) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	_ = os.Remove(path + ".ctype")
	return nil
}

func (s *FSStore) path(bucket, key string) (string, error) {
	if strings.Contains(bucket, "..") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object name %q/%q", bucket, key)
	}
	return filepath.Join(s.root, bucket, key), nil
}
