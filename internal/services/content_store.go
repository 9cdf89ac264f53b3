package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

const DefaultContentBaseURL = "https://ipfs.io/ipfs/"

// contentLocator derives a CID-shaped locator from the content digest.
// It is opaque to callers and never a real multihash.
func contentLocator(content []byte) string {
	sum := sha256.Sum256(content)
	return "Qm" + hex.EncodeToString(sum[:])[:44]
}

func joinURL(base, locator string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + locator
}

// MemoryContentStore keeps content in process memory, standing in for an IPFS node.
type MemoryContentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewMemoryContentStore(baseURL string) *MemoryContentStore {
	if baseURL == "" {
		baseURL = DefaultContentBaseURL
	}
	return &MemoryContentStore{objects: make(map[string][]byte), baseURL: baseURL}
}

func (s *MemoryContentStore) Put(ctx context.Context, content []byte) (*StoredObject, error) {
	locator := contentLocator(content)
	s.mu.Lock()
	s.objects[locator] = append([]byte(nil), content...)
	s.mu.Unlock()
	return &StoredObject{Locator: locator, URL: joinURL(s.baseURL, locator), Size: int64(len(content))}, nil
}

func (s *MemoryContentStore) Get(ctx context.Context, locator string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.objects[locator]
	if !ok {
		return nil, ErrContentNotFound
	}
	return append([]byte(nil), content...), nil
}

// GCSContentStore writes content-addressed objects to a Cloud Storage bucket.
type GCSContentStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewGCSContentStore(ctx context.Context, bucketName, baseURL string) (*GCSContentStore, error) {
	if bucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucketName + "/"
	}
	return &GCSContentStore{client: client, bucket: bucketName, baseURL: baseURL}, nil
}

func (s *GCSContentStore) Put(ctx context.Context, content []byte) (*StoredObject, error) {
	locator := contentLocator(content)
	obj := s.client.Bucket(s.bucket).Object(locator)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/pdf"
	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to upload content: %w", err)
	}
	return &StoredObject{Locator: locator, URL: joinURL(s.baseURL, locator), Size: int64(len(content))}, nil
}

func (s *GCSContentStore) Get(ctx context.Context, locator string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(locator).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (s *GCSContentStore) Close() error {
	return s.client.Close()
}
