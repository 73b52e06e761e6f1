package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockS3Client is an in-memory S3API implementation for testing
type MockS3Client struct {
	objects map[string][]byte // map of key to object content
	mu      sync.RWMutex

	PutErr    error
	DeleteErr error
}

// NewMockS3Client creates an empty mock bucket
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		objects: make(map[string][]byte),
	}
}

// PutObject stores the body under the requested key
func (m *MockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutErr != nil {
		return nil, m.PutErr
	}

	content, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	m.mu.Lock()
	m.objects[aws.ToString(params.Key)] = content
	m.mu.Unlock()

	return &s3.PutObjectOutput{}, nil
}

// DeleteObject removes the key; deleting a missing key succeeds like real S3
func (m *MockS3Client) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}

	m.mu.Lock()
	delete(m.objects, aws.ToString(params.Key))
	m.mu.Unlock()

	return &s3.DeleteObjectOutput{}, nil
}

// ObjectExists checks if a key exists in the mock bucket
func (m *MockS3Client) ObjectExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}

// Objects returns a copy of the bucket contents (for testing assertions)
func (m *MockS3Client) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}
