// Package mocks provides testify mocks for the output ports.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/appupdate/internal/domain"
)

// testingT is the subset of *testing.T the constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockBlobStorage mocks out.BlobStorage.
type MockBlobStorage struct {
	mock.Mock
}

// NewMockBlobStorage returns a mock whose expectations are asserted on cleanup.
func NewMockBlobStorage(t testingT) *MockBlobStorage {
	m := &MockBlobStorage{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBlobStorage) PutBlob(ctx context.Context, id string, data io.Reader) error {
	args := m.Called(ctx, id, data)
	return args.Error(0)
}

func (m *MockBlobStorage) GetBlob(ctx context.Context, id string) (io.ReadCloser, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockBlobStorage) DeleteBlob(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFileRecordRepository mocks out.FileRecordRepository.
type MockFileRecordRepository struct {
	mock.Mock
}

// NewMockFileRecordRepository returns a mock whose expectations are asserted on cleanup.
func NewMockFileRecordRepository(t testingT) *MockFileRecordRepository {
	m := &MockFileRecordRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFileRecordRepository) Create(ctx context.Context, record domain.NewFileRecord) (*domain.FileRecord, error) {
	args := m.Called(ctx, record)
	rec, _ := args.Get(0).(*domain.FileRecord)
	return rec, args.Error(1)
}

func (m *MockFileRecordRepository) List(ctx context.Context) ([]domain.FileRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.FileRecord)
	return records, args.Error(1)
}

func (m *MockFileRecordRepository) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*domain.FileRecord)
	return rec, args.Error(1)
}

func (m *MockFileRecordRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockManifestRepository mocks out.ManifestRepository.
type MockManifestRepository struct {
	mock.Mock
}

// NewMockManifestRepository returns a mock whose expectations are asserted on cleanup.
func NewMockManifestRepository(t testingT) *MockManifestRepository {
	m := &MockManifestRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockManifestRepository) Set(ctx context.Context, manifest domain.Manifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockManifestRepository) Get(ctx context.Context) (domain.Manifest, bool, error) {
	args := m.Called(ctx)
	manifest, _ := args.Get(0).(domain.Manifest)
	return manifest, args.Bool(1), args.Error(2)
}

func (m *MockManifestRepository) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockClientTokenValidator mocks out.ClientTokenValidator.
type MockClientTokenValidator struct {
	mock.Mock
}

// NewMockClientTokenValidator returns a mock whose expectations are asserted on cleanup.
func NewMockClientTokenValidator(t testingT) *MockClientTokenValidator {
	m := &MockClientTokenValidator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClientTokenValidator) ValidateToken(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}
