package mocks

import (
	"context"

	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of persistence.ProductRepository interface.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)

	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of persistence.DocumentRepository interface.
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetAll(ctx context.Context) ([]*models.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, document *models.Document) error {
	args := m.Called(ctx, document)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Products  *MockProductRepository
	Documents *MockDocumentRepository
}

// NewMockPersistence returns a MockPersistence whose repositories are fresh mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Products:  &MockProductRepository{},
		Documents: &MockDocumentRepository{},
	}
}

func (m *MockPersistence) ProductRepository() persistence.ProductRepository {
	return m.Products
}

func (m *MockPersistence) DocumentRepository() persistence.DocumentRepository {
	return m.Documents
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
