package services_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/firecms/cms/pkg/events"
	"github.com/firecms/cms/pkg/mocks"
	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/persistence/file"
	"github.com/firecms/cms/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type productFixture struct {
	service   *services.Product
	bus       *mocks.MockEventBus
	generator *pagegen.Generator
	recorder  *tracetest.SpanRecorder
	siteRoot  string
}

func newProductFixture(t *testing.T) productFixture {
	t.Helper()

	siteRoot := t.TempDir()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	generator := pagegen.NewGenerator(discardLogger(), siteRoot)
	service := services.NewProduct(discardLogger(), file.NewPersistence(t.TempDir()), generator, bus, tracer)

	return productFixture{service: service, bus: bus, generator: generator, recorder: recorder, siteRoot: siteRoot}
}

func TestProduct_SaveValidates(t *testing.T) {
	f := newProductFixture(t)

	tests := []struct {
		name    string
		product *models.Product
		check   func(error) bool
	}{
		{"nil product", nil, services.IsValidationError},
		{"empty id", &models.Product{}, services.IsValidationError},
		{"path traversal", &models.Product{ID: "../../etc"}, func(err error) bool { return errors.Is(err, services.ErrInvalidProductID) }},
		{"model without src", &models.Product{ID: "ok", Model3D: &models.Model3D{Poster: "/p.webp"}}, func(err error) bool { return errors.Is(err, services.ErrInvalidProduct) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.Save(t.Context(), tt.product)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	products, err := f.service.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProduct_SaveFetchDelete(t *testing.T) {
	f := newProductFixture(t)

	require.NoError(t, f.service.Save(t.Context(), &models.Product{ID: "demo-1", NameKo: "데모 제품"}))

	product, err := f.service.FetchByID(t.Context(), "demo-1")
	require.NoError(t, err)
	assert.Equal(t, "데모 제품", product.NameKo)

	require.NoError(t, f.service.Delete(t.Context(), "demo-1"))

	_, err = f.service.FetchByID(t.Context(), "demo-1")
	assert.True(t, services.IsNotFoundError(err))
}

func TestProduct_GeneratePage(t *testing.T) {
	f := newProductFixture(t)

	require.NoError(t, f.service.Save(t.Context(), &models.Product{ID: "demo-1", NameKo: "데모 제품"}))
	require.NoError(t, f.service.GeneratePage(t.Context(), "demo-1"))

	entry, err := os.ReadFile(filepath.Join(f.siteRoot, "app", "products", "b-type", "demo-1", "page.tsx"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), `title: "데모 제품",`)

	assert.Equal(t, []events.EventType{events.PageGeneratedEvent}, f.bus.PublishedTypes())

	spans := f.recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pagegen.generate", spans[0].Name())
}

func TestProduct_GeneratePage_NotFound(t *testing.T) {
	f := newProductFixture(t)

	err := f.service.GeneratePage(t.Context(), "missing")
	assert.True(t, services.IsNotFoundError(err))
	assert.Empty(t, f.bus.PublishedTypes())
}

func TestProduct_PreviewPageWritesNothing(t *testing.T) {
	f := newProductFixture(t)

	require.NoError(t, f.service.Save(t.Context(), &models.Product{ID: "demo-1", NameKo: "데모 제품"}))

	page, err := f.service.PreviewPage(t.Context(), "demo-1")
	require.NoError(t, err)
	assert.Equal(t, "demo-1", page.ProductID)
	assert.Contains(t, page.Client, `"데모 제품"`)

	_, err = os.Stat(f.generator.Dir("demo-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestProduct_GenerateAllContinuesPastFailures(t *testing.T) {
	f := newProductFixture(t)

	for _, id := range []string{"a-1", "b-2", "c-3"} {
		require.NoError(t, f.service.Save(t.Context(), &models.Product{ID: id, NameKo: id}))
	}

	// A regular file where b-2's directory belongs makes its generation fail.
	require.NoError(t, os.MkdirAll(f.generator.Root(), 0o755))
	require.NoError(t, os.WriteFile(f.generator.Dir("b-2"), []byte("x"), 0o600))

	generated, err := f.service.GenerateAll(t.Context())
	assert.Equal(t, 2, generated)
	require.Error(t, err)
	assert.True(t, pagegen.IsGenerationError(err))

	for _, id := range []string{"a-1", "c-3"} {
		_, statErr := os.Stat(filepath.Join(f.generator.Dir(id), pagegen.ClientFileName))
		assert.NoError(t, statErr)
	}

	assert.Equal(t, []events.EventType{
		events.PageGeneratedEvent,
		events.PageGenerationFailedEvent,
		events.PageGeneratedEvent,
	}, f.bus.PublishedTypes())
}

func TestProduct_ImportIsAllOrNothing(t *testing.T) {
	f := newProductFixture(t)

	count, err := f.service.Import(t.Context(), []byte(`[
		{"id": "ok-1", "nameKo": "하나"},
		{"id": "../bad"},
		{"id": "ok-2", "specTable": [{"title": "무게"}]}
	]`))
	assert.Zero(t, count)
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "record 2")

	products, err := f.service.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProduct_Import(t *testing.T) {
	f := newProductFixture(t)

	count, err := f.service.Import(t.Context(), []byte(`[{"id": "ok-1", "nameKo": "하나"}, {"id": "ok-2"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	products, err := f.service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProduct_ImportWriteFailureStoresNothing(t *testing.T) {
	dataRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataRoot, "products", "b.json"), 0750))

	store := file.NewPersistence(dataRoot)
	service := services.NewProduct(discardLogger(), store, pagegen.NewGenerator(discardLogger(), t.TempDir()), nil, nil)

	count, err := service.Import(t.Context(), []byte(`[{"id": "a"}, {"id": "b"}]`))
	require.Error(t, err)
	assert.Zero(t, count)

	_, err = service.FetchByID(t.Context(), "a")
	assert.True(t, persistence.IsProductNotFound(err), "unexpected error %v", err)
}

func TestProduct_ImportRollsBackOnWriteFailure(t *testing.T) {
	original := &models.Product{ID: "a", NameKo: "원래"}

	p := mocks.NewMockPersistence()
	p.Products.On("GetByID", mock.Anything, "new-1").Return(nil, persistence.NewProductError("GetByID", "new-1", persistence.ErrProductNotFound))
	p.Products.On("GetByID", mock.Anything, "a").Return(original, nil)
	p.Products.On("GetByID", mock.Anything, "b").Return(nil, persistence.NewProductError("GetByID", "b", persistence.ErrProductNotFound))

	byID := func(id, name string) any {
		return mock.MatchedBy(func(product *models.Product) bool { return product.ID == id && product.NameKo == name })
	}

	p.Products.On("Save", mock.Anything, byID("new-1", "")).Return(nil).Once()
	p.Products.On("Save", mock.Anything, byID("a", "새")).Return(nil).Once()
	p.Products.On("Save", mock.Anything, byID("b", "")).Return(errors.New("disk full")).Once()
	p.Products.On("Save", mock.Anything, byID("a", "원래")).Return(nil).Once()
	p.Products.On("Delete", mock.Anything, "new-1").Return(nil).Once()

	service := services.NewProduct(discardLogger(), p, pagegen.NewGenerator(discardLogger(), t.TempDir()), nil, nil)

	count, err := service.Import(t.Context(), []byte(`[{"id": "new-1"}, {"id": "a", "nameKo": "새"}, {"id": "b"}]`))
	assert.Zero(t, count)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import product b")
	assert.Contains(t, err.Error(), "disk full")

	p.Products.AssertExpectations(t)
}

func TestProduct_ImportReportsIncompleteRollback(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Products.On("GetByID", mock.Anything, mock.Anything).Return(nil, persistence.ErrProductNotFound)
	p.Products.On("Save", mock.Anything, mock.MatchedBy(func(product *models.Product) bool { return product.ID == "a" })).Return(nil)
	p.Products.On("Save", mock.Anything, mock.MatchedBy(func(product *models.Product) bool { return product.ID == "b" })).Return(errors.New("disk full"))
	p.Products.On("Delete", mock.Anything, "a").Return(errors.New("disk gone"))

	service := services.NewProduct(discardLogger(), p, pagegen.NewGenerator(discardLogger(), t.TempDir()), nil, nil)

	_, err := service.Import(t.Context(), []byte(`[{"id": "a"}, {"id": "b"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to roll back product a")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestProduct_ImportRejectsNonArray(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.service.Import(t.Context(), []byte(`{"id": "ok-1"}`))
	assert.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestProduct_HealthCheck(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.On("HealthCheck", mock.Anything).Return(errors.New("disk gone"))

	service := services.NewProduct(discardLogger(), p, pagegen.NewGenerator(discardLogger(), t.TempDir()), nil, nil)

	message, ok := service.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "disk gone")
}

func TestProduct_PublishFailureDoesNotFailGeneration(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Products.On("GetByID", mock.Anything, "demo-1").Return(&models.Product{ID: "demo-1"}, nil)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "demo-1", mock.Anything).Return(errors.New("broker down"))

	service := services.NewProduct(discardLogger(), p, pagegen.NewGenerator(discardLogger(), t.TempDir()), bus, nil)

	assert.NoError(t, service.GeneratePage(t.Context(), "demo-1"))
	bus.AssertNumberOfCalls(t, "Publish", 1)
}
