package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/firecms/cms/pkg/eventbus"
	"github.com/firecms/cms/pkg/events"
	"github.com/firecms/cms/pkg/models"
	"github.com/firecms/cms/pkg/otelhelper"
	"github.com/firecms/cms/pkg/pagegen"
	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/schema"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Product manages catalog records and their generated detail pages.
type Product struct {
	persistence persistence.Persistence
	generator   *pagegen.Generator
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewProduct creates a new product service. publisher may be nil, in which case no
// events are sent; a nil tracer uses the global provider.
func NewProduct(
	logger *slog.Logger,
	persistence persistence.Persistence,
	generator *pagegen.Generator,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
) *Product {
	if tracer == nil {
		tracer = otelhelper.GlobalTracer("cms")
	}

	return &Product{
		persistence: persistence,
		generator:   generator,
		publisher:   publisher,
		tracer:      tracer,
		validate:    models.NewValidator(),
		logger:      logger.With("module", "product_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (p *Product) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := p.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (p *Product) List(ctx context.Context) ([]*models.Product, error) {
	products, err := p.persistence.ProductRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (p *Product) FetchByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := p.persistence.ProductRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	return product, nil
}

// Save validates product against its struct rules and the JSON schema, then stores it.
func (p *Product) Save(ctx context.Context, product *models.Product) error {
	err := p.check(product)
	if err != nil {
		return err
	}

	err = p.persistence.ProductRepository().Save(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	p.logger.InfoContext(ctx, "product saved", "product_id", product.ID)

	return nil
}

func (p *Product) Delete(ctx context.Context, id string) error {
	err := p.persistence.ProductRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// Import stores every product of a JSON array. All records are validated first and
// nothing is written unless every one of them is valid. When a write fails the
// products already written are rolled back to the records they replaced.
func (p *Product) Import(ctx context.Context, raw []byte) (int, error) {
	var records []json.RawMessage

	err := json.Unmarshal(raw, &records)
	if err != nil {
		return 0, NewValidationError("Import", "INVALID_JSON", "import file must be a JSON array of products", errors.Join(ErrInvalidRequest, err))
	}

	products := make([]*models.Product, 0, len(records))

	var problems []error

	for index, record := range records {
		err := schema.ValidateProductJSON(record)
		if err != nil {
			problems = append(problems, fmt.Errorf("record %d: %w", index, err))

			continue
		}

		var product models.Product

		err = json.Unmarshal(record, &product)
		if err != nil {
			problems = append(problems, fmt.Errorf("record %d: %w", index, errors.Join(ErrInvalidProduct, err)))

			continue
		}

		products = append(products, &product)
	}

	if len(problems) > 0 {
		return 0, NewValidationError("Import", "INVALID_PRODUCT", "", errors.Join(problems...))
	}

	repo := p.persistence.ProductRepository()

	// previous[i] is the record products[i] replaces, nil when the id is new.
	previous := make([]*models.Product, len(products))

	for i, product := range products {
		existing, err := repo.GetByID(ctx, product.ID)
		if err != nil && !persistence.IsProductNotFound(err) {
			return 0, fmt.Errorf("failed to import product %s: %w", product.ID, err)
		}

		previous[i] = existing
	}

	for i, product := range products {
		err := repo.Save(ctx, product)
		if err != nil {
			return 0, errors.Join(
				fmt.Errorf("failed to import product %s: %w", product.ID, err),
				p.rollbackImport(ctx, products[:i], previous[:i]),
			)
		}
	}

	p.logger.InfoContext(ctx, "products imported", "count", len(products))

	return len(products), nil
}

// rollbackImport restores the records replaced by an interrupted import and removes the new ones.
func (p *Product) rollbackImport(ctx context.Context, written, previous []*models.Product) error {
	repo := p.persistence.ProductRepository()

	var errs []error

	for i := len(written) - 1; i >= 0; i-- {
		var err error
		if previous[i] != nil {
			err = repo.Save(ctx, previous[i])
		} else {
			err = repo.Delete(ctx, written[i].ID)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to roll back product %s: %w", written[i].ID, err))
		}
	}

	if len(errs) > 0 {
		p.logger.ErrorContext(ctx, "import rollback incomplete", "error", errors.Join(errs...))
	} else if len(written) > 0 {
		p.logger.WarnContext(ctx, "import rolled back", "count", len(written))
	}

	return errors.Join(errs...)
}

// GeneratePage writes the detail page of the stored product with the given id.
func (p *Product) GeneratePage(ctx context.Context, id string) error {
	product, err := p.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	return p.generate(ctx, product)
}

// PageDir is the directory GeneratePage writes the product's files to.
func (p *Product) PageDir(id string) string {
	return p.generator.Dir(id)
}

// PreviewPage renders the page of the stored product without writing it.
func (p *Product) PreviewPage(ctx context.Context, id string) (*pagegen.Page, error) {
	product, err := p.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	page, err := p.generator.Render(product)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return page, nil
}

// GenerateAll regenerates every stored product's page. A failing product does not stop
// the others; all failures are returned joined. The count is of pages written.
func (p *Product) GenerateAll(ctx context.Context) (int, error) {
	products, err := p.List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		generated int
		failures  []error
	)

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)

			break
		}

		err := p.generate(ctx, product)
		if err != nil {
			failures = append(failures, err)

			continue
		}

		generated++
	}

	p.logger.InfoContext(ctx, "regenerated product pages", "generated", generated, "failed", len(failures))

	return generated, errors.Join(failures...)
}

func (p *Product) generate(ctx context.Context, product *models.Product) error {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pagegen.generate",
		attribute.String(otelhelper.ProductIDKey, product.ID),
		attribute.String(otelhelper.OutputPathKey, p.generator.Dir(product.ID)),
	)
	defer span.End()

	err := p.generator.Generate(ctx, product)
	if err != nil {
		otelhelper.SetError(span, err)
		p.publish(ctx, product.ID, events.NewPageGenerationFailed(product.ID, err))

		return err
	}

	dir := p.generator.Dir(product.ID)
	p.publish(ctx, product.ID, events.NewPageGenerated(
		product.ID,
		filepath.Join(dir, pagegen.EntryFileName),
		filepath.Join(dir, pagegen.ClientFileName),
	))

	return nil
}

func (p *Product) check(product *models.Product) error {
	if product == nil {
		return NewValidationError("Save", "INVALID_REQUEST", "product is required", ErrInvalidRequest)
	}

	err := p.validate.Struct(product)
	if err != nil {
		return NewValidationError("Save", "INVALID_PRODUCT_ID", fmt.Sprintf("product id %q is not usable as a page directory", product.ID), errors.Join(ErrInvalidProductID, err))
	}

	err = schema.ValidateProduct(product)
	if err != nil {
		return NewValidationError("Save", "INVALID_PRODUCT", "", err)
	}

	return nil
}

func (p *Product) publish(ctx context.Context, key string, event eventbus.Event) {
	if p.publisher == nil {
		return
	}

	err := p.publisher.Publish(ctx, key, event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.GetType(), "key", key, "error", err)
	}
}
