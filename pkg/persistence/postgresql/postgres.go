// Package postgresql provides PostgreSQL persistence for products and approval documents.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	productRepo  *ProductRepository
	documentRepo *DocumentRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	postgres := newPersistence(logger, database)

	// Run migrations on initialization
	err = sqlbase.NewMigrationManager(logger, database, migrations()).RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

func newPersistence(logger *slog.Logger, database *sql.DB) *Persistence {
	return &Persistence{
		db:           database,
		logger:       logger,
		productRepo:  NewProductRepository(database, logger),
		documentRepo: NewDocumentRepository(database, logger),
	}
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) ProductRepository() persistence.ProductRepository {
	return p.productRepo
}

func (p *Persistence) DocumentRepository() persistence.DocumentRepository {
	return p.documentRepo
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
