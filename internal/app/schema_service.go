package app

import (
	"context"
	"strings"

	"nlquery-engine/internal/platform/sqlpool"
	"nlquery-engine/internal/schema"
)

// SchemaService handles connect-database: open (or reuse) a pooled handle for
// the given connection string and reflect its structure.
type SchemaService struct {
	pool *sqlpool.Pool
}

func NewSchemaService(pool *sqlpool.Pool) *SchemaService {
	return &SchemaService{pool: pool}
}

func (s *SchemaService) Discover(ctx context.Context, connString string) (*schema.Schema, error) {
	connString = strings.TrimSpace(connString)
	if connString == "" {
		return nil, ErrInvalidInput
	}

	db, dialect, err := s.pool.Get(ctx, connString)
	if err != nil {
		return nil, err
	}
	return schema.Analyze(ctx, db, dialect)
}
