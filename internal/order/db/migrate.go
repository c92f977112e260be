package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// Migrate creates the order tables when they are missing. Production schema
// changes go through the SQL migrations runner; this keeps dev and test
// databases usable without it.
func Migrate(bunDB *bun.DB) error {
	ctx := context.Background()

	if _, err := bunDB.NewCreateTable().
		Model((*models.Order)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
