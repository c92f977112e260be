package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// Migrate creates the users table when it is missing.
func Migrate(bunDB *bun.DB) error {
	_, err := bunDB.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(context.Background())
	return err
}
