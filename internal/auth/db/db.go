package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateUser(user models.User) error {
	_, err := d.Bun.NewInsert().Model(&user).Exec(context.Background())
	if err != nil {
		taken, checkErr := d.usernameOrEmailTaken(user.Username, user.Email)
		if checkErr == nil && taken {
			return apperrors.Conflict("username or email already exists")
		}
		return apperrors.Storage("insert user", err)
	}
	return nil
}

func (d *DB) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Storage("select user", err)
	}
	return &user, nil
}

func (d *DB) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Storage("select user", err)
	}
	return &user, nil
}

func (d *DB) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Storage("select user", err)
	}
	return &user, nil
}

func (d *DB) UpdatePassword(userID, passwordHash string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = current_timestamp").
		Where("id = ?", userID).
		Exec(context.Background())
	if err != nil {
		return apperrors.Storage("update password", err)
	}
	return requireAffected(res)
}

func (d *DB) UpdateEmail(userID, email string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Set("updated_at = current_timestamp").
		Where("id = ?", userID).
		Exec(context.Background())
	if err != nil {
		return apperrors.Storage("update email", err)
	}
	return requireAffected(res)
}

// AdminExists reports whether any admin account has been bootstrapped.
func (d *DB) AdminExists() (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("role = ?", models.RoleAdmin).
		Exists(context.Background())
	if err != nil {
		return false, apperrors.Storage("check admin", err)
	}
	return exists, nil
}

func (d *DB) usernameOrEmailTaken(username, email string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? OR email = ?", username, strings.ToLower(strings.TrimSpace(email))).
		Exists(context.Background())
	if err != nil {
		return false, apperrors.Storage("check user", err)
	}
	return exists, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("rows affected", err)
	}
	if affected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}
